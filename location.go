package epicore

// LocationTypeConfig carries the per-type constants from spec.md §6's
// recognized-location-types table (avg_visit_time, need_minutes,
// contact_mult), supplied by configuration rather than hardcoded so
// nightlife's config-only defaults and the others' documented defaults
// share one code path.
type LocationTypeConfig struct {
	AvgVisitTime float64 // minutes per visit
	NeedMinutes  float64 // minutes/week an agent "needs" of this type
	ContactMult  float64
}

const minutesOpen = 720.0 // 12h/day, fixed per spec.md §4.3

// referenceContactMinutes is the 8h/13sqm reference used to calibrate
// base_rate: one infectious and one susceptible sharing 13 sqm for 8h
// at the reference loc_infec_rate produce one expected transmission.
const referenceContactMinutes = 8 * 60.0 / 13.0

type visitRecord struct {
	agent   int
	minutes float64
}

// Location is a venue an agent visits outside household/school/office:
// supermarket, shop, restaurant, leisure, or nightlife. Mutated only
// inside a round (RegisterVisit then Spread), per spec.md §9's
// ownership note — a Location is owned exclusively by the simulator's
// location registry, never by a household's visit binding.
//
// Grounded on original_source/epsim.py's Location class; the register/
// spread two-phase protocol and the base_rate formula are carried
// exactly. In Go style this mirrors a struct computing a probabilistic
// draw plus a separate Bernoulli-draw call site.
type Location struct {
	ID   int
	Type string
	Tag  string
	X, Y float64
	Sqm  float64

	infecMinutes float64
	visits       []visitRecord
}

// NewLocation constructs an empty, unvisited Location.
func NewLocation(id int, typ, tag string, x, y, sqm float64) *Location {
	return &Location{ID: id, Type: typ, Tag: tag, X: x, Y: y, Sqm: sqm}
}

// RegisterVisit draws whether agent visits today (visit_prob =
// need_minutes / (avg_visit_time * 7)) and, if so, records its
// contribution: a susceptible agent's visit is queued for the later
// Spread pass; an infectious agent's minutes accrue directly into
// infec_minutes. Quarantined agents, and agents in any other disease
// state, never contribute.
func (l *Location) RegisterVisit(agent int, quarantined, susceptible, infectious bool, cfg LocationTypeConfig, rng *RNG) {
	visitProb := cfg.NeedMinutes / (cfg.AvgVisitTime * 7)
	if rng.Float64() >= visitProb {
		return
	}
	if quarantined {
		return
	}
	switch {
	case susceptible:
		l.visits = append(l.visits, visitRecord{agent: agent, minutes: cfg.AvgVisitTime})
	case infectious:
		l.infecMinutes += cfg.AvgVisitTime
	}
}

// Spread computes base_rate from the minutes accrued this round and,
// for every queued visit whose agent is still susceptible (re-checked
// via susceptibleNow, since an agent can be infected elsewhere earlier
// in the same round through another channel), draws an independent
// infection with probability `minutes * base_rate`. Returns the newly
// infected agent ids and clears the round's accumulators.
func (l *Location) Spread(cfg LocationTypeConfig, locInfecRate float64, susceptibleNow func(agent int) bool, rng *RNG) []int {
	baseRate := cfg.ContactMult * (locInfecRate / referenceContactMinutes) * (1 / minutesOpen) * (l.infecMinutes / l.Sqm)

	var infected []int
	for _, v := range l.visits {
		if !susceptibleNow(v.agent) {
			continue
		}
		if rng.Bernoulli(v.minutes * baseRate) {
			infected = append(infected, v.agent)
		}
	}
	l.visits = l.visits[:0]
	l.infecMinutes = 0
	return infected
}
