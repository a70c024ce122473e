package epicore

import "sort"

// Status codes follow a named-constant block in spirit
// (SusceptibleStatusCode, ExposedStatusCode, ...), but since the number
// of exposed/infectious sub-states varies by DiseaseProfile here, codes
// are derived from the profile rather than hardcoded:
// 0 is always Susceptible, 1..NumExposed are the exposed sub-states in
// order, the following NumInfectious codes are the infectious
// sub-states in order, and the final code is Recovered.
const susceptibleCode = 0

// DiseaseProfile selects one of the two disease-state shapes from
// spec.md §4.4: Default (3 exposed, 2 infectious sub-states) or
// ShortIncubation (no exposed stage, 2 infectious sub-states).
type DiseaseProfile struct {
	Name          string
	NumExposed    int
	NumInfectious int
}

var DefaultProfile = DiseaseProfile{Name: "default", NumExposed: 3, NumInfectious: 2}
var ShortIncubationProfile = DiseaseProfile{Name: "short_incubation", NumExposed: 0, NumInfectious: 2}

// ProfileByName resolves the disease_profile configuration key.
func ProfileByName(name string) (DiseaseProfile, error) {
	switch name {
	case "", "default":
		return DefaultProfile, nil
	case "short_incubation":
		return ShortIncubationProfile, nil
	default:
		return DiseaseProfile{}, newConfigError("unrecognized disease_profile %q", name)
	}
}

// NumSubstates is the total status-code count: Susceptible, the
// exposed sub-states, the infectious sub-states, and Recovered.
func (p DiseaseProfile) NumSubstates() int { return 2 + p.NumExposed + p.NumInfectious }

// RecoveredCode is the absorbing final code.
func (p DiseaseProfile) RecoveredCode() int { return 1 + p.NumExposed + p.NumInfectious }

// FirstInfectedCode is the code a newly infected agent enters: the
// first exposed sub-state, or I1 when the profile has no exposed
// stage. Since exposed sub-states (if any) immediately follow
// Susceptible, this is always code 1.
func (p DiseaseProfile) FirstInfectedCode() int { return 1 }

// ExposedCodes returns the exposed sub-state codes in order.
func (p DiseaseProfile) ExposedCodes() []int {
	codes := make([]int, p.NumExposed)
	for i := range codes {
		codes[i] = 1 + i
	}
	return codes
}

// InfectiousCodes returns the infectious sub-state codes in order.
func (p DiseaseProfile) InfectiousCodes() []int {
	codes := make([]int, p.NumInfectious)
	for i := range codes {
		codes[i] = 1 + p.NumExposed + i
	}
	return codes
}

// IsInfectious reports whether code is one of the infectious sub-states.
func (p DiseaseProfile) IsInfectious(code int) bool {
	return code > p.NumExposed && code <= p.NumExposed+p.NumInfectious
}

// IsExposedOrInfectious reports whether code is neither Susceptible
// nor Recovered.
func (p DiseaseProfile) IsExposedOrInfectious(code int) bool {
	return code >= 1 && code <= p.NumExposed+p.NumInfectious
}

// Advance returns the status code an agent in `code` (exposed or
// infectious) moves to after one round: the next sub-state, or
// Recovered from the last infectious sub-state. Calling Advance on
// Susceptible or Recovered is a programming error.
func (p DiseaseProfile) Advance(code int) int {
	last := p.NumExposed + p.NumInfectious
	if code == last {
		return p.RecoveredCode()
	}
	return code + 1
}

// SecondInfectiousSubstate names the Open Question predicate from
// spec.md §9: under PCR testing, eligibility is restricted to agents
// "currently in sub-state index 2 within the Infectious partition".
// Returns ok=false if the profile has fewer than two infectious
// sub-states (so the predicate can never match).
func (p DiseaseProfile) SecondInfectiousSubstate() (code int, ok bool) {
	if p.NumInfectious < 2 {
		return 0, false
	}
	return p.NumExposed + 2, true
}

// StatePartition holds the disease-state sets described in spec.md §3:
// one set per sub-state code, covering the whole population, pairwise
// disjoint (I1). Generalized from a fixed 5-state SI model to a
// profile-parameterized state count, following spec.md §9's "state
// partition representation" design note: one set per sub-state rather
// than one field per agent, paired with a dense reverse index for O(1)
// membership queries.
type StatePartition struct {
	profile DiseaseProfile
	codeOf  []int
	sets    map[int]map[int]struct{}
}

// NewStatePartition creates a partition over population ids 0..n-1,
// all initially Susceptible.
func NewStatePartition(profile DiseaseProfile, n int) *StatePartition {
	sp := &StatePartition{
		profile: profile,
		codeOf:  make([]int, n),
		sets:    make(map[int]map[int]struct{}),
	}
	for code := 0; code < profile.NumSubstates(); code++ {
		sp.sets[code] = make(map[int]struct{})
	}
	for id := 0; id < n; id++ {
		sp.sets[susceptibleCode][id] = struct{}{}
	}
	return sp
}

func (sp *StatePartition) Profile() DiseaseProfile { return sp.profile }

// CodeOf returns id's current status code.
func (sp *StatePartition) CodeOf(id int) int { return sp.codeOf[id] }

func (sp *StatePartition) IsSusceptible(id int) bool { return sp.codeOf[id] == susceptibleCode }
func (sp *StatePartition) IsInfectious(id int) bool  { return sp.profile.IsInfectious(sp.codeOf[id]) }
func (sp *StatePartition) IsRecovered(id int) bool {
	return sp.codeOf[id] == sp.profile.RecoveredCode()
}
func (sp *StatePartition) IsExposedOrInfectious(id int) bool {
	return sp.profile.IsExposedOrInfectious(sp.codeOf[id])
}

// Members returns the ids currently at `code`, sorted ascending for
// deterministic iteration (spec.md §9: "ordering inside the cohort ...
// must be deterministic for P7").
func (sp *StatePartition) Members(code int) []int {
	set := sp.sets[code]
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Infectious returns every id in any infectious sub-state, sorted.
func (sp *StatePartition) Infectious() []int {
	var out []int
	for _, code := range sp.profile.InfectiousCodes() {
		out = append(out, sp.Members(code)...)
	}
	sort.Ints(out)
	return out
}

// AnyExposedOrInfectious is the termination test of spec.md §4.5 step 3.
func (sp *StatePartition) AnyExposedOrInfectious() bool {
	for _, code := range sp.profile.ExposedCodes() {
		if len(sp.sets[code]) > 0 {
			return true
		}
	}
	for _, code := range sp.profile.InfectiousCodes() {
		if len(sp.sets[code]) > 0 {
			return true
		}
	}
	return false
}

// Move relocates id from its current sub-state to newCode.
func (sp *StatePartition) Move(id, newCode int) {
	old := sp.codeOf[id]
	delete(sp.sets[old], id)
	sp.sets[newCode][id] = struct{}{}
	sp.codeOf[id] = newCode
}

// AdvanceAll implements spec.md §4.5 step 13's progression half (not
// the "freshly infected enter the first exposed sub-state" half,
// which the caller handles by calling Move(id, profile.FirstInfectedCode())
// after AdvanceAll returns). Sub-states are processed from the last
// infectious one down to the first exposed one so that an agent moved
// into a bucket this pass is never re-visited in the same pass.
func (sp *StatePartition) AdvanceAll() {
	last := sp.profile.NumExposed + sp.profile.NumInfectious
	for code := last; code >= 1; code-- {
		for _, id := range sp.Members(code) {
			sp.Move(id, sp.profile.Advance(code))
		}
	}
}

// Populations snapshots the population count at every sub-state code,
// for the telemetry record's state-populations vector.
func (sp *StatePartition) Populations() []int {
	counts := make([]int, sp.profile.NumSubstates())
	for code, set := range sp.sets {
		counts[code] = len(set)
	}
	return counts
}
