package epicore

import "sort"

// locationTypeOrder fixes the iteration order over recognized location
// types so venue visit/spread draws happen in a stable sequence
// (determinism contract, spec.md §5).
var locationTypeOrder = []string{"leisure", "nightlife", "restaurant", "shop", "supermarket"}

// Simulation holds everything a round needs: the five static contact
// layers, the disease-state partition, the quarantine ledger, the
// parameter schedules, and the venue registry. One Simulation runs one
// replicate; independent replicates get independent Simulation and RNG
// instances (spec.md §5).
//
// [EXPANSION — REDESIGN] An earlier revision of this round structure
// drove Init/Update/Process/Transmit/Finalize methods fanned out over
// goroutines and channels per host. Per spec.md §5 a round here must be
// a single-threaded, sequential unit: infection outcomes depend on the
// serial order of cohort mutation during steps 6-10 (first writer
// wins), so this keeps a per-round staging method (Step) but removes
// all concurrency from within a round; the step order instead follows
// original_source/epsim.py's synchronous run_sim loop.
type Simulation struct {
	profile    DiseaseProfile
	state      *StatePartition
	quarantine *QuarantineLedger

	household      NeighborMap
	schoolStandard NeighborMap
	schoolSplit    [2]NeighborMap
	office         NeighborMap
	interHousehold NeighborMap

	householdClusters [][]int
	householdKeyOf    []int
	householdByKey    map[int][]int

	isChild []bool
	isAdult []bool

	schedules     map[string]*Schedule
	testing       TestingConfig
	locationTypes map[string]LocationTypeConfig

	visitBinding    *VisitBinding
	locationsByType map[string][]*Location

	startWeekday  int
	splitStayHome bool

	rng *RNG
}

// NewSimulation constructs a Simulation over a generated or loaded
// Graph. Initial disease state is all-Susceptible; callers apply the
// initial immune/infectious cohorts (run driver, C8) before the first Step.
func NewSimulation(
	graph *Graph,
	profile DiseaseProfile,
	schedules map[string]*Schedule,
	testing TestingConfig,
	locationTypes map[string]LocationTypeConfig,
	visitBinding *VisitBinding,
	locations []*Location,
	startWeekday int,
	splitStayHome bool,
	rng *RNG,
) *Simulation {
	sim := &Simulation{
		profile:         profile,
		state:           NewStatePartition(profile, graph.N),
		quarantine:      NewQuarantineLedger(),
		household:       graph.Household,
		schoolStandard:  graph.SchoolStandard,
		schoolSplit:     graph.SchoolSplit,
		office:          graph.Office,
		interHousehold:  graph.InterHousehold,
		schedules:       schedules,
		testing:         testing,
		locationTypes:   locationTypes,
		visitBinding:    visitBinding,
		locationsByType: make(map[string][]*Location),
		startWeekday:    startWeekday,
		splitStayHome:   splitStayHome,
		rng:             rng,
	}

	sim.isChild = make([]bool, graph.N)
	sim.isAdult = make([]bool, graph.N)
	for id := 0; id < graph.N; id++ {
		sim.isChild[id] = sim.schoolStandard.Contains(id) || sim.schoolSplit[0].Contains(id) || sim.schoolSplit[1].Contains(id)
		sim.isAdult[id] = sim.office.Contains(id)
	}

	sim.householdClusters = sim.household.Clusters()
	sim.householdKeyOf = make([]int, graph.N)
	sim.householdByKey = make(map[int][]int, len(sim.householdClusters))
	for _, cluster := range sim.householdClusters {
		key := cluster[0]
		sim.householdByKey[key] = cluster
		for _, id := range cluster {
			sim.householdKeyOf[id] = key
		}
	}

	for _, loc := range locations {
		sim.locationsByType[loc.Type] = append(sim.locationsByType[loc.Type], loc)
	}

	return sim
}

func (sim *Simulation) State() *StatePartition        { return sim.state }
func (sim *Simulation) Quarantine() *QuarantineLedger  { return sim.quarantine }

// Step advances the simulation by one round, implementing spec.md
// §4.5's fifteen-step protocol in order. Returns the round's telemetry
// record and whether the population has reached the terminal
// all-clear state (P8): once true, every subsequent round's infected
// counts are zero and state populations never change again, so the
// run driver emits zero-filled records for the remainder without
// calling Step again.
func (sim *Simulation) Step(round int) (TelemetryRecord, bool) {
	weekday := (round + sim.startWeekday) % 7

	record := TelemetryRecord{
		Round:                  round,
		Weekday:                weekday,
		StatePopulations:       sim.state.Populations(),
		InfectedByLocationType: make(map[string]int),
	}

	if !sim.state.AnyExposedOrInfectious() {
		return record, true
	}

	pHousehold := sim.schedules["p_spread_household"].ValueAt(round)
	pSchool := sim.schedules["p_spread_school"].ValueAt(round)
	pOffice := sim.schedules["p_spread_office"].ValueAt(round)
	pDetectChild := sim.schedules["p_detect_child"].ValueAt(round)
	pDetectAdult := sim.schedules["p_detect_adult"].ValueAt(round)
	pInterhhVisit := sim.schedules["p_interhh_visit"].ValueAt(round)
	pInterhhSpread := sim.schedules["p_spread_interhh"].ValueAt(round)
	locInfecRate := sim.schedules["loc_infec_rate"].ValueAt(round)

	visitors := make(map[int]bool)
	for _, id := range sim.interHousehold.Keys() {
		if sim.rng.Bernoulli(pInterhhVisit) {
			visitors[id] = true
		}
	}

	infectious := sim.state.Infectious()
	var infectiousAdult, infectiousChild []int
	for _, id := range infectious {
		if sim.isAdult[id] {
			infectiousAdult = append(infectiousAdult, id)
		}
		if sim.isChild[id] {
			infectiousChild = append(infectiousChild, id)
		}
	}

	var interhhAdult, interhhChild []int
	for _, id := range infectiousAdult {
		if visitors[id] {
			interhhAdult = append(interhhAdult, id)
		}
	}
	for _, id := range infectiousChild {
		if visitors[id] {
			interhhChild = append(interhhChild, id)
		}
	}

	sim.quarantine.Expire()

	quarantinedNow := make(map[int]bool)
	quarantineHousehold := func(id int) int {
		n := 0
		for _, member := range sim.householdByKey[sim.householdKeyOf[id]] {
			if sim.quarantine.Place(member) {
				quarantinedNow[member] = true
				n++
			}
		}
		return n
	}

	partitionByQuarantine := func(ids []int) (quarantined, free []int) {
		for _, id := range ids {
			if sim.quarantine.Quarantined(id) {
				quarantined = append(quarantined, id)
			} else {
				free = append(free, id)
			}
		}
		return
	}
	quarantinedChild, freeChild := partitionByQuarantine(infectiousChild)
	quarantinedAdult, freeAdult := partitionByQuarantine(infectiousAdult)

	freshlyInfected := make(map[int]bool)
	tryInfect := func(id int, prob float64) bool {
		if !sim.state.IsSusceptible(id) || freshlyInfected[id] {
			return false
		}
		if sim.rng.Bernoulli(prob) {
			freshlyInfected[id] = true
			return true
		}
		return false
	}

	// Step 6: household spread.
	for _, cohort := range [][]int{quarantinedChild, quarantinedAdult, freeChild, freeAdult} {
		for _, spreader := range cohort {
			child := sim.isChild[spreader]
			for _, nbr := range sim.household.Neighbors(spreader) {
				if tryInfect(nbr, pHousehold) {
					record.InfectedHousehold++
					record.TotalInfected++
					if child {
						record.InfectedByChildren++
					} else {
						record.InfectedByAdults++
					}
				}
			}
		}
	}

	// Step 7: child testing.
	testNames := make([]string, 0, len(sim.testing))
	for name := range sim.testing {
		testNames = append(testNames, name)
	}
	sort.Strings(testNames)
	for _, name := range testNames {
		spec := sim.testing[name]
		if !spec.RunsOn(weekday) {
			continue
		}
		eligible := freeChild
		// PCR eligibility under a short-incubation profile is
		// restricted to the second infectious sub-state (spec.md §9
		// Open Question, resolved as Profile.SecondInfectiousSubstate).
		if name == "pcr" && sim.profile.Name == ShortIncubationProfile.Name {
			if code, ok := sim.profile.SecondInfectiousSubstate(); ok {
				var restricted []int
				for _, id := range eligible {
					if sim.state.CodeOf(id) == code {
						restricted = append(restricted, id)
					}
				}
				eligible = restricted
			}
		}
		for _, child := range eligible {
			if quarantinedNow[child] {
				continue
			}
			if sim.rng.Bernoulli(spec.P) {
				record.QuarantinedByTest += quarantineHousehold(child)
			}
		}
	}
	freeChild = filterOut(freeChild, quarantinedNow)
	freeAdult = filterOut(freeAdult, quarantinedNow)

	// Step 8: office spread, weekdays Mon-Fri only.
	if weekday >= 0 && weekday <= 4 {
		for _, spreader := range freeAdult {
			for _, nbr := range sim.office.Neighbors(spreader) {
				if tryInfect(nbr, pOffice) {
					record.InfectedOffice++
					record.TotalInfected++
					record.InfectedByAdults++
					if sim.rng.Bernoulli(pDetectAdult) {
						record.QuarantinedByDetection += quarantineHousehold(nbr)
					}
				}
			}
		}
	}
	freeChild = filterOut(freeChild, quarantinedNow)
	freeAdult = filterOut(freeAdult, quarantinedNow)

	// Step 9: school spread, weekdays Mon-Fri only.
	if weekday >= 0 && weekday <= 4 {
		for _, spreader := range freeChild {
			for _, nbr := range sim.schoolStandard.Neighbors(spreader) {
				if tryInfect(nbr, pSchool) {
					record.InfectedSchool++
					record.TotalInfected++
					record.InfectedByChildren++
					if sim.rng.Bernoulli(pDetectChild) {
						record.QuarantinedByDetection += quarantineHousehold(nbr)
					}
				}
			}
		}
		freeChild = filterOut(freeChild, quarantinedNow)

		halfIndex := round % 2
		if sim.splitStayHome {
			halfIndex = 0
		}
		for _, spreader := range freeChild {
			for _, nbr := range sim.schoolSplit[halfIndex].Neighbors(spreader) {
				if tryInfect(nbr, pSchool) {
					record.InfectedSchool++
					record.TotalInfected++
					record.InfectedByChildren++
					if sim.rng.Bernoulli(pDetectChild) {
						record.QuarantinedByDetection += quarantineHousehold(nbr)
					}
				}
			}
		}
	}

	// Step 10: inter-household spread. Quarantined spreaders are
	// allowed on this channel, so interhhChild/interhhAdult are not
	// filtered by quarantinedNow.
	for _, cohort := range [][]int{interhhChild, interhhAdult} {
		for _, spreader := range cohort {
			child := sim.isChild[spreader]
			for _, nbr := range sim.interHousehold.Neighbors(spreader) {
				if tryInfect(nbr, pInterhhSpread) {
					record.InfectedInterhh++
					record.TotalInfected++
					if child {
						record.InfectedByChildren++
					} else {
						record.InfectedByAdults++
					}
				}
			}
		}
	}

	// Steps 11-12: venue visits then spread. Infected-by-children/adults
	// is not broken down for venue infections: a venue's spread() mixes
	// minutes from every visitor that day, so there is no single
	// attributable spreader the way there is on the clique-like layers.
	if sim.visitBinding != nil {
		for _, cluster := range sim.householdClusters {
			key := cluster[0]
			for _, locType := range locationTypeOrder {
				candidates := sim.visitBinding.Candidates(key, locType)
				if len(candidates) == 0 {
					continue
				}
				// NewRunDriver already rejects any location CSV row whose
				// type has no entry in locationTypes, so cfg is always
				// found here; the check stays as a guard against this
				// loop ever running over a binding built by another path.
				cfg, ok := sim.locationTypes[locType]
				if !ok {
					continue
				}
				for _, agent := range cluster {
					venue := candidates[sim.rng.Intn(len(candidates))]
					quarantined := sim.quarantine.Quarantined(agent)
					susceptible := sim.state.IsSusceptible(agent) && !freshlyInfected[agent]
					infectious := sim.state.IsInfectious(agent)
					venue.RegisterVisit(agent, quarantined, susceptible, infectious, cfg, sim.rng)
				}
			}
		}
		susceptibleNow := func(id int) bool { return sim.state.IsSusceptible(id) && !freshlyInfected[id] }
		for _, locType := range locationTypeOrder {
			// Same guard as above: locationsByType can only hold types
			// already present in locationTypes.
			cfg, ok := sim.locationTypes[locType]
			if !ok {
				continue
			}
			for _, loc := range sim.locationsByType[locType] {
				for _, id := range loc.Spread(cfg, locInfecRate, susceptibleNow, sim.rng) {
					freshlyInfected[id] = true
					record.InfectedByLocationType[locType]++
					record.TotalInfected++
				}
			}
		}
	}

	// Step 13: advance existing exposed/infectious sub-states, then
	// place freshly infected agents into the first sub-state.
	sim.state.AdvanceAll()
	newlyInfectedIDs := make([]int, 0, len(freshlyInfected))
	for id := range freshlyInfected {
		newlyInfectedIDs = append(newlyInfectedIDs, id)
	}
	sort.Ints(newlyInfectedIDs)
	for _, id := range newlyInfectedIDs {
		sim.state.Move(id, sim.profile.FirstInfectedCode())
	}

	// Step 14: quarantine counters tick.
	sim.quarantine.Tick()

	return record, false
}

func filterOut(ids []int, removed map[int]bool) []int {
	if len(removed) == 0 {
		return ids
	}
	out := ids[:0:0]
	for _, id := range ids {
		if !removed[id] {
			out = append(out, id)
		}
	}
	return out
}
