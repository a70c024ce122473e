package epicore

import (
	"sync"

	"github.com/segmentio/ksuid"
)

// RunDriver is the C8 run driver: it validates configuration, loads
// the static contact layers and venue registry once, and then fans
// out replicate simulations. Generalized from a serial per-instance
// loop (`for i := 1; i <= numInstances; i++`) to a bounded worker pool
// since spec.md §5 explicitly endorses parallelizing independent
// replicates.
type RunDriver struct {
	cfg           *Config
	profile       DiseaseProfile
	schedules     map[string]*Schedule
	testing       TestingConfig
	locationTypes map[string]LocationTypeConfig

	graph        *Graph
	locations    []*Location
	visitBinding *VisitBinding
}

// NewRunDriver validates cfg and loads every input file it names,
// failing fast (ConfigError / GraphError / BuildingInputError) before
// any round runs, per spec.md §7's fail-fast propagation policy.
func NewRunDriver(cfg *Config) (*RunDriver, error) {
	profile, err := ProfileByName(cfg.Simulation.DiseaseProfile)
	if err != nil {
		return nil, err
	}
	schedules, err := cfg.schedules()
	if err != nil {
		return nil, err
	}

	household, err := LoadNeighborMap(cfg.Simulation.HouseholdNbrsPath)
	if err != nil {
		return nil, err
	}
	schoolStandard, err := LoadNeighborMap(cfg.Simulation.SchoolNbrsPath + "_standard")
	if err != nil {
		return nil, err
	}
	schoolSplit0, err := LoadNeighborMap(cfg.Simulation.SchoolNbrsPath + "_split_0")
	if err != nil {
		return nil, err
	}
	schoolSplit1, err := LoadNeighborMap(cfg.Simulation.SchoolNbrsPath + "_split_1")
	if err != nil {
		return nil, err
	}
	office, err := LoadNeighborMap(cfg.Simulation.OfficeNbrsPath)
	if err != nil {
		return nil, err
	}
	interHousehold := NewNeighborMap()
	if cfg.Simulation.InterhhNbrsPath != "" {
		interHousehold, err = LoadNeighborMap(cfg.Simulation.InterhhNbrsPath)
		if err != nil {
			return nil, err
		}
	}

	graph, err := graphFromNeighborMaps(household, schoolStandard, schoolSplit0, schoolSplit1, office, interHousehold)
	if err != nil {
		return nil, err
	}

	var locations []*Location
	var visitBinding *VisitBinding
	locationTypes := cfg.locationTypeConfigs()
	if cfg.Simulation.LocationCSVPath != "" {
		records, err := LoadBuildingCSV(cfg.Simulation.LocationCSVPath)
		if err != nil {
			return nil, err
		}
		setupRNG := NewRNG(cfg.Simulation.Seed)
		visitBinding, locations, err = BuildVisitBindings(records, household.Clusters(), setupRNG)
		if err != nil {
			return nil, err
		}
		for _, loc := range locations {
			if _, ok := locationTypes[loc.Type]; !ok {
				return nil, newConfigError(UnknownLocationTypeError, loc.Type)
			}
		}
	}

	return &RunDriver{
		cfg:           cfg,
		profile:       profile,
		schedules:     schedules,
		testing:       cfg.testingConfig(),
		locationTypes: locationTypes,
		graph:         graph,
		locations:     locations,
		visitBinding:  visitBinding,
	}, nil
}

// graphFromNeighborMaps treats the household layer as the
// population-defining one (spec.md §6: one line per agent, so its
// highest id plus one is the declared population) and validates that every other
// layer references only ids within that population, failing fast with
// GraphError(AgentOutOfRangeError) per spec.md §7 rather than letting
// an out-of-range id surface later as a silent no-op lookup.
func graphFromNeighborMaps(household, schoolStandard, schoolSplit0, schoolSplit1, office, interHousehold NeighborMap) (*Graph, error) {
	n := 0
	for id := range household {
		if id+1 > n {
			n = id + 1
		}
	}
	for _, m := range []NeighborMap{household, schoolStandard, schoolSplit0, schoolSplit1, office, interHousehold} {
		if err := m.ValidateRange(n); err != nil {
			return nil, err
		}
	}
	return &Graph{
		N:              n,
		Household:      household,
		SchoolStandard: schoolStandard,
		SchoolSplit:    [2]NeighborMap{schoolSplit0, schoolSplit1},
		Office:         office,
		InterHousehold: interHousehold,
	}, nil
}

// WriterFactory builds one TelemetryWriter per replicate, keyed by a
// unique tag (so concurrent replicates never collide on an output
// path), generalized from an integer instance counter to a ksuid.KSUID
// tag.
type WriterFactory func(tag string) (TelemetryWriter, error)

// Run executes numInstances independent replicates, each with its own
// seeded RNG and Simulation, over a bounded worker pool of size
// maxParallel. Per spec.md §5, parallelism is only ever across
// replicates — never within a round.
func (rd *RunDriver) Run(numInstances, numRounds int, baseSeed int64, maxParallel int, newWriter WriterFactory) error {
	if maxParallel < 1 {
		maxParallel = 1
	}
	sem := make(chan struct{}, maxParallel)
	errs := make(chan error, numInstances)
	var wg sync.WaitGroup

	for i := 1; i <= numInstances; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(instance int) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := rd.runOne(instance, numRounds, baseSeed, newWriter); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (rd *RunDriver) runOne(instance, numRounds int, baseSeed int64, newWriter WriterFactory) error {
	rng := NewRNG(baseSeed + int64(instance))
	sim := NewSimulation(
		rd.graph, rd.profile, rd.schedules, rd.testing, rd.locationTypes,
		rd.visitBinding, rd.locations,
		rd.cfg.Simulation.StartWeekday, rd.cfg.Simulation.SplitStayHome, rng,
	)
	if err := rd.applyInitialCohorts(sim, rng); err != nil {
		return err
	}

	writer, err := newWriter(ksuid.New().String())
	if err != nil {
		return err
	}
	defer writer.Close()

	terminated := false
	for round := 0; round < numRounds; round++ {
		var record TelemetryRecord
		if terminated {
			record = TelemetryRecord{
				Round:                  round,
				Weekday:                (round + rd.cfg.Simulation.StartWeekday) % 7,
				StatePopulations:       sim.state.Populations(),
				InfectedByLocationType: make(map[string]int),
			}
		} else {
			record, terminated = sim.Step(round)
		}
		if err := writer.WriteRecord(record); err != nil {
			return err
		}
	}
	return nil
}

// applyInitialCohorts implements spec.md §4.6: initial immune agents
// are moved to Recovered first, then the starting-infectious cohort is
// drawn from the remaining susceptible pool, guaranteeing disjointness
// (I5).
func (rd *RunDriver) applyInitialCohorts(sim *Simulation, rng *RNG) error {
	immuneSpec, err := rd.cfg.percImmuneSpec()
	if err != nil {
		return err
	}
	infectiousSpec, err := rd.cfg.numStartInfectiousSpec(rd.profile)
	if err != nil {
		return err
	}

	immune := rd.selectImmune(sim, immuneSpec, rng)
	for id := range immune {
		sim.state.Move(id, rd.profile.RecoveredCode())
	}

	var remaining []int
	for id := 0; id < rd.graph.N; id++ {
		if !immune[id] {
			remaining = append(remaining, id)
		}
	}

	codes := append(append([]int{}, rd.profile.ExposedCodes()...), rd.profile.InfectiousCodes()...)
	if len(codes) == 0 {
		return nil
	}

	if infectiousSpec.PerSubstate != nil {
		pool := remaining
		for i, count := range infectiousSpec.PerSubstate {
			if count == 0 {
				continue
			}
			chosen := rng.Sample(pool, count)
			chosenSet := make(map[int]bool, len(chosen))
			for _, id := range chosen {
				sim.state.Move(id, codes[i])
				chosenSet[id] = true
			}
			pool = filterOut(pool, chosenSet)
		}
		return nil
	}

	// Scalar ("even") form: spec.md §4.6 calls this "distributed equally"
	// across the non-Recovered substates. Grounded on epsim.py's
	// int(total/(num_states-2)) per substate, which floors instead of
	// rounding and drops the remainder rather than front-loading it onto
	// the earliest substates.
	perSubstate := infectiousSpec.Total / len(codes)
	if perSubstate == 0 {
		return nil
	}
	pool := remaining
	for _, code := range codes {
		chosen := rng.Sample(pool, perSubstate)
		chosenSet := make(map[int]bool, len(chosen))
		for _, id := range chosen {
			sim.state.Move(id, code)
			chosenSet[id] = true
		}
		pool = filterOut(pool, chosenSet)
	}
	return nil
}

func (rd *RunDriver) selectImmune(sim *Simulation, spec PercImmuneSpec, rng *RNG) map[int]bool {
	immune := make(map[int]bool)
	if spec.Uniform {
		allIDs := make([]int, rd.graph.N)
		for i := range allIDs {
			allIDs[i] = i
		}
		k := int(spec.UniformFrac * float64(rd.graph.N))
		for _, id := range rng.Sample(allIDs, k) {
			immune[id] = true
		}
		return immune
	}
	if frac, ok := spec.PerPartition["households"]; ok {
		clusters := sim.householdClusters
		idxs := make([]int, len(clusters))
		for i := range idxs {
			idxs[i] = i
		}
		k := int(frac * float64(len(clusters)))
		for _, idx := range rng.Sample(idxs, k) {
			for _, id := range clusters[idx] {
				immune[id] = true
			}
		}
	}
	if frac, ok := spec.PerPartition["adults"]; ok {
		var adults []int
		for id, isA := range sim.isAdult {
			if isA {
				adults = append(adults, id)
			}
		}
		k := int(frac * float64(len(adults)))
		for _, id := range rng.Sample(adults, k) {
			immune[id] = true
		}
	}
	if frac, ok := spec.PerPartition["children"]; ok {
		var children []int
		for id, isC := range sim.isChild {
			if isC {
				children = append(children, id)
			}
		}
		k := int(frac * float64(len(children)))
		for _, id := range rng.Sample(children, k) {
			immune[id] = true
		}
	}
	return immune
}
