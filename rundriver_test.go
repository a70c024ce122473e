package epicore

import "testing"

func minimalGraph(n int) *Graph {
	g := &Graph{N: n, Household: NewNeighborMap(), SchoolStandard: NewNeighborMap(), Office: NewNeighborMap(), InterHousehold: NewNeighborMap()}
	g.SchoolSplit[0] = NewNeighborMap()
	g.SchoolSplit[1] = NewNeighborMap()
	return g
}

func TestRunDriver_SelectImmune_Uniform(t *testing.T) {
	graph := minimalGraph(100)
	sim := NewSimulation(graph, DefaultProfile, allZeroSchedules(), TestingConfig{}, nil, nil, nil, 0, false, NewRNG(1))
	rd := &RunDriver{graph: graph}
	spec := PercImmuneSpec{Uniform: true, UniformFrac: 0.2}
	immune := rd.selectImmune(sim, spec, NewRNG(1))
	if l := len(immune); l != 20 {
		t.Errorf(UnequalIntParameterError, "immune count at 20%% uniform", 20, l)
	}
}

func TestRunDriver_SelectImmune_PerHousehold(t *testing.T) {
	household := NewNeighborMap()
	household.AddEdge(0, 1)
	household.AddEdge(2, 3)
	graph := &Graph{N: 4, Household: household, SchoolStandard: NewNeighborMap(), Office: NewNeighborMap(), InterHousehold: NewNeighborMap()}
	graph.SchoolSplit[0] = NewNeighborMap()
	graph.SchoolSplit[1] = NewNeighborMap()

	sim := NewSimulation(graph, DefaultProfile, allZeroSchedules(), TestingConfig{}, nil, nil, nil, 0, false, NewRNG(1))
	rd := &RunDriver{graph: graph}
	spec := PercImmuneSpec{PerPartition: map[string]float64{"households": 0.5}}
	immune := rd.selectImmune(sim, spec, NewRNG(3))

	// Exactly one of the two household clusters must be fully immune or
	// fully non-immune together (cluster members never split).
	if immune[0] != immune[1] {
		t.Error("expected household 0-1 to be immune together")
	}
	if immune[2] != immune[3] {
		t.Error("expected household 2-3 to be immune together")
	}
}

func TestRunDriver_ApplyInitialCohorts_ImmuneAndInfectiousDisjoint(t *testing.T) {
	graph := minimalGraph(50)
	cfg := &Config{Simulation: SimulationConfig{
		PercImmune:         map[string]float64{"uniform": 0.4},
		NumStartInfectious: NumStartInfectiousTOML{Even: 5},
	}}
	rd := &RunDriver{cfg: cfg, profile: DefaultProfile, graph: graph}
	sim := NewSimulation(graph, DefaultProfile, allZeroSchedules(), TestingConfig{}, nil, nil, nil, 0, false, NewRNG(1))

	if err := rd.applyInitialCohorts(sim, NewRNG(7)); err != nil {
		t.Fatal(err)
	}
	recoveredCount := len(sim.State().Members(DefaultProfile.RecoveredCode()))
	if recoveredCount != 20 {
		t.Errorf(UnequalIntParameterError, "initially recovered (immune) count", 20, recoveredCount)
	}
	infectiousCount := 0
	for _, code := range append(append([]int{}, DefaultProfile.ExposedCodes()...), DefaultProfile.InfectiousCodes()...) {
		infectiousCount += len(sim.State().Members(code))
	}
	if infectiousCount != 5 {
		t.Errorf(UnequalIntParameterError, "initially exposed/infectious count", 5, infectiousCount)
	}
}
