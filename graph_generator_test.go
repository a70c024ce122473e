package epicore

import "testing"

func TestGenerateGraph_RejectsOutOfRangeParameters(t *testing.T) {
	rng := NewRNG(1)
	if _, err := GenerateGraph(1000, 0, 0.5, rng); err == nil {
		t.Error("expected ConfigError for sigma_office == 0")
	}
	if _, err := GenerateGraph(1000, 0.1, 1.5, rng); err == nil {
		t.Error("expected ConfigError for p_split > 1")
	}
}

func TestGenerateGraph_RejectsTooSmallPopulation(t *testing.T) {
	rng := NewRNG(1)
	if _, err := GenerateGraph(1, 0.1, 0.5, rng); err == nil {
		t.Error("expected ConfigError for a population too small to pair")
	}
}

func TestGenerateGraph_LayersAreSymmetricAndSelfLoopFree(t *testing.T) {
	rng := NewRNG(7)
	g, err := GenerateGraph(2000, 0.2, 0.3, rng)
	if err != nil {
		t.Fatal(err)
	}
	layers := []NeighborMap{g.Household, g.SchoolStandard, g.SchoolSplit[0], g.SchoolSplit[1], g.Office, g.InterHousehold}
	for i, layer := range layers {
		if err := layer.Validate(); err != nil {
			t.Errorf("layer %d failed validation: %s", i, err)
		}
	}
}

func TestGenerateGraph_PopulationIDsAreDense(t *testing.T) {
	rng := NewRNG(7)
	g, err := GenerateGraph(2000, 0.2, 0.3, rng)
	if err != nil {
		t.Fatal(err)
	}
	if g.N <= 0 {
		t.Errorf("expected a positive population size, instead got %d", g.N)
	}
	maxID := -1
	for _, m := range []NeighborMap{g.Household, g.SchoolStandard, g.Office, g.InterHousehold} {
		for id, nbrs := range m {
			if id > maxID {
				maxID = id
			}
			for nbr := range nbrs {
				if nbr > maxID {
					maxID = nbr
				}
			}
		}
	}
	if maxID >= g.N {
		t.Errorf(UnequalIntParameterError, "max referenced id should be < N", g.N-1, maxID)
	}
}

func TestGenerateGraph_HouseholdClustersAreCliquesOrStars(t *testing.T) {
	rng := NewRNG(7)
	g, err := GenerateGraph(2000, 0.2, 0.3, rng)
	if err != nil {
		t.Fatal(err)
	}
	for _, cluster := range g.Household.Clusters() {
		if len(cluster) < 1 {
			t.Error("expected every household cluster to be nonempty")
		}
		hubs, leaves := 0, 0
		for _, id := range cluster {
			switch deg := len(g.Household[id]); {
			case deg == len(cluster)-1:
				hubs++
			case deg == 1:
				leaves++
			}
		}
		if hubs != len(cluster) && !(hubs == 1 && leaves == len(cluster)-1) {
			t.Errorf("household cluster %v is neither a clique nor a star", cluster)
		}
	}
}

func TestGenerateGraph_DeterministicGivenSeed(t *testing.T) {
	g1, err := GenerateGraph(1500, 0.2, 0.3, NewRNG(42))
	if err != nil {
		t.Fatal(err)
	}
	g2, err := GenerateGraph(1500, 0.2, 0.3, NewRNG(42))
	if err != nil {
		t.Fatal(err)
	}
	if g1.N != g2.N {
		t.Errorf(UnequalIntParameterError, "N across identical seeds", g1.N, g2.N)
	}
	if len(g1.Household) != len(g2.Household) {
		t.Errorf(UnequalIntParameterError, "household key count across identical seeds", len(g1.Household), len(g2.Household))
	}
}
