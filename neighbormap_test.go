package epicore

import "testing"

func TestNeighborMap_AddEdge(t *testing.T) {
	m := NewNeighborMap()
	if err := m.AddEdge(1, 2); err != nil {
		t.Error(err)
	}
	if !m.Contains(1) || !m.Contains(2) {
		t.Errorf(UnequalStringParameterError, "membership", "both 1 and 2 present", "one or both missing")
	}
	if err := m.AddEdge(3, 3); err == nil {
		t.Error("expected SelfLoopError, got nil")
	}
}

func TestNeighborMap_Validate(t *testing.T) {
	m := NewNeighborMap()
	m.AddEdge(1, 2)
	if err := m.Validate(); err != nil {
		t.Error(err)
	}
	// Break symmetry directly.
	delete(m[2], 1)
	if err := m.Validate(); err == nil {
		t.Error("expected AsymmetricEdgeError, got nil")
	}
}

func TestNeighborMap_Clusters(t *testing.T) {
	m := NewNeighborMap()
	m.AddEdge(0, 1)
	m.AddEdge(1, 2)
	m.Ensure(5)
	clusters := m.Clusters()
	if l := len(clusters); l != 2 {
		t.Errorf(UnequalIntParameterError, "number of clusters", 2, l)
	}
	if l := len(clusters[0]); l != 3 {
		t.Errorf(UnequalIntParameterError, "size of first cluster", 3, l)
	}
}

func TestNeighborMap_IntersectKeysSubtractKeys(t *testing.T) {
	m := NewNeighborMap()
	m.Ensure(1)
	m.Ensure(2)
	set := map[int]struct{}{1: {}, 2: {}, 3: {}}
	inter := m.IntersectKeys(set)
	if l := len(inter); l != 2 {
		t.Errorf(UnequalIntParameterError, "intersection size", 2, l)
	}
	sub := m.SubtractKeys(set)
	if l := len(sub); l != 1 || sub[0] != 3 {
		t.Errorf(UnequalIntParameterError, "subtraction size", 1, l)
	}
}
