package epicore

import "sort"

// NeighborMap is a keys-dense mapping from an agent id to the set of
// agent ids it is directly connected to. Six instances of NeighborMap
// model the static contact layers: household, school-standard,
// school-split[0], school-split[1], office, and inter-household.
//
// Symmetry invariant: if b is in m[a] then a is in m[b]; no self-loops.
// This generalizes a weighted directed adjacency map to an unweighted
// symmetric one, since every contact layer in this domain is a plain
// reciprocal relation.
type NeighborMap map[int]map[int]struct{}

// NewNeighborMap creates an empty NeighborMap.
func NewNeighborMap() NeighborMap {
	return make(NeighborMap)
}

// Contains reports whether id has any entry in the map (even an empty
// neighbor set counts as present — an isolated office worker still has
// a key with zero neighbors).
func (m NeighborMap) Contains(id int) bool {
	_, ok := m[id]
	return ok
}

// Neighbors returns the neighbor ids of id, or nil if id is absent.
func (m NeighborMap) Neighbors(id int) []int {
	nbrs, ok := m[id]
	if !ok {
		return nil
	}
	out := make([]int, 0, len(nbrs))
	for nbr := range nbrs {
		out = append(out, nbr)
	}
	sort.Ints(out)
	return out
}

// Ensure makes sure id has an entry (possibly with zero neighbors),
// without touching any existing neighbors.
func (m NeighborMap) Ensure(id int) {
	if _, ok := m[id]; !ok {
		m[id] = make(map[int]struct{})
	}
}

// AddEdge adds the reciprocal edge a-b. Returns a GraphError if a == b.
func (m NeighborMap) AddEdge(a, b int) error {
	if a == b {
		return newGraphError(SelfLoopError, a)
	}
	m.Ensure(a)
	m.Ensure(b)
	m[a][b] = struct{}{}
	m[b][a] = struct{}{}
	return nil
}

// RemoveEdge removes the reciprocal edge a-b if present.
func (m NeighborMap) RemoveEdge(a, b int) {
	delete(m[a], b)
	delete(m[b], a)
}

// Keys returns every id with an entry in the map, sorted ascending.
// Ascending order keeps iteration deterministic for P7-style replay.
func (m NeighborMap) Keys() []int {
	out := make([]int, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// IntersectKeys returns the ids in `set` that are also keys of m, in
// ascending order. This is the "for a in infectious if a in office_keys"
// loop form, preferred over materializing
// two full sets and intersecting them when `set` is small relative to m.
func (m NeighborMap) IntersectKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for id := range set {
		if m.Contains(id) {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// SubtractKeys returns the ids in `set` that are NOT keys of m.
func (m NeighborMap) SubtractKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for id := range set {
		if !m.Contains(id) {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// Validate checks the symmetry invariant and the absence of self-loops.
// It is called once per loaded neighbor map, before round 0, per the
// fail-fast GraphInconsistent error kind.
func (m NeighborMap) Validate() error {
	for a, nbrs := range m {
		for b := range nbrs {
			if a == b {
				return newGraphError(SelfLoopError, a)
			}
			if _, ok := m[b][a]; !ok {
				return newGraphError(AsymmetricEdgeError, a, b, b, a)
			}
		}
	}
	return nil
}

// ValidateRange checks that every id m references, as a key or as a
// neighbor, is within the declared population [0, n). The household
// neighbor map is the population-defining layer (spec.md §6: one line
// per agent, covering every id), so every other layer is checked
// against its size before round 0, per spec.md §7's GraphInconsistent
// "agent id out of range" error kind.
func (m NeighborMap) ValidateRange(n int) error {
	for a, nbrs := range m {
		if a < 0 || a >= n {
			return newGraphError(AgentOutOfRangeError, a, n)
		}
		for b := range nbrs {
			if b < 0 || b >= n {
				return newGraphError(AgentOutOfRangeError, b, n)
			}
		}
	}
	return nil
}

// Clusters partitions the map into its connected components, each
// returned as a sorted slice of ids. Used to precompute Household
// clusters once at graph-load time (spec.md §3 "Household").
// Grounded on the original Python's determine_clusters, generalized
// from "node + sorted(direct neighbors)" (valid only because households
// in this domain form cliques/stars, never longer chains) to a proper
// BFS so the same helper is safe to reuse for any symmetric map.
func (m NeighborMap) Clusters() [][]int {
	visited := make(map[int]bool, len(m))
	var clusters [][]int
	ids := m.Keys()
	for _, start := range ids {
		if visited[start] {
			continue
		}
		var cluster []int
		queue := []int{start}
		visited[start] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			cluster = append(cluster, id)
			for _, nbr := range m.Neighbors(id) {
				if !visited[nbr] {
					visited[nbr] = true
					queue = append(queue, nbr)
				}
			}
		}
		sort.Ints(cluster)
		clusters = append(clusters, cluster)
	}
	return clusters
}
