package epicore

import (
	"math"
	"sort"
)

// Graph is the output of GenerateGraph: the five static contact layers
// described in spec.md §3, reindexed to dense ids 0..N-1.
type Graph struct {
	N              int
	Household      NeighborMap
	SchoolStandard NeighborMap
	SchoolSplit    [2]NeighborMap
	Office         NeighborMap
	InterHousehold NeighborMap
}

// idLedger tracks every id ever created during generation, in creation
// order, along with whether it is still live. The final re-id pass
// (spec.md §4.2 "Re-id pass") walks the live ids in creation order to
// assign dense ids 0..N-1 — this mirrors the Python original's reliance
// on dict insertion order for self.nodes.
type idLedger struct {
	order []int
	live  map[int]bool
	next  int
}

func newIDLedger(initial int) *idLedger {
	l := &idLedger{live: make(map[int]bool, initial*2), next: initial}
	for i := 0; i < initial; i++ {
		l.order = append(l.order, i)
		l.live[i] = true
	}
	return l
}

func (l *idLedger) remove(id int) { l.live[id] = false }

func (l *idLedger) add() int {
	id := l.next
	l.next++
	l.order = append(l.order, id)
	l.live[id] = true
	return id
}

func (l *idLedger) liveOrder() []int {
	out := make([]int, 0, len(l.order))
	for _, id := range l.order {
		if l.live[id] {
			out = append(out, id)
		}
	}
	return out
}

// GenerateGraph constructs the five neighbor maps with the statistical
// shapes described in spec.md §4.2, following
// original_source/gengraph.py's EpsimGraph.create_graph pipeline
// (pairing, geometric-bucket household merge, parent duplication,
// singles, pairs, a parity-masked 5x5 school grid, and a
// capped-geometric office clustering), re-expressed as a sequence of
// named steps over NeighborMap instead of Python's raw dict-of-sets.
func GenerateGraph(n int, sigmaOffice, pSplit float64, rng *RNG) (*Graph, error) {
	if sigmaOffice <= 0 || sigmaOffice > 0.5 {
		return nil, newConfigError("sigma_office %f out of range (0, 0.5]", sigmaOffice)
	}
	if pSplit < 0 || pSplit > 1 {
		return nil, newConfigError("p_split %f out of range [0, 1]", pSplit)
	}

	nParentsChildren := int(float64(n) * 0.55)
	k := int(float64(nParentsChildren) / 2.386296) // empirical constant, see spec.md §4.2
	if k == 0 {
		return nil, newConfigError("population %d too small to generate a graph", n)
	}

	ledger := newIDLedger(2 * k)
	household := NewNeighborMap()
	childNodes := make(map[int]bool, k)
	for i := 0; i < k; i++ {
		childNodes[i] = true
	}
	adultNodes := make(map[int]bool, k)
	for i := k; i < 2*k; i++ {
		adultNodes[i] = true
	}

	pairChildrenAndParents(household, childNodes, adultNodes, rng)
	mergeHouseholdBuckets(household, adultNodes, ledger, rng)
	duplicateParents(household, adultNodes, ledger, rng)

	// children_parent_nodes: every id with a household entry before
	// singles/pairs are introduced.
	relativePool := household.Keys()

	interHousehold := NewNeighborMap()
	addAdultSingles(n, household, interHousehold, adultNodes, ledger, relativePool, rng)
	addAdultPairs(n, household, interHousehold, adultNodes, ledger, relativePool, rng)

	schoolStandard, schoolSplit := buildSchoolGrids(childNodes, pSplit, rng)
	office := clusterOffices(adultNodes, sigmaOffice, rng)

	order := ledger.liveOrder()
	old2new := make(map[int]int, len(order))
	for i, id := range order {
		old2new[id] = i
	}

	g := &Graph{
		N:              len(order),
		Household:      reindex(household, old2new),
		SchoolStandard: reindex(schoolStandard, old2new),
		Office:         reindex(office, old2new),
		InterHousehold: reindex(interHousehold, old2new),
	}
	g.SchoolSplit[0] = reindex(schoolSplit[0], old2new)
	g.SchoolSplit[1] = reindex(schoolSplit[1], old2new)
	return g, nil
}

func reindex(m NeighborMap, old2new map[int]int) NeighborMap {
	out := NewNeighborMap()
	for id := range m {
		out.Ensure(old2new[id])
	}
	for id, nbrs := range m {
		a := old2new[id]
		for nbr := range nbrs {
			out[a][old2new[nbr]] = struct{}{}
		}
	}
	return out
}

// pairChildrenAndParents shuffles the adult ids and zips them with
// children 0..k-1, each pair yielding a reciprocal household edge.
func pairChildrenAndParents(household NeighborMap, childNodes, adultNodes map[int]bool, rng *RNG) {
	adults := setKeysSorted(adultNodes)
	rng.Shuffle(adults)
	children := setKeysSorted(childNodes)
	for i, child := range children {
		parent := adults[i]
		household.AddEdge(child, parent)
	}
}

// mergeHouseholdBuckets partitions shuffled adults into geometric
// buckets halving in size; bucket 0 is kept nuclear, bucket j>=1 is
// chunked into groups of size j+1, collapsing each group into its
// first id.
func mergeHouseholdBuckets(household NeighborMap, adultNodes map[int]bool, ledger *idLedger, rng *RNG) {
	adults := setKeysSorted(adultNodes)
	rng.Shuffle(adults)
	total := len(adults)

	var buckets [][]int
	divisor := 2
	lenSum := 0
	for lenSum < total {
		size := int(math.Ceil(float64(total) / float64(divisor)))
		end := lenSum + size
		if end > total {
			end = total
		}
		bucket := adults[lenSum:end]
		buckets = append(buckets, bucket)
		lenSum += len(bucket)
		divisor *= 2
		if len(bucket) == 0 {
			break
		}
	}

	mergeSize := 2
	for _, bucket := range buckets[1:] {
		for start := 0; start < len(bucket); start += mergeSize {
			end := start + mergeSize
			if end > len(bucket) {
				end = len(bucket)
			}
			chunk := bucket[start:end]
			if len(chunk) > 1 {
				mergeHouseholds(household, chunk[0], chunk[1:], adultNodes, ledger)
			}
		}
		mergeSize++
	}
}

// mergeHouseholds collapses the household clusters of `others` into
// kept's cluster, forming one clique over their union and discarding
// each `other` id. Equivalent to (and grounded on) the original's
// merge_parents, which rewires neighbor sets node by node to the same
// effect.
func mergeHouseholds(household NeighborMap, kept int, others []int, adultNodes map[int]bool, ledger *idLedger) {
	members := map[int]bool{kept: true}
	for _, nbr := range household.Neighbors(kept) {
		members[nbr] = true
	}
	for _, other := range others {
		members[other] = true
		for _, nbr := range household.Neighbors(other) {
			members[nbr] = true
		}
	}
	for _, other := range others {
		for _, nbr := range household.Neighbors(other) {
			household.RemoveEdge(other, nbr)
		}
		delete(household, other)
		delete(members, other)
		adultNodes[other] = false
		ledger.remove(other)
	}
	ids := make([]int, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			household.AddEdge(a, b)
		}
	}
}

// duplicateParents introduces, for every surviving adult id, a
// duplicate node that inherits all of the original's household edges
// and gains an edge to the original — i.e. it joins the original's
// household clique.
func duplicateParents(household NeighborMap, adultNodes map[int]bool, ledger *idLedger, rng *RNG) {
	originals := setKeysSorted(adultNodes)
	for _, original := range originals {
		dup := ledger.add()
		adultNodes[dup] = true
		household.Ensure(dup)
		household.AddEdge(dup, original)
		for _, nbr := range household.Neighbors(original) {
			if nbr != dup {
				household.AddEdge(dup, nbr)
			}
		}
	}
}

// addAdultSingles appends isolated-household adult ids, each linked
// by a reciprocal inter-household edge to every member of a randomly
// chosen existing household.
func addAdultSingles(n int, household, interHousehold NeighborMap, adultNodes map[int]bool, ledger *idLedger, relativePool []int, rng *RNG) {
	numSingles := int(float64(n) * 0.17)
	for i := 0; i < numSingles; i++ {
		id := ledger.add()
		adultNodes[id] = true
		household.Ensure(id)
		relNode := rng.Choice(relativePool)
		linkInterHousehold(household, interHousehold, id, relNode)
	}
}

// addAdultPairs appends reciprocal household pairs of new adult ids,
// each pair linked by inter-household edges to a randomly chosen
// existing household.
func addAdultPairs(n int, household, interHousehold NeighborMap, adultNodes map[int]bool, ledger *idLedger, relativePool []int, rng *RNG) {
	numPairs := int(float64(n) * 0.28 / 2)
	for i := 0; i < numPairs; i++ {
		a := ledger.add()
		b := ledger.add()
		adultNodes[a] = true
		adultNodes[b] = true
		household.AddEdge(a, b)
		relNode := rng.Choice(relativePool)
		linkInterHousehold(household, interHousehold, a, relNode)
		linkInterHousehold(household, interHousehold, b, relNode)
	}
}

// linkInterHousehold adds a reciprocal inter-household edge between id
// and every member of relNode's household (relNode plus its household
// neighbors). Implemented as a union of edges (NeighborMap.AddEdge),
// not the Python original's last-writer-wins assignment, so the
// household-symmetry invariant (spec.md P4) holds even when two
// singles/pairs pick into the same household.
func linkInterHousehold(household, interHousehold NeighborMap, id, relNode int) {
	interHousehold.Ensure(id)
	interHousehold.AddEdge(id, relNode)
	for _, rel := range household.Neighbors(relNode) {
		interHousehold.AddEdge(id, rel)
	}
}

// buildSchoolGrids shuffles children into blocks of 25 and lays each
// block out as a 5x5 grid with 8-neighborhood connectivity, optionally
// masked by cell parity to produce split-class pairs. A fraction
// pSplit of blocks become split pairs; the remainder become standard
// classes.
func buildSchoolGrids(childNodes map[int]bool, pSplit float64, rng *RNG) (NeighborMap, [2]NeighborMap) {
	const l = 5
	children := setKeysSorted(childNodes)
	rng.Shuffle(children)

	var blocks [][]int
	for i := 0; i+l*l <= len(children); i += l * l {
		blocks = append(blocks, children[i:i+l*l])
	}

	brkpnt := int(float64(len(blocks)) * pSplit)
	var split [2]NeighborMap
	split[0] = makeGrid(0, blocks[:brkpnt])
	split[1] = makeGrid(1, blocks[:brkpnt])
	standard := makeGrid(2, blocks[brkpnt:])
	return standard, split
}

// makeGrid lays each 25-element block out as a 5x5 grid, connecting
// every cell to its 8-neighborhood, and drops any cell (and excludes
// any neighbor) whose (row+col) parity equals skip. skip=2 never
// matches, leaving the grid unmasked.
func makeGrid(skip int, blocks [][]int) NeighborMap {
	const l = 5
	m := NewNeighborMap()
	for _, block := range blocks {
		grid := [l][l]int{}
		for idx, id := range block {
			grid[idx/l][idx%l] = id
		}
		include := func(i, j int) bool { return (i+j)%2 != skip }
		for i := 0; i < l; i++ {
			for j := 0; j < l; j++ {
				if !include(i, j) {
					continue
				}
				node := grid[i][j]
				m.Ensure(node)
				for di := -1; di <= 1; di++ {
					for dj := -1; dj <= 1; dj++ {
						if di == 0 && dj == 0 {
							continue
						}
						ni, nj := i+di, j+dj
						if ni < 0 || ni >= l || nj < 0 || nj >= l {
							continue
						}
						if !include(ni, nj) {
							continue
						}
						m.AddEdge(node, grid[ni][nj])
					}
				}
			}
		}
	}
	return m
}

// clusterOffices shuffles adults; a fraction (1-sigma) become isolated
// solo workers, and the remaining sigma is partitioned into halving
// geometric buckets (sigma/2, /4, /8, /16) plus one bucket for whatever
// is left. Bucket j is chunked into cliques of size j+2, so cluster
// sizes run from 2 up to 6.
func clusterOffices(adultNodes map[int]bool, sigma float64, rng *RNG) NeighborMap {
	m := NewNeighborMap()
	adults := setKeysSorted(adultNodes)
	rng.Shuffle(adults)
	total := len(adults)

	isolatedSize := int(math.Ceil(float64(total) * (1 - sigma)))
	if isolatedSize > total {
		isolatedSize = total
	}
	for _, id := range adults[:isolatedSize] {
		m.Ensure(id)
	}

	var buckets [][]int
	divisor := 2
	const cap_ = 16
	lenSum := isolatedSize
	for lenSum < total {
		size := int(math.Ceil(float64(total) * sigma / float64(divisor)))
		end := lenSum + size
		if end > total {
			end = total
		}
		bucket := adults[lenSum:end]
		buckets = append(buckets, bucket)
		lenSum += len(bucket)
		divisor *= 2
		if divisor > cap_ {
			if lenSum < total {
				buckets = append(buckets, adults[lenSum:])
			}
			break
		}
		if len(bucket) == 0 {
			break
		}
	}

	clusterSize := 2
	for _, bucket := range buckets {
		for start := 0; start < len(bucket); start += clusterSize {
			end := start + clusterSize
			if end > len(bucket) {
				end = len(bucket)
			}
			chunk := bucket[start:end]
			for _, id := range chunk {
				m.Ensure(id)
			}
			for i, a := range chunk {
				for _, b := range chunk[i+1:] {
					m.AddEdge(a, b)
				}
			}
		}
		clusterSize++
	}
	return m
}

func setKeysSorted(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for id, live := range set {
		if live {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}
