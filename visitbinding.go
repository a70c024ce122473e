package epicore

import (
	"math"
	"sort"
)

// VisitBinding is the per-household location-type -> candidate-venues
// mapping from spec.md §4.4/§6: immutable after setup, consumed by the
// round simulator's venue-visit step. Although the real binding is
// produced by an external collaborator, this repo ships a reference
// implementation of the documented selection policy (spec.md §6) so
// the location CSV format and S5/S6-style scenarios are exercised
// end-to-end, grounded on original_source/read_building_csv.py's
// nearest-location computation and random family_house assignment.
type VisitBinding struct {
	byHousehold map[int]map[string][]*Location
}

// Candidates returns the non-empty candidate list for householdID's
// binding at locationType, or nil if the household has no binding
// (e.g. no location CSV was configured).
func (v *VisitBinding) Candidates(householdID int, locationType string) []*Location {
	if v == nil {
		return nil
	}
	byType, ok := v.byHousehold[householdID]
	if !ok {
		return nil
	}
	return byType[locationType]
}

// tagWeightedTypes lists the location types whose selection policy is
// "5 tag-weighted picks; for each picked tag the nearest instance of
// that tag" (spec.md §6: shop, and leisure "same as shop"). Fixed,
// sorted order: each iteration consumes the shared setup RNG, so an
// unordered range here would make the draw-to-type assignment (and
// therefore the resulting bindings) depend on Go's randomized map
// iteration instead of only on the seed, breaking the §5/P7 determinism
// contract. Mirrors the fixed locationTypeOrder used in simulation.go.
var tagWeightedTypes = []string{"leisure", "shop"}

// randomTypes lists the location types whose selection policy is
// "5 uniformly random instances". Fixed, sorted order for the same
// reason as tagWeightedTypes.
var randomTypes = []string{"nightlife", "restaurant"}

const supermarketPicks = 3
const tagWeightedPickCount = 5
const randomPickCount = 5

// BuildVisitBindings parses a location CSV's records into Location
// registry entries plus per-household candidate bindings. households
// is the list of household clusters (NeighborMap.Clusters() of the
// household layer); each cluster's lowest id is its representative key
// into the returned binding, mirroring how the rest of the simulator
// addresses a household by one of its member ids.
func BuildVisitBindings(records []BuildingRecord, households [][]int, rng *RNG) (*VisitBinding, []*Location, error) {
	var houses []BuildingRecord
	byType := make(map[string][]*Location)
	nextID := 0
	for _, rec := range records {
		if rec.Type == "house" {
			houses = append(houses, rec)
			continue
		}
		loc := NewLocation(nextID, rec.Type, rec.Tag, rec.Longitude, rec.Latitude, rec.Sqm)
		nextID++
		byType[rec.Type] = append(byType[rec.Type], loc)
	}

	var allLocations []*Location
	for _, locs := range byType {
		allLocations = append(allLocations, locs...)
	}
	sort.Slice(allLocations, func(i, j int) bool { return allLocations[i].ID < allLocations[j].ID })

	if len(houses) == 0 || len(households) == 0 {
		return nil, allLocations, nil
	}

	// Bind every house to its selection once, then assign each
	// household a random house (spec.md's external collaborator's
	// "family_house" step, reproduced here as a uniform pick with
	// replacement so household count need not match house count).
	houseBindings := make([]map[string][]*Location, len(houses))
	for i, house := range houses {
		houseBindings[i] = bindingForHouse(house, byType, rng)
	}

	binding := &VisitBinding{byHousehold: make(map[int]map[string][]*Location, len(households))}
	for _, cluster := range households {
		if len(cluster) == 0 {
			continue
		}
		key := cluster[0]
		for _, id := range cluster[1:] {
			if id < key {
				key = id
			}
		}
		houseIdx := rng.Intn(len(houses))
		binding.byHousehold[key] = houseBindings[houseIdx]
	}
	return binding, allLocations, nil
}

func bindingForHouse(house BuildingRecord, byType map[string][]*Location, rng *RNG) map[string][]*Location {
	out := make(map[string][]*Location)
	if locs := nearestK(byType["supermarket"], house.Longitude, house.Latitude, supermarketPicks); len(locs) > 0 {
		out["supermarket"] = locs
	}
	for _, typ := range tagWeightedTypes {
		if locs := tagWeightedPicks(byType[typ], house.Longitude, house.Latitude, tagWeightedPickCount, rng); len(locs) > 0 {
			out[typ] = locs
		}
	}
	for _, typ := range randomTypes {
		if locs := randomPicks(byType[typ], randomPickCount, rng); len(locs) > 0 {
			out[typ] = locs
		}
	}
	return out
}

func distance(l *Location, x, y float64) float64 {
	dx, dy := l.X-x, l.Y-y
	return math.Sqrt(dx*dx + dy*dy)
}

// nearestK returns the k closest locations to (x, y), or all of them
// if fewer than k exist.
func nearestK(locs []*Location, x, y float64, k int) []*Location {
	if len(locs) == 0 {
		return nil
	}
	sorted := make([]*Location, len(locs))
	copy(sorted, locs)
	sort.Slice(sorted, func(i, j int) bool { return distance(sorted[i], x, y) < distance(sorted[j], x, y) })
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[:k]
}

// tagWeightedPicks draws k tags proportional to how many locations
// carry that tag, and for each draw returns the nearest instance of
// that tag to (x, y). Tags may repeat across the k picks.
func tagWeightedPicks(locs []*Location, x, y float64, k int, rng *RNG) []*Location {
	if len(locs) == 0 {
		return nil
	}
	tagLocs := make(map[string][]*Location)
	var tags []string
	for _, l := range locs {
		if _, ok := tagLocs[l.Tag]; !ok {
			tags = append(tags, l.Tag)
		}
		tagLocs[l.Tag] = append(tagLocs[l.Tag], l)
	}
	sort.Strings(tags)
	weights := make([]float64, len(tags))
	for i, t := range tags {
		weights[i] = float64(len(tagLocs[t]))
	}

	picks := make([]*Location, 0, k)
	for i := 0; i < k; i++ {
		idx := rng.WeightedChoice(weights)
		if idx < 0 {
			break
		}
		nearest := nearestK(tagLocs[tags[idx]], x, y, 1)
		if len(nearest) > 0 {
			picks = append(picks, nearest[0])
		}
	}
	return picks
}

// randomPicks draws k uniformly random locations with replacement.
func randomPicks(locs []*Location, k int, rng *RNG) []*Location {
	if len(locs) == 0 {
		return nil
	}
	picks := make([]*Location, k)
	ids := make([]int, len(locs))
	for i := range locs {
		ids[i] = i
	}
	for i := 0; i < k; i++ {
		picks[i] = locs[rng.Choice(ids)]
	}
	return picks
}
