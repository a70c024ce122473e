package epicore

import "testing"

func sampleBuildingRecords() []BuildingRecord {
	return []BuildingRecord{
		{Type: "house", Longitude: 0, Latitude: 0},
		{Type: "supermarket", Tag: "big", Longitude: 0.1, Latitude: 0, Sqm: 500},
		{Type: "supermarket", Tag: "small", Longitude: 5, Latitude: 5, Sqm: 80},
		{Type: "shop", Tag: "bakery", Longitude: 0.2, Latitude: 0, Sqm: 40},
		{Type: "shop", Tag: "bakery", Longitude: 0.3, Latitude: 0, Sqm: 40},
		{Type: "shop", Tag: "butcher", Longitude: 0.4, Latitude: 0, Sqm: 40},
		{Type: "restaurant", Tag: "diner", Longitude: 0.1, Latitude: 0.1, Sqm: 100},
		{Type: "nightlife", Tag: "club", Longitude: 0.1, Latitude: 0.1, Sqm: 200},
	}
}

func TestBuildVisitBindings_NearestSupermarketPicked(t *testing.T) {
	records := sampleBuildingRecords()
	households := [][]int{{0, 1}}
	binding, locations, err := BuildVisitBindings(records, households, NewRNG(1))
	if err != nil {
		t.Fatal(err)
	}
	if l := len(locations); l != 7 {
		t.Errorf(UnequalIntParameterError, "non-house location count", 7, l)
	}
	candidates := binding.Candidates(0, "supermarket")
	if len(candidates) == 0 {
		t.Fatal("expected at least one supermarket candidate")
	}
	if candidates[0].Tag != "big" {
		t.Errorf(UnequalStringParameterError, "nearest supermarket tag", "big", candidates[0].Tag)
	}
}

func TestBuildVisitBindings_NoHousesYieldsNilBinding(t *testing.T) {
	records := []BuildingRecord{{Type: "supermarket", Longitude: 0, Latitude: 0, Sqm: 100}}
	binding, _, err := BuildVisitBindings(records, [][]int{{0}}, NewRNG(1))
	if err != nil {
		t.Fatal(err)
	}
	if binding != nil {
		t.Error("expected nil binding when no houses are present in the CSV")
	}
}

func TestVisitBinding_Candidates_NilSafe(t *testing.T) {
	var binding *VisitBinding
	if c := binding.Candidates(0, "shop"); c != nil {
		t.Error("expected nil candidates from a nil VisitBinding")
	}
}

func TestNearestK_ReturnsFewerThanKWhenPoolIsSmall(t *testing.T) {
	locs := []*Location{NewLocation(0, "shop", "a", 0, 0, 10)}
	out := nearestK(locs, 0, 0, 5)
	if len(out) != 1 {
		t.Errorf(UnequalIntParameterError, "nearestK result size", 1, len(out))
	}
}
