package epicore

import "testing"

func TestLocation_RegisterVisit_QuarantinedNeverContributes(t *testing.T) {
	loc := NewLocation(0, "shop", "grocer", 0, 0, 13)
	cfg := LocationTypeConfig{AvgVisitTime: 60, NeedMinutes: 420, ContactMult: 0.25}
	rng := NewRNG(1)
	// need_minutes/(avg_visit_time*7) = 1.0, so the visit always happens
	// when not gated by quarantine.
	loc.RegisterVisit(1, true, false, true, cfg, rng)
	if loc.infecMinutes != 0 {
		t.Errorf(UnequalFloatParameterError, "infec minutes from quarantined infectious visitor", 0, loc.infecMinutes)
	}
}

func TestLocation_RegisterVisit_InfectiousAccruesMinutes(t *testing.T) {
	loc := NewLocation(0, "shop", "grocer", 0, 0, 13)
	cfg := LocationTypeConfig{AvgVisitTime: 60, NeedMinutes: 420, ContactMult: 0.25}
	rng := NewRNG(1)
	loc.RegisterVisit(1, false, false, true, cfg, rng)
	if loc.infecMinutes != 60 {
		t.Errorf(UnequalFloatParameterError, "infec minutes", 60, loc.infecMinutes)
	}
}

func TestLocation_RegisterVisit_SusceptibleQueuesVisit(t *testing.T) {
	loc := NewLocation(0, "shop", "grocer", 0, 0, 13)
	cfg := LocationTypeConfig{AvgVisitTime: 60, NeedMinutes: 420, ContactMult: 0.25}
	rng := NewRNG(1)
	loc.RegisterVisit(2, false, true, false, cfg, rng)
	if l := len(loc.visits); l != 1 {
		t.Errorf(UnequalIntParameterError, "queued visit count", 1, l)
	}
}

func TestLocation_Spread_CertainInfectionAtUnitBaseRate(t *testing.T) {
	loc := NewLocation(0, "shop", "grocer", 0, 0, 13)
	cfg := LocationTypeConfig{ContactMult: 1}
	// Chosen so base_rate = ContactMult * (locInfecRate/referenceContactMinutes)
	// * (1/minutesOpen) * (infecMinutes/sqm) reduces to exactly 1, and the
	// single visit contributes exactly 1 minute, making the Bernoulli draw
	// certain (p=1).
	loc.Sqm = 13
	loc.infecMinutes = minutesOpen * 13
	loc.visits = []visitRecord{{agent: 1, minutes: 1}}
	rng := NewRNG(1)
	susceptibleNow := func(int) bool { return true }
	infected := loc.Spread(cfg, referenceContactMinutes, susceptibleNow, rng)
	if len(infected) != 1 || infected[0] != 1 {
		t.Errorf(UnequalIntParameterError, "infected count at unit base rate", 1, len(infected))
	}
}

func TestLocation_Spread_ClearsAccumulators(t *testing.T) {
	loc := NewLocation(0, "shop", "grocer", 0, 0, 13)
	cfg := LocationTypeConfig{AvgVisitTime: 60, NeedMinutes: 420, ContactMult: 0.25}
	loc.infecMinutes = 120
	loc.visits = []visitRecord{{agent: 1, minutes: 60}}
	rng := NewRNG(1)
	susceptibleNow := func(int) bool { return true }
	loc.Spread(cfg, 0.07, susceptibleNow, rng)
	if loc.infecMinutes != 0 {
		t.Errorf(UnequalFloatParameterError, "infec minutes after spread", 0, loc.infecMinutes)
	}
	if len(loc.visits) != 0 {
		t.Errorf(UnequalIntParameterError, "queued visits after spread", 0, len(loc.visits))
	}
}

func TestLocation_Spread_SkipsAgentsInfectedElsewhereThisRound(t *testing.T) {
	loc := NewLocation(0, "shop", "grocer", 0, 0, 13)
	cfg := LocationTypeConfig{AvgVisitTime: 60, NeedMinutes: 420, ContactMult: 1}
	loc.infecMinutes = 10000
	loc.visits = []visitRecord{{agent: 1, minutes: 60}}
	rng := NewRNG(1)
	susceptibleNow := func(int) bool { return false }
	infected := loc.Spread(cfg, 0.07, susceptibleNow, rng)
	if len(infected) != 0 {
		t.Errorf(UnequalIntParameterError, "infections for an already-infected visitor", 0, len(infected))
	}
}
