package epicore

import "testing"

func TestDiseaseProfile_DefaultShape(t *testing.T) {
	p := DefaultProfile
	if n := p.NumSubstates(); n != 7 {
		t.Errorf(UnequalIntParameterError, "num substates", 7, n)
	}
	if c := p.RecoveredCode(); c != 6 {
		t.Errorf(UnequalIntParameterError, "recovered code", 6, c)
	}
	if codes := p.ExposedCodes(); len(codes) != 3 || codes[0] != 1 {
		t.Errorf(UnequalStringParameterError, "exposed codes", "[1 2 3]", "mismatch")
	}
	if codes := p.InfectiousCodes(); len(codes) != 2 || codes[0] != 4 {
		t.Errorf(UnequalStringParameterError, "infectious codes", "[4 5]", "mismatch")
	}
}

func TestDiseaseProfile_ShortIncubationSkipsExposed(t *testing.T) {
	p := ShortIncubationProfile
	if f := p.FirstInfectedCode(); f != 1 {
		t.Errorf(UnequalIntParameterError, "first infected code", 1, f)
	}
	if !p.IsInfectious(1) {
		t.Error("expected code 1 to be infectious under short incubation")
	}
	if code, ok := p.SecondInfectiousSubstate(); !ok || code != 2 {
		t.Errorf(UnequalIntParameterError, "second infectious substate", 2, code)
	}
}

func TestDiseaseProfile_AdvanceReachesRecovered(t *testing.T) {
	p := DefaultProfile
	code := p.FirstInfectedCode()
	for i := 0; i < p.NumExposed+p.NumInfectious-1; i++ {
		code = p.Advance(code)
	}
	if code != p.RecoveredCode()-1 {
		t.Errorf(UnequalIntParameterError, "code before final advance", p.RecoveredCode()-1, code)
	}
	code = p.Advance(code)
	if code != p.RecoveredCode() {
		t.Errorf(UnequalIntParameterError, "code after final advance", p.RecoveredCode(), code)
	}
}

func TestStatePartition_MoveAndMembers(t *testing.T) {
	sp := NewStatePartition(DefaultProfile, 5)
	if m := sp.Members(susceptibleCode); len(m) != 5 {
		t.Errorf(UnequalIntParameterError, "initial susceptible count", 5, len(m))
	}
	sp.Move(2, sp.Profile().FirstInfectedCode())
	if !sp.IsExposedOrInfectious(2) {
		t.Error("expected agent 2 to be exposed or infectious")
	}
	if s := sp.Members(susceptibleCode); len(s) != 4 {
		t.Errorf(UnequalIntParameterError, "susceptible count after move", 4, len(s))
	}
	if !sp.AnyExposedOrInfectious() {
		t.Error("expected AnyExposedOrInfectious to be true")
	}
}

func TestStatePartition_AdvanceAll(t *testing.T) {
	sp := NewStatePartition(ShortIncubationProfile, 2)
	sp.Move(0, sp.Profile().FirstInfectedCode())
	sp.AdvanceAll()
	if code := sp.CodeOf(0); code != 2 {
		t.Errorf(UnequalIntParameterError, "code after one advance", 2, code)
	}
	sp.AdvanceAll()
	if !sp.IsRecovered(0) {
		t.Error("expected agent 0 recovered after exhausting infectious substates")
	}
	if sp.AnyExposedOrInfectious() {
		t.Error("expected no exposed/infectious agents remaining")
	}
}

func TestStatePartition_PopulationsSumsToN(t *testing.T) {
	sp := NewStatePartition(DefaultProfile, 10)
	sp.Move(0, 1)
	sp.Move(1, 4)
	total := 0
	for _, c := range sp.Populations() {
		total += c
	}
	if total != 10 {
		t.Errorf(UnequalIntParameterError, "population total", 10, total)
	}
}
