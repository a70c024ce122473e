package epicore

import "testing"

func TestQuarantineLedger_PlaceIdempotent(t *testing.T) {
	q := NewQuarantineLedger()
	if !q.Place(1) {
		t.Error("expected first Place to report newly placed")
	}
	if q.Place(1) {
		t.Error("expected second Place on same id to report false")
	}
	if l := q.Len(); l != 1 {
		t.Errorf(UnequalIntParameterError, "ledger length", 1, l)
	}
}

func TestQuarantineLedger_ExpireAtLimit(t *testing.T) {
	q := NewQuarantineLedger()
	q.Place(1)
	for i := 0; i < quarantineLimit-1; i++ {
		q.Tick()
		if released := q.Expire(); len(released) != 0 {
			t.Errorf(UnequalIntParameterError, "released count before limit", 0, len(released))
		}
	}
	q.Tick()
	released := q.Expire()
	if len(released) != 1 || released[0] != 1 {
		t.Errorf(UnequalIntParameterError, "released count at limit", 1, len(released))
	}
	if q.Quarantined(1) {
		t.Error("expected agent 1 to be released after 10 ticks")
	}
}

func TestQuarantineLedger_ExpireThenTickDoesNotDoubleCount(t *testing.T) {
	q := NewQuarantineLedger()
	q.Place(2)
	for i := 0; i < quarantineLimit; i++ {
		q.Tick()
	}
	q.Expire()
	q.Tick()
	if q.Quarantined(2) {
		t.Error("expected agent 2 released")
	}
	q.Place(2)
	if c := q.counter[2]; c != 0 {
		t.Errorf(UnequalIntParameterError, "counter after re-placement", 0, c)
	}
}
