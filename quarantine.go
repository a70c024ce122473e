package epicore

import "sort"

const quarantineLimit = 10

// QuarantineLedger maps a quarantined agent id to its day counter
// (spec.md §3 "Quarantine ledger"): entry present means quarantined.
// Tick can raise a counter to 10; Expire removes such an entry at the
// start of the next round. An agent quarantined for exactly 10 consecutive
// rounds is released at the start of the following round (I3).
type QuarantineLedger struct {
	counter map[int]int
}

func NewQuarantineLedger() *QuarantineLedger {
	return &QuarantineLedger{counter: make(map[int]int)}
}

// Quarantined reports whether id currently has an entry.
func (q *QuarantineLedger) Quarantined(id int) bool {
	_, ok := q.counter[id]
	return ok
}

// Place adds id to the ledger with counter 0, or is a no-op if id is
// already quarantined (re-detecting an already-quarantined agent must
// not reset its release clock). Reports whether id was newly placed.
func (q *QuarantineLedger) Place(id int) bool {
	if _, ok := q.counter[id]; ok {
		return false
	}
	q.counter[id] = 0
	return true
}

// Expire removes every entry whose counter has reached the limit,
// returning the released ids in ascending order. Called at spec.md
// §4.5 step 5, before cohorts are split into quarantined/free.
func (q *QuarantineLedger) Expire() []int {
	var released []int
	for id, c := range q.counter {
		if c >= quarantineLimit {
			released = append(released, id)
		}
	}
	sort.Ints(released)
	for _, id := range released {
		delete(q.counter, id)
	}
	return released
}

// Tick increments every current entry's counter by one (spec.md §4.5
// step 14). Must run after Expire in the same round so a just-released
// id isn't immediately re-counted.
func (q *QuarantineLedger) Tick() {
	for id := range q.counter {
		q.counter[id]++
	}
}

// Len reports how many ids are currently quarantined.
func (q *QuarantineLedger) Len() int { return len(q.counter) }
