package epicore

import "sort"

// Schedule is a step-function from round index to a float parameter
// value (spec.md §6 "Parameter schedules"): the simulator holds the
// most recently defined value. An entry for round 0 is required;
// enforced by NewSchedule rather than at query time so a malformed
// schedule fails fast at driver entry (ConfigInvalid, spec.md §7).
type Schedule struct {
	name   string
	rounds []int
	values []float64
}

// NewSchedule builds a Schedule from a round->value mapping, as parsed
// from a TOML `[schedule.*]` table. name is used only in error
// messages, so config.go can report which schedule was malformed.
func NewSchedule(name string, raw map[int]float64) (*Schedule, error) {
	if _, ok := raw[0]; !ok {
		return nil, newConfigError(MissingRoundZeroError, name)
	}
	rounds := make([]int, 0, len(raw))
	for r := range raw {
		rounds = append(rounds, r)
	}
	sort.Ints(rounds)
	values := make([]float64, len(rounds))
	for i, r := range rounds {
		values[i] = raw[r]
	}
	return &Schedule{name: name, rounds: rounds, values: values}, nil
}

// ValueAt returns the value in effect at `round`: the value attached
// to the largest schedule key <= round.
func (s *Schedule) ValueAt(round int) float64 {
	i := sort.SearchInts(s.rounds, round+1) - 1
	return s.values[i]
}

// TestSpec is one entry of the testing configuration (spec.md §6): a
// test type's per-administration detection probability and the
// weekdays it runs on.
type TestSpec struct {
	Name     string
	P        float64
	Weekdays map[int]bool
}

// NewTestSpec builds a TestSpec from a probability and a weekday list.
func NewTestSpec(name string, p float64, weekdays []int) TestSpec {
	days := make(map[int]bool, len(weekdays))
	for _, w := range weekdays {
		days[w] = true
	}
	return TestSpec{Name: name, P: p, Weekdays: days}
}

// RunsOn reports whether this test type administers on weekday w.
func (t TestSpec) RunsOn(w int) bool { return t.Weekdays[w] }

// TestingConfig is the full mapping from test-type name to its spec,
// e.g. {"pcr": {...}, "antigen": {...}}.
type TestingConfig map[string]TestSpec
