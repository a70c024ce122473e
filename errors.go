package epicore

import "github.com/pkg/errors"

// Sentinel message templates, following the project convention of naming
// the expected/actual shape of a validation failure rather than writing
// a fresh string at every call site.
const (
	MissingRoundZeroError      = "schedule %q has no entry for round 0"
	UnrecognizedImmuneKeyError = "perc_immune key %q is not one of households, adults, children"
	StartInfectiousLenError    = "num_start_infectious has %d entries, expected %d (one per non-susceptible, non-recovered substate)"
	UnknownLocationTypeError   = "location type %q is not configured"
	AsymmetricEdgeError        = "edge %d -> %d has no reciprocal %d -> %d"
	SelfLoopError              = "agent %d cannot neighbor itself"
	AgentOutOfRangeError       = "agent %d referenced but population size is %d"

	UnequalIntParameterError    = "expected %s %d, instead got %d"
	UnequalFloatParameterError  = "expected %s %f, instead got %f"
	UnequalStringParameterError = "expected %s %s, instead got %s"
)

// ConfigError wraps a configuration mistake caught before round 0: a
// missing schedule entry, a malformed perc_immune/num_start_infectious
// shape, or a location type present in the data but not configured.
// Always fatal at driver entry.
type ConfigError struct {
	cause error
}

func newConfigError(format string, args ...interface{}) error {
	return &ConfigError{cause: errors.Errorf(format, args...)}
}

func wrapConfigError(err error, context string) error {
	if err == nil {
		return nil
	}
	return &ConfigError{cause: errors.Wrap(err, context)}
}

func (e *ConfigError) Error() string { return "config invalid: " + e.cause.Error() }
func (e *ConfigError) Unwrap() error { return e.cause }

// GraphError wraps an inconsistency discovered while loading or
// validating a neighbor map: an asymmetric edge, a self-loop, or an
// agent id outside the declared population. Always fatal before round 0.
type GraphError struct {
	cause error
}

func newGraphError(format string, args ...interface{}) error {
	return &GraphError{cause: errors.Errorf(format, args...)}
}

func (e *GraphError) Error() string { return "graph inconsistent: " + e.cause.Error() }
func (e *GraphError) Unwrap() error { return e.cause }

// BuildingInputError wraps a malformed location CSV: a header mismatch
// or an unparsable field. The core refuses to start a run.
type BuildingInputError struct {
	cause error
}

func newBuildingInputError(format string, args ...interface{}) error {
	return &BuildingInputError{cause: errors.Errorf(format, args...)}
}

func wrapBuildingInputError(err error, context string) error {
	if err == nil {
		return nil
	}
	return &BuildingInputError{cause: errors.Wrap(err, context)}
}

func (e *BuildingInputError) Error() string { return "building input invalid: " + e.cause.Error() }
func (e *BuildingInputError) Unwrap() error { return e.cause }
