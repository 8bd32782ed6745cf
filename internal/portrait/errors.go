package portrait

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks across layers
var (
	ErrMissingInput  = errors.New("missing input")
	ErrInvalidRange  = errors.New("invalid range")
	ErrEngineFailure = errors.New("engine failure")
	ErrEnvironment   = errors.New("environment error")
)

// MissingInputError reports a required asset that was absent at call time.
// The caller may correct the inputs and retry.
type MissingInputError struct {
	Input string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing input: %s is required", e.Input)
}

// Is matches ErrMissingInput
func (e *MissingInputError) Is(target error) bool {
	return target == ErrMissingInput
}

// InvalidRangeError reports a parameter outside its declared bounds
type InvalidRangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: %s=%g must be within [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

// Is matches ErrInvalidRange
func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// InvalidOptionError reports an enumerated parameter with an unknown value
type InvalidOptionError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid option: %s=%q must be one of %v", e.Field, e.Value, e.Allowed)
}

// Is matches ErrInvalidRange
func (e *InvalidOptionError) Is(target error) bool {
	return target == ErrInvalidRange
}

// EngineFailure wraps an error reported by the inference engine. The wrapped
// error is propagated unchanged.
type EngineFailure struct {
	Op  string
	Err error
}

func (e *EngineFailure) Error() string {
	return fmt.Sprintf("engine failure during %s: %v", e.Op, e.Err)
}

func (e *EngineFailure) Unwrap() error {
	return e.Err
}

// Is matches ErrEngineFailure
func (e *EngineFailure) Is(target error) bool {
	return target == ErrEngineFailure
}

// EnvironmentError reports a missing external binary. Only raised at startup.
type EnvironmentError struct {
	Binary string
	Err    error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("environment error: %s is not available: %v", e.Binary, e.Err)
}

func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

// Is matches ErrEnvironment
func (e *EnvironmentError) Is(target error) bool {
	return target == ErrEnvironment
}

// errNoOutput marks an engine call that succeeded without producing files
var errNoOutput = errors.New("engine returned no output")

// engineFailure wraps err as an EngineFailure unless it already is one
func engineFailure(op string, err error) error {
	var ef *EngineFailure
	if errors.As(err, &ef) {
		return err
	}
	return &EngineFailure{Op: op, Err: err}
}
