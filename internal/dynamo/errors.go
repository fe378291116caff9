package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidParameter indicates a physical parameter outside its valid domain.
	ErrInvalidParameter = errors.New("dynamo: invalid parameter")

	// ErrSingularSystem indicates a matrix that cannot be diagonalized or inverted
	// within numerical tolerance.
	ErrSingularSystem = errors.New("dynamo: singular system")

	// ErrNumericOverflow indicates the trajectory diverged to a non-finite value.
	ErrNumericOverflow = errors.New("dynamo: numeric overflow (state diverged)")

	// ErrDimensionMismatch indicates mismatched matrix or vector dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")
)

// ParameterError names the offending parameter and its value.
type ParameterError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%v: %s=%g %s", ErrInvalidParameter, e.Name, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g, x=%v): %v", e.Step, e.Time, []float64(e.State), e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
