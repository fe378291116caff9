// Package dynamo provides the shared primitives of the two-particle
// Ornstein–Uhlenbeck simulator.
//
// The package is a leaf: it defines the small vocabulary every other
// package speaks and nothing else.
//
//   - [State]: position vector of both particles at one time point
//   - [ParameterError]: a physical parameter outside its domain
//   - [SimulationError]: a failure bound to a step index of a run
//
// # Errors
//
// All failures are classified by one of the sentinel errors and can be
// matched with [errors.Is]:
//
//	if errors.Is(err, dynamo.ErrNumericOverflow) {
//	    var se *dynamo.SimulationError
//	    errors.As(err, &se)
//	    fmt.Println("diverged at step", se.Step)
//	}
package dynamo
