package integrators

import (
	"github.com/san-kum/dimersim/internal/dynamo"
	"github.com/san-kum/dimersim/internal/physics"
)

// EulerMaruyama is the first-order scheme x' = x + (A x + a) dt + b ⊙ dW.
// It carries an O(dt) bias on the relaxation and is kept for comparison
// against Exact.
type EulerMaruyama struct {
	sys *physics.System
	b   dynamo.State
	out dynamo.State
}

func NewEulerMaruyama() *EulerMaruyama {
	return &EulerMaruyama{}
}

func (e *EulerMaruyama) Name() string { return "euler" }

func (e *EulerMaruyama) Init(sys *physics.System) error {
	e.sys = sys
	e.b = sys.Diffusion()
	e.out = make(dynamo.State, sys.Dim())
	return nil
}

func (e *EulerMaruyama) Step(x, dw dynamo.State) dynamo.State {
	drift := e.sys.Drift(x)
	for i := range e.out {
		e.out[i] = x[i] + drift[i]*e.sys.Dt + e.b[i]*dw[i]
	}
	return e.out
}
