package sim

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/op/go-logging"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dimersim/internal/dynamo"
	"github.com/san-kum/dimersim/internal/integrators"
	"github.com/san-kum/dimersim/internal/noise"
	"github.com/san-kum/dimersim/internal/physics"
)

var log = logging.MustGetLogger("sim")

const cancelCheckInterval = 4096

type Simulator struct {
	integrator Integrator
	metrics    []Metric
	observers  []Observer
}

func New(integrator Integrator) *Simulator {
	return &Simulator{
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Integrate propagates the system with the exact matrix-exponential
// scheme over steps steps, consuming the first steps columns of dW.
func Integrate(sys *physics.System, dW *mat.Dense, steps int) (*mat.Dense, error) {
	return New(integrators.NewExact()).Integrate(context.Background(), sys, dW, steps)
}

// Integrate returns the dim×(steps+1) trajectory matrix whose first column
// is sys.X0. The recurrence is strictly sequential; the first non-finite
// state aborts the run with a *dynamo.SimulationError wrapping
// dynamo.ErrNumericOverflow.
func (s *Simulator) Integrate(ctx context.Context, sys *physics.System, dW *mat.Dense, steps int) (*mat.Dense, error) {
	n := sys.Dim()
	if steps < 1 {
		return nil, &dynamo.ParameterError{Name: "steps", Value: float64(steps), Reason: "must be at least 1"}
	}
	rows, cols := dW.Dims()
	if rows != n || cols < steps {
		return nil, fmt.Errorf("%w: noise is %dx%d, need %dx%d", dynamo.ErrDimensionMismatch, rows, cols, n, steps)
	}

	if err := s.integrator.Init(sys); err != nil {
		return nil, err
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	X := mat.NewDense(n, steps+1, nil)
	x := sys.X0.Clone()
	X.SetCol(0, x)
	if err := s.notify(0, 0, x); err != nil {
		return nil, err
	}

	dw := make(dynamo.State, n)
	for i := 0; i < steps; i++ {
		if i%cancelCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		mat.Col(dw, i, dW)
		next := s.integrator.Step(x, dw)
		t := float64(i+1) * sys.Dt

		if !next.IsValid() {
			return nil, &dynamo.SimulationError{
				Step:    i + 1,
				Time:    t,
				State:   next.Clone(),
				Wrapped: dynamo.ErrNumericOverflow,
			}
		}

		copy(x, next)
		X.SetCol(i+1, x)
		if err := s.notify(i+1, t, x); err != nil {
			return nil, err
		}
	}

	return X, nil
}

func (s *Simulator) notify(step int, t float64, x dynamo.State) error {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		if err := obs.OnStep(step, t, x); err != nil {
			return fmt.Errorf("observer at step %d: %w", step, err)
		}
	}
	return nil
}

// Run builds the system from p, samples the noise from rng and integrates
// all p.N time points.
func (s *Simulator) Run(ctx context.Context, p physics.Params, rng *rand.Rand) (*Result, error) {
	sys, err := physics.Build(p)
	if err != nil {
		return nil, err
	}

	// One column per time point; the last one is never consumed.
	dW, err := noise.Generate(sys.Dim(), p.N, p.Dt, rng)
	if err != nil {
		return nil, err
	}

	log.Infof("integrating %d steps with %s (dt=%g)", p.Steps(), s.integrator.Name(), p.Dt)
	X, err := s.Integrate(ctx, sys, dW, p.Steps())
	if err != nil {
		return nil, err
	}

	result := &Result{
		Trajectory: NewTrajectory(X, p.Dt),
		Metrics:    make(map[string]float64),
		Integrator: s.integrator.Name(),
		StepsTaken: p.Steps(),
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}
