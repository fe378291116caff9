package sim

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dimersim/internal/dynamo"
	"github.com/san-kum/dimersim/internal/physics"
)

// Integrator advances the system by one time step given the Wiener
// increment of that step.
type Integrator interface {
	Name() string
	Init(sys *physics.System) error
	Step(x, dw dynamo.State) dynamo.State
}

// Metric accumulates a scalar over the states of a run.
type Metric interface {
	Name() string
	Observe(x dynamo.State, t float64)
	Value() float64
	Reset()
}

// Observer receives every state column in time order, starting with the
// initial condition at step 0.
type Observer interface {
	OnStep(step int, t float64, x dynamo.State) error
}

// Trajectory is the read-only result of a run: X has one row per
// particle and one column per time point.
type Trajectory struct {
	Dt float64
	X  *mat.Dense
}

func NewTrajectory(x *mat.Dense, dt float64) *Trajectory {
	return &Trajectory{Dt: dt, X: x}
}

// Len is the number of time points N.
func (tr *Trajectory) Len() int {
	_, c := tr.X.Dims()
	return c
}

func (tr *Trajectory) Particles() int {
	r, _ := tr.X.Dims()
	return r
}

// Duration is the time of the last point, (N-1)*dt.
func (tr *Trajectory) Duration() float64 {
	return float64(tr.Len()-1) * tr.Dt
}

// Times returns t[i] = i*dt.
func (tr *Trajectory) Times() []float64 {
	t := make([]float64, tr.Len())
	for i := range t {
		t[i] = float64(i) * tr.Dt
	}
	return t
}

// Positions returns a copy of particle p's positions.
func (tr *Trajectory) Positions(p int) []float64 {
	return mat.Row(nil, p, tr.X)
}

// Increments returns dX[p, i] = X[p, i+1] - X[p, i]. The last element has
// no successor and is NaN.
func (tr *Trajectory) Increments(p int) []float64 {
	x := tr.Positions(p)
	dx := make([]float64, len(x))
	for i := 0; i < len(x)-1; i++ {
		dx[i] = x[i+1] - x[i]
	}
	dx[len(dx)-1] = math.NaN()
	return dx
}

// State returns the column at time index i.
func (tr *Trajectory) State(i int) dynamo.State {
	return dynamo.State(mat.Col(nil, i, tr.X))
}

// Mean returns the time average of each particle's position.
func (tr *Trajectory) Mean() dynamo.State {
	r, c := tr.X.Dims()
	m := make(dynamo.State, r)
	for p := 0; p < r; p++ {
		m[p] = mat.Sum(tr.X.RowView(p)) / float64(c)
	}
	return m
}

type Result struct {
	Trajectory *Trajectory
	Metrics    map[string]float64
	Integrator string
	StepsTaken int
}
