package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dimersim/internal/dynamo"
)

// NumParticles is the number of beads in the dimer.
const NumParticles = 2

// Params are the physical constants of one run. Units follow the
// micrometre/second convention: diffusivities in um^2/s, spring
// constants and drag in kg/s^2 and kg/s, kB in kg*um^2/s^2/K.
type Params struct {
	D1    float64 // diffusivity of particle 1
	D2    float64 // diffusivity of particle 2
	K1    float64 // tether of particle 1 to x10
	K2    float64 // tether of particle 2 to x20
	K12   float64 // coupling spring
	KB    float64
	Gamma float64 // viscous drag
	L12   float64 // rest length of the coupling spring
	X10   float64
	X20   float64
	Dt    float64
	N     int // number of time points
}

// Steps is the number of propagation steps, N-1.
func (p Params) Steps() int { return p.N - 1 }

// Duration is the time of the last recorded point.
func (p Params) Duration() float64 { return float64(p.Steps()) * p.Dt }

// Temperatures returns the equivalent temperature D*gamma/kB of each particle.
func (p Params) Temperatures() (float64, float64) {
	return p.D1 * p.Gamma / p.KB, p.D2 * p.Gamma / p.KB
}

// Validate checks every parameter against its domain.
func (p Params) Validate() error {
	all := []struct {
		name string
		v    float64
	}{
		{"D1", p.D1}, {"D2", p.D2}, {"k1", p.K1}, {"k2", p.K2}, {"k12", p.K12},
		{"kB", p.KB}, {"gamma", p.Gamma}, {"L12", p.L12},
		{"x10", p.X10}, {"x20", p.X20}, {"dt", p.Dt},
	}
	for _, f := range all {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &dynamo.ParameterError{Name: f.name, Value: f.v, Reason: "must be finite"}
		}
	}

	nonNegative := []struct {
		name string
		v    float64
	}{
		{"D1", p.D1}, {"D2", p.D2}, {"k1", p.K1}, {"k2", p.K2}, {"k12", p.K12},
	}
	for _, f := range nonNegative {
		if f.v < 0 {
			return &dynamo.ParameterError{Name: f.name, Value: f.v, Reason: "must be non-negative"}
		}
	}

	positive := []struct {
		name string
		v    float64
	}{
		{"gamma", p.Gamma}, {"kB", p.KB}, {"dt", p.Dt},
	}
	for _, f := range positive {
		if f.v <= 0 {
			return &dynamo.ParameterError{Name: f.name, Value: f.v, Reason: "must be positive"}
		}
	}

	if p.N < 2 {
		return &dynamo.ParameterError{Name: "N", Value: float64(p.N), Reason: "must be at least 2"}
	}
	return nil
}

// System is the linear SDE dX = (A X + a) dt + diag(b) dW.
type System struct {
	A  *mat.Dense
	a  dynamo.State
	b  dynamo.State
	X0 dynamo.State
	Dt float64
}

// Build derives the drift matrix, drift offset, diffusion scale and
// initial state from p. It performs no other work.
func Build(p Params) (*System, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	g := p.Gamma
	A := mat.NewDense(NumParticles, NumParticles, []float64{
		-(p.K1 + p.K12) / g, p.K12 / g,
		p.K12 / g, -(p.K2 + p.K12) / g,
	})

	return &System{
		A: A,
		a: dynamo.State{
			(p.K1*p.X10 - p.K12*p.L12) / g,
			(p.K2*p.X20 + p.K12*p.L12) / g,
		},
		b:  dynamo.State{math.Sqrt(2 * p.D1), math.Sqrt(2 * p.D2)},
		X0: dynamo.State{p.X10, p.X20},
		Dt: p.Dt,
	}, nil
}

// NewSystem assembles a system from explicit operators. It is used when
// the drift does not come from spring constants, e.g. in tests.
func NewSystem(A *mat.Dense, a, b, x0 dynamo.State, dt float64) (*System, error) {
	r, c := A.Dims()
	n := len(x0)
	if r != c || r != n || len(a) != n || len(b) != n {
		return nil, fmt.Errorf("%w: A is %dx%d, a=%d b=%d x0=%d", dynamo.ErrDimensionMismatch, r, c, len(a), len(b), n)
	}
	if dt <= 0 {
		return nil, &dynamo.ParameterError{Name: "dt", Value: dt, Reason: "must be positive"}
	}
	return &System{A: A, a: a.Clone(), b: b.Clone(), X0: x0.Clone(), Dt: dt}, nil
}

func (s *System) Dim() int { return len(s.X0) }

// Offset returns the drift offset vector a.
func (s *System) Offset() dynamo.State { return s.a.Clone() }

// Diffusion returns the per-particle noise amplitude b.
func (s *System) Diffusion() dynamo.State { return s.b.Clone() }

// Drift evaluates A x + a.
func (s *System) Drift(x dynamo.State) dynamo.State {
	out := s.a.Clone()
	for i := range out {
		for j := range x {
			out[i] += s.A.At(i, j) * x[j]
		}
	}
	return out
}

// FixedPoint returns -A^-1 a, the noise-free equilibrium. It fails with
// ErrSingularSystem when A is not invertible, as in the untethered case.
func (s *System) FixedPoint() (dynamo.State, error) {
	var inv mat.Dense
	if err := inv.Inverse(s.A); err != nil {
		return nil, fmt.Errorf("%w: drift matrix not invertible: %v", dynamo.ErrSingularSystem, err)
	}
	var x mat.VecDense
	x.MulVec(&inv, mat.NewVecDense(len(s.a), s.a.Clone()))
	x.ScaleVec(-1, &x)
	return dynamo.State(x.RawVector().Data), nil
}

// IsStable reports whether every eigenvalue of A has a negative real part.
func (s *System) IsStable() bool {
	var eig mat.Eigen
	if !eig.Factorize(s.A, mat.EigenNone) {
		return false
	}
	for _, v := range eig.Values(nil) {
		if real(v) >= 0 {
			return false
		}
	}
	return true
}

// Energy is the elastic energy stored in the springs for state x.
func (p Params) Energy(x dynamo.State) float64 {
	if len(x) < NumParticles {
		return 0
	}
	stretch := x[1] - x[0] - p.L12
	e := 0.5 * p.K12 * stretch * stretch
	e += 0.5 * p.K1 * (x[0] - p.X10) * (x[0] - p.X10)
	e += 0.5 * p.K2 * (x[1] - p.X20) * (x[1] - p.X20)
	return e
}
