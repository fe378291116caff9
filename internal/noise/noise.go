// Package noise samples Wiener increments for the particles of a run.
package noise

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dimersim/internal/dynamo"
)

// NewSource returns a generator seeded explicitly with seed.
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Generate draws a numParticles×steps matrix of independent N(0, dt)
// increments, one row per particle. Rows are filled in order, so the first
// particle consumes the first steps draws of rng.
func Generate(numParticles, steps int, dt float64, rng *rand.Rand) (*mat.Dense, error) {
	if numParticles < 1 {
		return nil, &dynamo.ParameterError{Name: "num_particles", Value: float64(numParticles), Reason: "must be at least 1"}
	}
	if steps < 1 {
		return nil, &dynamo.ParameterError{Name: "steps", Value: float64(steps), Reason: "must be at least 1"}
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, &dynamo.ParameterError{Name: "dt", Value: dt, Reason: "must be positive"}
	}

	scale := math.Sqrt(dt)
	data := make([]float64, numParticles*steps)
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
	return mat.NewDense(numParticles, steps, data), nil
}
