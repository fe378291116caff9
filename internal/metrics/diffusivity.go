package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/dimersim/internal/dynamo"
)

// Diffusivity estimates D = var(dx)/(2 dt) of one particle from its
// successive increments, using Welford's running variance.
type Diffusivity struct {
	name     string
	particle int
	dt       float64

	prev    float64
	started bool
	n       int
	mean    float64
	m2      float64
}

func NewDiffusivity(particle int, dt float64) *Diffusivity {
	return &Diffusivity{
		name:     fmt.Sprintf("diffusivity_%d", particle+1),
		particle: particle,
		dt:       dt,
	}
}

func (d *Diffusivity) Name() string { return d.name }

func (d *Diffusivity) Observe(x dynamo.State, t float64) {
	if d.particle >= len(x) {
		return
	}
	v := x[d.particle]
	if !d.started {
		d.prev = v
		d.started = true
		return
	}

	dx := v - d.prev
	d.prev = v
	d.n++
	delta := dx - d.mean
	d.mean += delta / float64(d.n)
	d.m2 += delta * (dx - d.mean)
}

// Value is NaN until two increments have been seen.
func (d *Diffusivity) Value() float64 {
	if d.n < 2 {
		return math.NaN()
	}
	return d.m2 / float64(d.n-1) / (2 * d.dt)
}

func (d *Diffusivity) Reset() {
	d.started = false
	d.prev = 0
	d.n = 0
	d.mean = 0
	d.m2 = 0
}
