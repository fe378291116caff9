package metrics

import (
	"github.com/san-kum/dimersim/internal/dynamo"
	"github.com/san-kum/dimersim/internal/physics"
)

// SpringEnergy is the time-averaged elastic energy of the tethers and the
// coupling spring.
type SpringEnergy struct {
	name        string
	params      physics.Params
	samples     int
	totalEnergy float64
}

func NewSpringEnergy(p physics.Params) *SpringEnergy {
	return &SpringEnergy{
		name:   "spring_energy",
		params: p,
	}
}

func (e *SpringEnergy) Name() string { return e.name }

func (e *SpringEnergy) Observe(x dynamo.State, t float64) {
	e.totalEnergy += e.params.Energy(x)
	e.samples++
}

func (e *SpringEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *SpringEnergy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}
