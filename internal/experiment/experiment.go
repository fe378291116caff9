package experiment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/san-kum/dimersim/internal/config"
	"github.com/san-kum/dimersim/internal/noise"
	"github.com/san-kum/dimersim/internal/physics"
	"github.com/san-kum/dimersim/internal/sim"
)

type Experiment struct {
	cfg        *config.Config
	params     physics.Params
	simulator  *sim.Simulator
	randSource *rand.Rand
}

// New validates cfg and seeds the noise source from cfg.Seed.
func New(cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Experiment{
		cfg:        cfg,
		params:     cfg.Params(),
		randSource: noise.NewSource(cfg.Seed),
	}, nil
}

func (e *Experiment) Setup(integrator sim.Integrator, metrics []sim.Metric) error {
	e.simulator = sim.New(integrator)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.params, e.randSource)
}

func (e *Experiment) Params() physics.Params { return e.params }

func (e *Experiment) Seed() int64 { return e.cfg.Seed }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
