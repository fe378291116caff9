package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/dimersim/internal/integrators"
	"github.com/san-kum/dimersim/internal/metrics"
	"github.com/san-kum/dimersim/internal/physics"
	"github.com/san-kum/dimersim/internal/sim"
)

type Registry struct {
	integrators map[string]func() sim.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() sim.Integrator),
	}

	r.integrators["exact"] = func() sim.Integrator { return integrators.NewExact() }
	r.integrators["euler"] = func() sim.Integrator { return integrators.NewEulerMaruyama() }

	return r
}

func (r *Registry) GetIntegrator(name string) (sim.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics are the running summaries recorded with every run.
func (r *Registry) DefaultMetrics(p physics.Params) []sim.Metric {
	return []sim.Metric{
		metrics.NewDiffusivity(0, p.Dt),
		metrics.NewDiffusivity(1, p.Dt),
		metrics.NewSeparation(),
		metrics.NewSpringEnergy(p),
	}
}
