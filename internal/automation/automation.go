package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/op/go-logging"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/dimersim/internal/config"
	"github.com/san-kum/dimersim/internal/dynamo"
	"github.com/san-kum/dimersim/internal/experiment"
	"github.com/san-kum/dimersim/internal/sim"
)

var log = logging.MustGetLogger("automation")

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single step in a scenario. Params are applied by
// name on top of the preset (or the defaults when Preset is empty).
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	Integrator string             `yaml:"integrator"`
	Seed       *int64             `yaml:"seed"`
	Params     map[string]float64 `yaml:"params"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Config resolves the step into a validated configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Seed != nil {
		cfg.Seed = *s.Seed
	}
	for name, v := range s.Params {
		if err := cfg.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StepResult pairs a scenario step with the configuration it ran and its
// outcome.
type StepResult struct {
	Step   ScenarioStep
	Config *config.Config
	Result *sim.Result
}

// RunConfig runs one experiment for cfg with the default metrics.
func RunConfig(ctx context.Context, cfg *config.Config, registry *experiment.Registry) (*sim.Result, error) {
	exp, err := experiment.New(cfg)
	if err != nil {
		return nil, err
	}
	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	if err := exp.Setup(integ, registry.DefaultMetrics(exp.Params())); err != nil {
		return nil, err
	}
	return exp.Run(ctx)
}

// RunScenario executes all steps in a scenario
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		log.Infof("scenario %s: step %d/%d %s", scenario.Name, i+1, len(scenario.Steps), step.Name)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		result, err := RunConfig(ctx, cfg, registry)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Step: step, Config: cfg, Result: result})
	}

	return results, nil
}

// ParameterSweep runs simulations across a range of parameter values.
// Every point reuses Base.Seed, so all points see the same noise.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	FinalState dynamo.State
	Metrics    map[string]float64
	Stable     bool
}

// RunSweep executes a parameter sweep. Points whose integration overflows
// are reported as unstable rather than failing the sweep.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 points, got %d", sweep.NumSteps)
	}
	if _, err := sweep.Base.Param(sweep.ParamName); err != nil {
		return nil, err
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		if err := cfg.SetParam(sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		result, err := RunConfig(ctx, cfg, registry)
		res := SweepResult{ParamValue: paramVal}
		switch {
		case errors.Is(err, dynamo.ErrNumericOverflow):
			log.Warningf("sweep %s=%g diverged: %v", sweep.ParamName, paramVal, err)
		case err != nil:
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		default:
			tr := result.Trajectory
			res.FinalState = tr.State(tr.Len() - 1)
			res.Metrics = result.Metrics
			res.Stable = true
		}
		results = append(results, res)

		log.Infof("sweep %d/%d: %s=%g", i+1, sweep.NumSteps, sweep.ParamName, paramVal)
	}

	return results, nil
}

// MonteCarloConfig defines an ensemble of independent noise realizations.
// Trial i uses seed Base.Seed+i.
type MonteCarloConfig struct {
	Base      *config.Config
	NumTrials int
}

// MonteCarloResult holds the outcome of one trial
type MonteCarloResult struct {
	TrialID    int
	Seed       int64
	FinalState dynamo.State
	Metrics    map[string]float64
	Stable     bool // false when the integration overflowed
}

// RunMonteCarlo executes the trials one after another.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("ensemble needs at least 1 trial, got %d", cfg.NumTrials)
	}
	if err := cfg.Base.Validate(); err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		trialCfg := cfg.Base.Clone()
		trialCfg.Seed = cfg.Base.Seed + int64(trial)

		res := MonteCarloResult{TrialID: trial, Seed: trialCfg.Seed}
		result, err := RunConfig(ctx, trialCfg, registry)
		switch {
		case errors.Is(err, dynamo.ErrNumericOverflow):
		case err != nil:
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		default:
			tr := result.Trajectory
			res.FinalState = tr.State(tr.Len() - 1)
			res.Metrics = result.Metrics
			res.Stable = true
		}
		results = append(results, res)

		if (trial+1)%10 == 0 {
			log.Debugf("ensemble: %d/%d trials complete", trial+1, cfg.NumTrials)
		}
	}

	stable, unstable := MonteCarloStats(results)
	log.Infof("ensemble finished: %d stable, %d unstable", stable, unstable)
	return results, nil
}

// MonteCarloStats counts stable and unstable trials
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

// EnsembleSummary aggregates the stable trials of an ensemble.
type EnsembleSummary struct {
	Trials      int
	Stable      int
	FinalMean   []float64
	FinalVar    []float64
	MetricMean  map[string]float64
	MetricStdev map[string]float64
}

// Summarize computes across-trial statistics. For free diffusion the
// final-position variance approaches 2 D T.
func Summarize(results []MonteCarloResult) EnsembleSummary {
	s := EnsembleSummary{
		Trials:      len(results),
		MetricMean:  make(map[string]float64),
		MetricStdev: make(map[string]float64),
	}

	var finals []dynamo.State
	metrics := make(map[string][]float64)
	for _, r := range results {
		if !r.Stable {
			continue
		}
		s.Stable++
		finals = append(finals, r.FinalState)
		for name, v := range r.Metrics {
			metrics[name] = append(metrics[name], v)
		}
	}
	if len(finals) == 0 {
		return s
	}

	dim := len(finals[0])
	s.FinalMean = make([]float64, dim)
	s.FinalVar = make([]float64, dim)
	column := make([]float64, len(finals))
	for p := 0; p < dim; p++ {
		for i, f := range finals {
			column[i] = f[p]
		}
		s.FinalMean[p], s.FinalVar[p] = stat.MeanVariance(column, nil)
	}

	for name, vs := range metrics {
		s.MetricMean[name], s.MetricStdev[name] = stat.MeanStdDev(vs, nil)
	}
	return s
}
