package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/dimersim/internal/config"
	"github.com/san-kum/dimersim/internal/experiment"
)

func shortConfig(n int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Time.Steps = n
	return cfg
}

func TestLoadScenario(t *testing.T) {
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	data := []byte(`
name: coupling
description: free pair, then coupled
steps:
  - name: free
    params:
      N: 101
  - name: coupled
    preset: coupled
    integrator: euler
    seed: 9
    params:
      N: 101
      k12: 1.0e-6
`)
	g.Expect(os.WriteFile(path, data, 0644)).To(Succeed())

	sc, err := LoadScenario(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sc.Name).To(Equal("coupling"))
	g.Expect(sc.Steps).To(HaveLen(2))

	cfg, err := sc.Steps[1].Config()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Integrator).To(Equal("euler"))
	g.Expect(cfg.Seed).To(Equal(int64(9)))
	g.Expect(cfg.Springs.K12).To(Equal(1e-6))
	g.Expect(cfg.Time.Steps).To(Equal(101))

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(2))
	g.Expect(results[0].Result.Integrator).To(Equal("exact"))
	g.Expect(results[1].Result.Integrator).To(Equal("euler"))
	g.Expect(results[1].Result.Trajectory.Len()).To(Equal(101))
}

func TestLoadScenario_Errors(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	g.Expect(os.WriteFile(empty, []byte("name: nothing\n"), 0644)).To(Succeed())
	_, err := LoadScenario(empty)
	g.Expect(err).To(MatchError(ContainSubstring("no steps")))

	_, err = ScenarioStep{Preset: "missing"}.Config()
	g.Expect(err).To(MatchError(ContainSubstring("unknown preset")))

	_, err = ScenarioStep{Params: map[string]float64{"mass": 1}}.Config()
	g.Expect(err).To(MatchError(ContainSubstring("unknown parameter")))

	_, err = ScenarioStep{Params: map[string]float64{"gamma": 0}}.Config()
	g.Expect(err).To(HaveOccurred())
}

func TestRunSweep(t *testing.T) {
	g := NewWithT(t)

	sweep := &ParameterSweep{
		Base:      shortConfig(201),
		ParamName: "k12",
		ParamMin:  0,
		ParamMax:  2e-6,
		NumSteps:  3,
	}
	results, err := RunSweep(context.Background(), sweep, experiment.NewRegistry())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(3))
	g.Expect(results[0].ParamValue).To(Equal(0.0))
	g.Expect(results[1].ParamValue).To(BeNumerically("~", 1e-6, 1e-18))
	g.Expect(results[2].ParamValue).To(Equal(2e-6))
	for _, r := range results {
		g.Expect(r.Stable).To(BeTrue())
		g.Expect(r.FinalState).To(HaveLen(2))
		g.Expect(r.Metrics).To(HaveKey("separation"))
	}
}

func TestRunSweep_ReportsDivergence(t *testing.T) {
	g := NewWithT(t)

	base := shortConfig(2001)
	base.Integrator = "euler"
	// k12/gamma*dt = 10 puts Euler far outside its stability region.
	sweep := &ParameterSweep{Base: base, ParamName: "k12", ParamMin: 0, ParamMax: 1e-3, NumSteps: 2}

	results, err := RunSweep(context.Background(), sweep, experiment.NewRegistry())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results[0].Stable).To(BeTrue())
	g.Expect(results[1].Stable).To(BeFalse())
	g.Expect(results[1].FinalState).To(BeNil())
}

func TestRunSweep_InvalidInput(t *testing.T) {
	g := NewWithT(t)
	reg := experiment.NewRegistry()

	_, err := RunSweep(context.Background(), &ParameterSweep{Base: shortConfig(11), ParamName: "k12", NumSteps: 1}, reg)
	g.Expect(err).To(HaveOccurred())

	_, err = RunSweep(context.Background(), &ParameterSweep{Base: shortConfig(11), ParamName: "mass", NumSteps: 3}, reg)
	g.Expect(err).To(MatchError(ContainSubstring("unknown parameter")))
}

func TestRunMonteCarlo_SeedsAndReproducibility(t *testing.T) {
	g := NewWithT(t)
	reg := experiment.NewRegistry()

	base := shortConfig(201)
	base.Seed = 100
	results, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{Base: base, NumTrials: 8}, reg)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(8))

	for i, r := range results {
		g.Expect(r.TrialID).To(Equal(i))
		g.Expect(r.Seed).To(Equal(int64(100 + i)))
		g.Expect(r.Stable).To(BeTrue())
	}

	single := base.Clone()
	single.Seed = 102
	res, err := RunConfig(context.Background(), single, reg)
	g.Expect(err).NotTo(HaveOccurred())
	final := res.Trajectory.State(res.Trajectory.Len() - 1)
	g.Expect(final).To(Equal(results[2].FinalState))

	stable, unstable := MonteCarloStats(results)
	g.Expect(stable).To(Equal(8))
	g.Expect(unstable).To(Equal(0))
}

func TestSummarize_FreeDiffusionSpread(t *testing.T) {
	g := NewWithT(t)

	base := shortConfig(101)
	results, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{Base: base, NumTrials: 400}, experiment.NewRegistry())
	g.Expect(err).NotTo(HaveOccurred())

	s := Summarize(results)
	g.Expect(s.Trials).To(Equal(400))
	g.Expect(s.Stable).To(Equal(400))

	T := base.Params().Duration()
	g.Expect(s.FinalMean[0]).To(BeNumerically("~", base.Particles.X10, 0.05))
	g.Expect(s.FinalVar[0]).To(BeNumerically("~", 2*base.Particles.D1*T, 0.25*2*base.Particles.D1*T))
	g.Expect(s.FinalVar[1]).To(BeNumerically("~", 2*base.Particles.D2*T, 0.25*2*base.Particles.D2*T))
	g.Expect(s.MetricMean["diffusivity_1"]).To(BeNumerically("~", base.Particles.D1, 0.1*base.Particles.D1))
}

func TestSummarize_NoStableTrials(t *testing.T) {
	g := NewWithT(t)

	s := Summarize([]MonteCarloResult{{TrialID: 0}, {TrialID: 1}})
	g.Expect(s.Trials).To(Equal(2))
	g.Expect(s.Stable).To(Equal(0))
	g.Expect(s.FinalMean).To(BeNil())
}
