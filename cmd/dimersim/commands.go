package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/dimersim/internal/analysis"
	"github.com/san-kum/dimersim/internal/config"
	"github.com/san-kum/dimersim/internal/dynamo"
	"github.com/san-kum/dimersim/internal/experiment"
	"github.com/san-kum/dimersim/internal/noise"
	"github.com/san-kum/dimersim/internal/physics"
	"github.com/san-kum/dimersim/internal/sim"
	"github.com/san-kum/dimersim/internal/storage"
	"github.com/san-kum/dimersim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}
	p := exp.Params()
	if err := exp.Setup(integ, registry.DefaultMetrics(p)); err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	run, err := st.Create(cfg.Seed, integ.Name(), p)
	if err != nil {
		return err
	}
	exp.GetSimulator().AddObserver(run.Writer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		if abortErr := run.Abort(); abortErr != nil {
			log.Warningf("cleaning up run %s: %v", run.Meta.ID, abortErr)
		}
		var simErr *dynamo.SimulationError
		if errors.As(err, &simErr) {
			log.Errorf("integration diverged at step %d (t=%g)", simErr.Step, simErr.Time)
		}
		return err
	}
	elapsed := time.Since(start)

	if err := run.Commit(result); err != nil {
		return err
	}
	log.Infof("run %s finished in %v", run.Meta.ID, elapsed)

	if cfg.Output != "" {
		if err := writeTrajectory(cfg.Output, result.Trajectory); err != nil {
			return err
		}
	}

	printRunSummary(run.Meta.ID, elapsed, p, result)
	return nil
}

func writeTrajectory(path string, tr *sim.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := storage.WriteDat(f, tr); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printRunSummary(runID string, elapsed time.Duration, p physics.Params, result *sim.Result) {
	tr := result.Trajectory
	t1, t2 := p.Temperatures()
	rows := []viz.Row{
		{Label: "run id", Value: runID},
		{Label: "integrator", Value: result.Integrator},
		{Label: "steps", Value: fmt.Sprintf("%d", result.StepsTaken)},
		{Label: "duration", Value: fmt.Sprintf("%.4g s", tr.Duration())},
		{Label: "elapsed", Value: elapsed.Round(time.Millisecond).String()},
		{Label: "T1, T2", Value: fmt.Sprintf("%.4g, %.4g", t1, t2)},
	}
	fmt.Println(viz.Summary("dimer run", rows))

	summaries := analysis.Summarize(tr, []float64{p.D1, p.D2})
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLE\tMEAN\tVAR\tD_EST\tD_CONF\tRATIO\tTRACE")
	for i, s := range summaries {
		fmt.Fprintf(w, "x%d\t%.5g\t%.5g\t%.5g\t%.5g\t%s\t%s\n",
			i+1, s.Mean, s.Variance, s.D, s.DConfigured, viz.Ratio(s.Ratio),
			viz.Sparkline(tr.Positions(i), 32))
	}
	w.Flush()

	if len(result.Metrics) > 0 {
		fmt.Println(viz.Summary("metrics", viz.MetricRows(result.Metrics)))
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tINTEG\tSEED\tN\tDT\tD1\tD2\tK12")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%g\t%g\t%g\t%g\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Integrator,
			run.Seed,
			run.Params.N,
			run.Params.Dt,
			run.Params.D1,
			run.Params.D2,
			run.Params.K12,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%s, seed %d)\n\n", meta.ID, meta.Integrator, meta.Seed)
	fmt.Println(viz.PositionsChart(tr, 70, 14))

	if pngFile != "" {
		if err := viz.SavePNG(pngFile, tr, meta.ID); err != nil {
			return err
		}
		fmt.Printf("\nsaved %s\n", pngFile)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	configured := []float64{meta.Params.D1, meta.Params.D2}
	summaries := analysis.Summarize(tr, configured)

	fmt.Printf("analysis of %s (%d points, dt=%g)\n\n", meta.ID, tr.Len(), tr.Dt)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLE\tD_INCR\tD_MSD\tD_CONF\tRATIO\tPEAK_HZ")
	var msd1 []float64
	for i, s := range summaries {
		x := tr.Positions(i)
		msd := analysis.MSD(x, maxLag)
		if i == 0 {
			msd1 = msd
		}
		dMSD := analysis.DiffusivityFromMSD(msd, tr.Dt)

		centered := make([]float64, len(x))
		copy(centered, x)
		floats.AddConst(-s.Mean, centered)
		ps := analysis.PowerSpectrum(centered)
		peak := analysis.DominantFrequency(ps, len(x), tr.Dt)

		fmt.Fprintf(w, "x%d\t%.5g\t%.5g\t%.5g\t%s\t%.4g\n",
			i+1, s.D, dMSD, s.DConfigured, viz.Ratio(s.Ratio), peak)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(msd1) > 1 {
		fmt.Println()
		fmt.Println(viz.SeriesChart(msd1, fmt.Sprintf("MSD of x1, lags 0..%d", len(msd1)-1), 60, 10))
	}
	return nil
}

// compareIntegrators feeds one noise matrix to each integrator so the
// differences come from the scheme alone.
func compareIntegrators(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = []string{"exact", "euler"}
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	p := cfg.Params()

	sys, err := physics.Build(p)
	if err != nil {
		return err
	}
	dW, err := noise.Generate(sys.Dim(), p.N, p.Dt, noise.NewSource(cfg.Seed))
	if err != nil {
		return err
	}

	fixed, fixedErr := sys.FixedPoint()
	if fixedErr != nil {
		log.Infof("no fixed point: %v", fixedErr)
	}

	registry := experiment.NewRegistry()

	fmt.Printf("comparing integrators (dt=%g, N=%d, seed=%d)\n\n", p.Dt, p.N, cfg.Seed)
	fmt.Printf("%-10s  %-12s  %-12s  %-12s  %-12s  %-10s\n", "integrator", "final_x1", "final_x2", "diff_first", "relax_err", "time_ms")
	fmt.Println(strings.Repeat("-", 76))

	var first dynamo.State
	for _, name := range names {
		integ, err := registry.GetIntegrator(name)
		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		X, err := sim.New(integ).Integrate(cmd.Context(), sys, dW, p.Steps())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}

		tr := sim.NewTrajectory(X, p.Dt)
		final := tr.State(tr.Len() - 1)

		diff := 0.0
		if first == nil {
			first = final
		} else {
			diff = final.Sub(first).Norm()
		}

		relax := "n/a"
		if fixedErr == nil {
			relax = fmt.Sprintf("%12.4e", relaxationError(tr, fixed))
		}

		fmt.Printf("%-10s  %12.6f  %12.6f  %12.4e  %12s  %10.2f\n",
			name, final[0], final[1], diff, relax, float64(elapsed.Microseconds())/1000)
	}

	return nil
}

// relaxationError is the distance between the mean of the second half of
// the trajectory and the noise-free equilibrium.
func relaxationError(tr *sim.Trajectory, fixed dynamo.State) float64 {
	n := tr.Len()
	mean := make(dynamo.State, tr.Particles())
	for p := range mean {
		x := tr.Positions(p)[n/2:]
		mean[p] = floats.Sum(x) / float64(len(x))
	}
	d := mean.Sub(fixed).Norm()
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tD1\tD2\tK1\tK2\tK12\tGAMMA\tN")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\t%g\t%g\t%d\n",
			name, c.Particles.D1, c.Particles.D2, c.Springs.K1, c.Springs.K2,
			c.Springs.K12, c.Medium.Gamma, c.Time.Steps)
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if err := config.Save(configOut, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", configOut)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, tr)
}
