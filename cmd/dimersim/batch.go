package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/dimersim/internal/automation"
	"github.com/san-kum/dimersim/internal/experiment"
	"github.com/san-kum/dimersim/internal/storage"
	"github.com/san-kum/dimersim/internal/viz"
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	results, err := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry())
	if err != nil {
		return err
	}

	var st *storage.Store
	if saveRuns {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	fmt.Printf("scenario %s: %s\n\n", sc.Name, sc.Description)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tINTEG\tSEED\tD1_EST\tD2_EST\tSEPARATION\tRUN")
	for i, r := range results {
		runID := "-"
		if st != nil {
			runID, err = st.Save(r.Config.Seed, r.Config.Params(), r.Result)
			if err != nil {
				return err
			}
		}
		name := r.Step.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		m := r.Result.Metrics
		fmt.Fprintf(w, "%s\t%s\t%d\t%.5g\t%.5g\t%.5g\t%s\n",
			name, r.Result.Integrator, r.Config.Seed,
			m["diffusivity_1"], m["diffusivity_2"], m["separation"], runID)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}
	results, err := automation.RunSweep(cmd.Context(), sweep, experiment.NewRegistry())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL_X1\tFINAL_X2\tD1_EST\tD2_EST\tSEPARATION\tENERGY\n", sweepParam)
	separations := make([]float64, 0, len(results))
	for _, r := range results {
		if !r.Stable {
			fmt.Fprintf(w, "%g\t%s\n", r.ParamValue, viz.Bad.Render("diverged"))
			continue
		}
		m := r.Metrics
		separations = append(separations, m["separation"])
		fmt.Fprintf(w, "%g\t%.5g\t%.5g\t%.5g\t%.5g\t%.5g\t%.5g\n",
			r.ParamValue, r.FinalState[0], r.FinalState[1],
			m["diffusivity_1"], m["diffusivity_2"], m["separation"], m["spring_energy"])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(separations) > 1 {
		fmt.Printf("\nseparation %s\n", viz.Sparkline(separations, len(separations)))
	}
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	mc := &automation.MonteCarloConfig{Base: cfg, NumTrials: trials}
	results, err := automation.RunMonteCarlo(cmd.Context(), mc, experiment.NewRegistry())
	if err != nil {
		return err
	}

	s := automation.Summarize(results)
	rows := []viz.Row{
		{Label: "trials", Value: fmt.Sprintf("%d", s.Trials)},
		{Label: "stable", Value: fmt.Sprintf("%d", s.Stable)},
		{Label: "seeds", Value: fmt.Sprintf("%d..%d", cfg.Seed, cfg.Seed+int64(trials)-1)},
	}
	p := cfg.Params()
	configured := []float64{p.D1, p.D2}
	for i := range s.FinalMean {
		rows = append(rows,
			viz.Row{Label: fmt.Sprintf("x%d final mean", i+1), Value: fmt.Sprintf("%.5g", s.FinalMean[i])},
			viz.Row{Label: fmt.Sprintf("x%d final var", i+1), Value: fmt.Sprintf("%.5g (free: %.5g)", s.FinalVar[i], 2*configured[i]*p.Duration())},
		)
	}
	fmt.Println(viz.Summary("ensemble", rows))

	names := make([]string, 0, len(s.MetricMean))
	for name := range s.MetricMean {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDEV")
	for _, name := range names {
		sd := s.MetricStdev[name]
		if math.IsNaN(sd) {
			fmt.Fprintf(w, "%s\t%.5g\t-\n", name, s.MetricMean[name])
			continue
		}
		fmt.Fprintf(w, "%s\t%.5g\t%.5g\n", name, s.MetricMean[name], sd)
	}
	return w.Flush()
}
