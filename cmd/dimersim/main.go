package main

import (
	"fmt"
	"os"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"

	"github.com/san-kum/dimersim/internal/config"
)

var log = logging.MustGetLogger("dimersim")

var formatter = logging.MustStringFormatter(`%{time:15:04:05.000} %{module} %{level:.4s} %{message}`)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	seed       int64
	integrator string
	outFile    string
	configOut  string
	pngFile    string
	maxLag     int
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	trials     int
	saveRuns   bool
)

var paramUsage = map[string]string{
	"D1":    "diffusivity of particle 1 [um^2/s]",
	"D2":    "diffusivity of particle 2 [um^2/s]",
	"k1":    "tether stiffness of particle 1",
	"k2":    "tether stiffness of particle 2",
	"k12":   "coupling stiffness",
	"L12":   "coupling rest length [um]",
	"gamma": "friction coefficient",
	"kB":    "Boltzmann constant in simulation units",
	"x10":   "initial position and tether point of particle 1 [um]",
	"x20":   "initial position and tether point of particle 2 [um]",
	"dt":    "time step [s]",
	"N":     "number of time points",
}

func addParamFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	for _, name := range config.ParamNames {
		v, _ := defaults.Param(name)
		cmd.Flags().Float64(name, v, paramUsage[name])
	}
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		if err := config.LoadOnto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	for _, name := range config.ParamNames {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetFloat64(name)
		if err != nil {
			return nil, err
		}
		if err := cfg.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("out") {
		cfg.Output = outFile
	}
	return cfg, nil
}

func setupLogging() error {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, formatter))

	level, err := logging.LogLevel(logLevel)
	if err != nil {
		return err
	}
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "dimersim",
		Short: "stochastic simulator for a spring-coupled pair of Brownian particles",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dimersim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "log level (DEBUG, INFO, WARNING, ERROR)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addParamFlags(runCmd)
	runCmd.Flags().StringVar(&integrator, "integrator", "exact", "integrator (exact, euler)")
	runCmd.Flags().StringVar(&outFile, "out", "trajectory.dat", "extra copy of the trajectory file, empty to skip")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot particle positions",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngFile, "png", "", "also save the figure as PNG")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "diffusivity, MSD and spectrum of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&maxLag, "max-lag", 100, "largest MSD lag in steps")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "compare integrators on the same noise realization",
		RunE:  compareIntegrators,
	}
	addParamFlags(compareCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "write a configuration file",
		Args:  cobra.NoArgs,
		RunE:  writeConfig,
	}
	configCmd.Flags().StringVar(&configOut, "out", "dimersim.yaml", "output path")
	configCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&saveRuns, "save", true, "store every step as a run")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter over a range with fixed noise",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addParamFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&integrator, "integrator", "exact", "integrator (exact, euler)")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "k12", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 4e-6, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "points", 5, "number of values")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run independent noise realizations and aggregate them",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addParamFlags(ensembleCmd)
	ensembleCmd.Flags().StringVar(&integrator, "integrator", "exact", "integrator (exact, euler)")
	ensembleCmd.Flags().IntVar(&trials, "trials", 32, "number of realizations")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, analyzeCmd, compareCmd, presetsCmd, configCmd, exportJSONCmd,
		scenarioCmd, sweepCmd, ensembleCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
