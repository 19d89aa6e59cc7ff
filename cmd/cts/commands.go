package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openpar/cts/backend/occa"
	"github.com/openpar/cts/harness"
	"github.com/openpar/cts/reduction"
	"github.com/openpar/cts/selector"
)

var (
	configPath string
	suiteName  string
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "cts",
		Short: "Conformance test suite for aspect selection and multi-reduction",
		Long: `cts runs conformance suites against an OCCA-backed runtime:
device selection by aspect, and multi-reduction kernel execution.`,
		SilenceUsage: true,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the conformance suites and report results",
		RunE:  runSuites,
	}

	devicesCmd = &cobra.Command{
		Use:   "devices",
		Short: "Enumerate the devices the runtime can see",
		RunE:  listDevices,
	}

	casesCmd = &cobra.Command{
		Use:   "cases",
		Short: "List every case the configured run would execute",
		RunE:  listCases,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "cts.yaml",
		"YAML run configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"log case-level detail")
	runCmd.Flags().StringVar(&suiteName, "suite", "all",
		"suite to run (all, selector, reduction)")
	casesCmd.Flags().StringVar(&suiteName, "suite", "all",
		"suite to list (all, selector, reduction)")

	rootCmd.AddCommand(runCmd, devicesCmd, casesCmd)
}

func setup(cmd *cobra.Command) (Config, *slog.Logger, error) {
	explicit := cmd.Flags().Changed("config") ||
		cmd.InheritedFlags().Changed("config")
	cfg, err := loadConfig(configPath, explicit)
	if err != nil {
		return cfg, nil, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	} else if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return cfg, nil, fmt.Errorf("bad log_level %q: %w", cfg.LogLevel, err)
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

func buildSuites(cfg Config, rt *occa.Runtime, logger *slog.Logger) []*harness.Suite {
	var suites []*harness.Suite
	if cfg.suiteEnabled("selector", suiteName) {
		suites = append(suites, selector.BuildSuite(rt, cfg.selectorOptions(), logger))
	}
	if cfg.suiteEnabled("reduction", suiteName) {
		suites = append(suites, reduction.BuildSuite(rt, cfg.reductionOptions(), logger))
	}
	return suites
}

func runSuites(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := occa.NewRuntime(cfg.modeProps(), logger)
	defer rt.Free()
	logger.Info("runtime ready", "devices", len(rt.Devices()))

	var all []harness.Result
	for _, s := range buildSuites(cfg, rt, logger) {
		results := s.Run(ctx)
		for _, r := range results {
			if r.Status == harness.StatusPass && !verbose {
				continue
			}
			fmt.Printf("%s  %s/%s (%s)\n", r.Status, r.Suite, r.Case, r.ID)
			for _, msg := range r.Messages {
				fmt.Printf("    %s\n", msg)
			}
		}
		all = append(all, results...)
	}

	pass, fail, skip := harness.Summarize(all)
	fmt.Printf("\n%d passed, %d failed, %d skipped\n", pass, fail, skip)
	if ctx.Err() != nil {
		return fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	if fail > 0 {
		return fmt.Errorf("%d conformance failures", fail)
	}
	return nil
}

func listDevices(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	rt := occa.NewRuntime(cfg.modeProps(), logger)
	defer rt.Free()

	devices := rt.Devices()
	if len(devices) == 0 {
		fmt.Println("no devices available")
		return nil
	}
	for _, d := range devices {
		fmt.Printf("%s\n", d.Name())
		fmt.Printf("  platform: %s\n", d.Platform().Name())
		fmt.Printf("  aspects:")
		for _, a := range occaAspects(d) {
			fmt.Printf(" %s", a)
		}
		fmt.Println()
	}
	return nil
}

func listCases(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	// Case inventories do not depend on live devices; probe nothing.
	rt := occa.NewRuntime([]string{}, logger)
	for _, s := range buildSuites(cfg, rt, logger) {
		for _, c := range s.Cases() {
			fmt.Printf("%s  %s/%s\n", s.CaseID(c.Name), s.Name(), c.Name)
		}
	}
	return nil
}
