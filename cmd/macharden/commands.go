package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/macharden/macharden/internal/config"
	"github.com/macharden/macharden/internal/logger"
	"github.com/macharden/macharden/internal/report"
	"github.com/macharden/macharden/internal/version"
	"github.com/macharden/macharden/pkg/catalog"
	"github.com/macharden/macharden/pkg/harden"
)

// engine is everything a command needs to plan or run rules.
type engine struct {
	catalog  *catalog.Catalog
	planner  *harden.Planner
	executor *harden.DefaultExecutor
}

func newEngine(cfg *config.Config) (*engine, error) {
	cat, err := catalog.Load(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	fs := afero.NewOsFs()
	probe := harden.NewDefaultProber(fs, cfg.TimeoutDuration())
	users := harden.NewDirEnumerator(fs, cfg.UsersDir, harden.DefaultExcludedEntries)

	return &engine{
		catalog:  cat,
		planner:  harden.NewPlanner(cfg.PlannerConfig(), probe, users),
		executor: harden.NewDefaultExecutor(cfg.ExecutorConfig()),
	}, nil
}

func newRootCommand() *cobra.Command {
	cfg := config.NewConfig()

	rootCmd := &cobra.Command{
		Use:   "macharden",
		Short: "Apply a macOS security hardening baseline",
		Long: `macharden brings a macOS machine in line with a hardening baseline by
running an ordered catalog of rules. Each rule inspects the machine, then runs
the system utilities needed to correct it, or reports that nothing is needed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(cmd.Flags()); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if err := logger.SetLevel(cfg.LogLevel); err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
			}
			if cfg.NoColor {
				logger.DisableColors()
			}
			return nil
		},
	}

	cfg.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newRunCommand(cfg))
	rootCmd.AddCommand(newPlanCommand(cfg))
	rootCmd.AddCommand(newListCommand(cfg))
	rootCmd.AddCommand(newServeCommand(cfg))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newRunCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run [rule-id...]",
		Short: "Apply rules (all rules when none are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, cfg, args, cfg.RunnerConfig())
		},
	}
}

func newPlanCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [rule-id...]",
		Short: "Show the commands rules would run on this machine now",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCfg := cfg.RunnerConfig()
			runCfg.DryRun = true
			return execute(cmd, cfg, args, runCfg)
		},
	}
}

func execute(cmd *cobra.Command, cfg *config.Config, ids []string, runCfg harden.RunnerConfig) error {
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}

	rules, err := eng.catalog.Select(ids)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	console := report.NewConsole(out, !cfg.NoColor && out == os.Stdout && report.ColorEnabled(os.Stdout))
	runner := harden.NewRunner(runCfg, eng.planner, eng.executor, console)

	summary := runner.Run(cmd.Context(), rules)
	console.Summary(summary)

	if !summary.OK() {
		return fmt.Errorf("%d failure(s) in run %s", summary.Failures, summary.RunID)
	}
	return nil
}

func newListCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the rules of the catalog in run order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(cfg.RulesFile)
			if err != nil {
				return err
			}
			for _, rule := range cat.Rules {
				fmt.Fprintf(cmd.OutOrStdout(), "%-55s %s\n", rule.ID, rule.Summary)
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
