package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"rentcomps/internal/adapters/observability"
	"rentcomps/internal/bootstrap"
	"rentcomps/internal/shared"
)

type globalFlags struct {
	offline bool
	seed    int64
	verbose bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "compscan",
		Short:         "Rent comparables and pricing analysis from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&g.offline, "offline", false, "use only the synthetic fallback (no network)")
	root.PersistentFlags().Int64Var(&g.seed, "seed", 0, "synthetic generator seed (0 = config or clock)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(newAnalyzeCmd(g), newSourcesCmd(g), newBatchCmd(g))
	return root
}

// setup loads config and assembles the pipeline. Logs go to stderr; stdout carries results.
func setup(g *globalFlags) (shared.Config, bootstrap.Deps, error) {
	cfg, err := shared.Load()
	if err != nil {
		return shared.Config{}, bootstrap.Deps{}, err
	}
	level := "warn"
	if g.verbose {
		level = "debug"
	}
	log.Logger = observability.WithLevel(observability.NewLoggerTo(os.Stderr, cfg.AppEnv), level)

	if g.seed != 0 {
		cfg.Engine.Seed = g.seed
	}
	return cfg, bootstrap.Build(cfg, bootstrap.Options{Offline: g.offline}), nil
}
