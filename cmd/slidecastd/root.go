package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"slidecast/internal/config"
	"slidecast/internal/daemonrun"
)

type runFunc func(context.Context, *config.Config, daemonrun.Options) error

func runDaemon(ctx context.Context, cfg *config.Config, opts daemonrun.Options) error {
	return daemonrun.Run(ctx, cfg, opts)
}

func newRootCommand(run runFunc) *cobra.Command {
	var configPath string
	var opts daemonrun.Options

	cmd := &cobra.Command{
		Use:           "slidecastd",
		Short:         "Background worker for queued image generation tasks",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(strings.TrimSpace(configPath))
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "Configuration file path")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	flags.BoolVar(&opts.Development, "dev", false, "Include source locations in log output")
	flags.StringVar(&opts.Document, "document", "", "Only process tasks of this document")
	flags.BoolVar(&opts.Once, "once", false, "Run a single cycle and exit")
	flags.DurationVar(&opts.Interval, "interval", 0, "Poll interval (defaults to worker.poll_interval)")
	return cmd
}
