package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"slidecast/internal/daemonrun"
	"slidecast/internal/worker"
)

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the image generation worker",
	}
	workerCmd.AddCommand(newWorkerRunCommand(ctx))
	return workerCmd
}

func newWorkerRunCommand(ctx *commandContext) *cobra.Command {
	var opts daemonrun.Options
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process queued tasks in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ctx.logLevelFlag != nil {
				opts.LogLevel = *ctx.logLevelFlag
			}
			opts.Interval = interval
			err := daemonrun.Run(cmd.Context(), ctx.configValue(), opts)
			if errors.Is(err, worker.ErrAlreadyRunning) {
				return refused(cmd, "another worker is already running for this workspace")
			}
			return err
		},
	}
	cmd.Flags().StringVar(&opts.Document, "document", "", "Only process tasks of this document")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "Run a single cycle and exit")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (defaults to worker.poll_interval)")
	cmd.Flags().BoolVar(&opts.Development, "dev", false, "Include source locations in log output")
	return cmd
}
