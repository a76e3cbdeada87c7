package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"slidecast/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var opts logs.TailOptions
	var path string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the worker log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = logs.CurrentPath(ctx.configValue().Paths.LogDir)
			}
			if _, err := os.Stat(path); os.IsNotExist(err) && !opts.Follow {
				return refused(cmd, "no worker log at %s", path)
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			out := cmd.OutOrStdout()
			return logs.Tail(runCtx, path, opts, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	cmd.Flags().IntVarP(&opts.Lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&opts.Follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&opts.Match, "grep", "", "Only show lines containing this text")
	cmd.Flags().StringVar(&path, "file", "", "Log file to read (defaults to the current worker log)")
	return cmd
}
