package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slidecast/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, external binaries, and API credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			sections := []struct {
				title string
				lines []string
			}{
				{"Checks", preflightLines(results, colorize)},
				{"Dependencies", dependencyLines(preflight.CheckSystemDeps(cfg), colorize)},
				{"Stages", stageHealthLines(ctx.stageRunner(nil).HealthCheck(), colorize)},
			}
			for i, section := range sections {
				if i > 0 {
					fmt.Fprintln(out)
				}
				for _, line := range renderSectionHeader(section.title, colorize) {
					fmt.Fprintln(out, line)
				}
				for _, line := range section.lines {
					fmt.Fprintln(out, line)
				}
			}

			if failed, ok := preflight.FirstRequiredFailure(results); ok {
				return fmt.Errorf("preflight failed: %s: %s", failed.Name, failed.Detail)
			}
			return nil
		},
	}
}
