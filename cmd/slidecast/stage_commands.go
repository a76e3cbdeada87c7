package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"slidecast/internal/config"
	"slidecast/internal/deps"
	"slidecast/internal/language"
	"slidecast/internal/ledger"
	"slidecast/internal/logging"
	"slidecast/internal/media/ffmpeg"
	"slidecast/internal/media/ffprobe"
	"slidecast/internal/notifications"
	"slidecast/internal/services/elevenlabs"
	"slidecast/internal/services/llm"
	"slidecast/internal/stages"
)

type stageFunc func(*stages.Runner, context.Context, string, stages.Options) (stages.Result, error)

func newStageCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newStageCommand(ctx, "rewrite", "Rewrite every page into kid-friendly English and Hindi narration", (*stages.Runner).Rewrite),
		newStageCommand(ctx, "narrate", "Synthesize narration audio for every rewritten page", (*stages.Runner).Narrate),
		newStageCommand(ctx, "compose", "Compose per-page videos at the document's expected version", (*stages.Runner).ComposePageVideos),
		newStageCommand(ctx, "slideshow", "Concatenate page videos into one slideshow per language", (*stages.Runner).Slideshow),
	}
}

func newStageCommand(ctx *commandContext, use, short string, run stageFunc) *cobra.Command {
	var force bool
	var langs []string

	cmd := &cobra.Command{
		Use:   use + " <document>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := stages.Options{Force: force}
			for _, raw := range langs {
				code, err := language.Normalize(raw)
				if err != nil {
					return err
				}
				opts.Languages = append(opts.Languages, code)
			}
			return ctx.withLedger(func(store *ledger.Store) error {
				runner := ctx.stageRunner(store)
				res, err := run(runner, cmd.Context(), args[0], opts)
				printStageResult(cmd, res)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Regenerate outputs that are already up to date")
	cmd.Flags().StringSliceVar(&langs, "lang", nil, "Limit to these narration languages (repeatable)")
	return cmd
}

func newFastForwardAllCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fastforward-all <document>",
		Short: "Fast-forward text, audio, clips, and page videos of every unit to the document's expected version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				res, err := ctx.stageRunner(store).FastForwardAll(cmd.Context(), args[0])
				printStageResult(cmd, res)
				return err
			})
		},
	}
}

// stageRunner wires only the collaborators whose credentials or binaries are
// configured; the others leave their stage reporting a configuration error.
func (c *commandContext) stageRunner(store *ledger.Store) *stages.Runner {
	cfg := c.configValue()
	logger := c.commandLogger()
	opts := []stages.Option{
		stages.WithLogger(logging.NewComponentLogger(logger, "stages")),
		stages.WithNotifier(notifications.New(cfg)),
	}
	if store != nil {
		opts = append(opts, stages.WithLedger(store))
	}
	if strings.TrimSpace(cfg.LLM.APIKey) != "" {
		opts = append(opts, stages.WithRewriter(llm.NewFromConfig(cfg)))
	}
	if strings.TrimSpace(cfg.ElevenLabs.APIKey) != "" {
		opts = append(opts, stages.WithSynthesizer(elevenlabs.NewFromConfig(cfg)))
	}
	if composer := composerFor(cfg); composer != nil {
		opts = append(opts, stages.WithComposer(composer))
	}
	return stages.NewRunner(cfg, c.versionManager(), opts...)
}

func composerFor(cfg *config.Config) *ffmpeg.Composer {
	if !deps.CheckFFmpeg(cfg.FFmpegBinary()).Available {
		return nil
	}
	prober := ffprobe.NewProber(deps.FFprobeFor(cfg.FFmpegBinary()))
	return ffmpeg.NewComposer(cfg.FFmpegBinary(), cfg.Composition.FPS).WithProber(prober)
}

func printStageResult(cmd *cobra.Command, res stages.Result) {
	if res.Stage == "" {
		return
	}
	out := cmd.OutOrStdout()
	summary := fmt.Sprintf("%s %s: %d done, %d skipped, %d failed of %d",
		res.Stage, res.Document, res.Done, res.Skipped, res.Failed, res.Total)
	if res.Expected > 0 {
		summary += fmt.Sprintf(" (expected v%d)", res.Expected)
	}
	fmt.Fprintln(out, summary)
	for _, output := range res.Outputs {
		fmt.Fprintf(out, "  + %s\n", output)
	}
	for _, failure := range res.Failures {
		fmt.Fprintf(out, "  ! %s\n", failure)
	}
}
