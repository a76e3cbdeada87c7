package stages

import (
	"context"
	"fmt"
	"strings"

	"slidecast/internal/language"
	"slidecast/internal/logging"
	"slidecast/internal/services"
	"slidecast/internal/versioning"
	"slidecast/internal/workspace"
)

// Narrate synthesizes audio for each unit's latest text in every narration
// language. The audio lands at the text's ordinal so a unit's text and audio
// share a version number. Languages whose audio is already at or past the
// text are skipped unless opts.Force is set.
func (r *Runner) Narrate(ctx context.Context, document string, opts Options) (Result, error) {
	started := r.now()
	res := Result{Stage: StageNarrate, Document: document}
	ctx, logger, units, err := r.begin(ctx, StageNarrate, document)
	if err != nil {
		return res, err
	}
	langs := r.languages(opts)
	res.Total = len(units) * len(langs)
	if r.synthesizer == nil {
		return res, r.finish(ctx, logger, &res, started, configurationError(StageNarrate, "text-to-speech client"))
	}
	producer := "elevenlabs/" + strings.TrimSpace(r.cfg.ElevenLabs.Model)

	t := &tally{res: &res}
	runErr := r.eachUnit(ctx, units, func(ctx context.Context, unit workspace.Unit) {
		for _, lang := range langs {
			if ctx.Err() != nil {
				return
			}
			label := unit.Label() + " " + lang
			path, skipped, err := r.narrateUnit(ctx, unit, lang, producer, opts.Force)
			switch {
			case err != nil:
				logging.WarnWithContext(logging.WithContext(ctx, r.logger), "narration failed", "narration_failed",
					logging.String("language", lang),
					logging.Error(err),
					logging.String(logging.FieldImpact, "unit keeps its previous audio"),
				)
				t.failed(label, err)
			case skipped:
				t.skipped()
			default:
				t.done(path)
			}
		}
	})
	return res, r.finish(ctx, logger, &res, started, runErr)
}

func (r *Runner) narrateUnit(ctx context.Context, unit workspace.Unit, lang, producer string, force bool) (string, bool, error) {
	textKind, ok := versioning.TextKind(lang)
	if !ok {
		return "", false, services.Wrap(services.ErrValidation, StageNarrate, "resolve kind",
			"unsupported language "+language.DisplayName(lang), nil)
	}
	audioKind, _ := versioning.AudioKind(lang)

	textOrdinal, err := r.versions.LatestOrdinal(unit.Dir, textKind)
	if err != nil {
		return "", false, err
	}
	if textOrdinal == 0 {
		return "", true, nil
	}
	audioOrdinal, err := r.versions.LatestOrdinal(unit.Dir, audioKind)
	if err != nil {
		return "", false, err
	}
	if !force && audioOrdinal >= textOrdinal {
		return "", true, nil
	}

	text, ok := r.latestText(unit, textKind)
	if !ok || text == "" {
		return "", true, nil
	}
	voice, ok := r.cfg.VoiceFor(lang)
	if !ok {
		return "", false, services.Wrap(services.ErrConfiguration, StageNarrate, "resolve voice",
			fmt.Sprintf("no voice configured for %s", language.DisplayName(lang)), nil)
	}
	audio, err := r.synthesizer.Synthesize(ctx, text, voice)
	if err != nil {
		return "", false, services.Wrap(services.ErrExternalTool, StageNarrate, "synthesize", unit.Label(), err)
	}
	_, path, err := r.versions.CommitAt(unit.Dir, audioKind, versioning.Bytes(audio), producer, textOrdinal)
	if err != nil {
		return "", false, fmt.Errorf("store %s audio: %w", lang, err)
	}
	return path, false, nil
}
