package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"slidecast/internal/expected"
	"slidecast/internal/logging"
	"slidecast/internal/services"
	"slidecast/internal/versioning"
	"slidecast/internal/workspace"
)

// ProducerCompose marks page videos rendered by ffmpeg.
const ProducerCompose = "ffmpeg"

// ExpectedVersion returns the document's expected version over the
// convergence kinds, never below 1.
func (r *Runner) ExpectedVersion(document string) (int, error) {
	dirs, err := r.ws.UnitDirs(document)
	if err != nil {
		return 0, err
	}
	return expected.ForDocument(r.versions, dirs, expected.ConvergenceKinds, expected.DisplayFloor)
}

// ComposePageVideos renders a page video per unit and language from the
// latest animated clip and narration, committed at the document's expected
// version. Page videos already at that version are skipped unless
// opts.Force is set. Units missing a clip or narration are skipped.
func (r *Runner) ComposePageVideos(ctx context.Context, document string, opts Options) (Result, error) {
	started := r.now()
	res := Result{Stage: StageCompose, Document: document}
	ctx, logger, units, err := r.begin(ctx, StageCompose, document)
	if err != nil {
		return res, err
	}
	langs := r.languages(opts)
	res.Total = len(units) * len(langs)
	if r.composer == nil {
		return res, r.finish(ctx, logger, &res, started, configurationError(StageCompose, "ffmpeg composer"))
	}
	if res.Expected, err = r.ExpectedVersion(document); err != nil {
		return res, r.finish(ctx, logger, &res, started, err)
	}

	t := &tally{res: &res}
	runErr := r.eachUnit(ctx, units, func(ctx context.Context, unit workspace.Unit) {
		for _, lang := range langs {
			if ctx.Err() != nil {
				return
			}
			path, skipped, err := r.composeUnit(ctx, unit, lang, res.Expected, opts.Force)
			switch {
			case err != nil:
				logging.WarnWithContext(logging.WithContext(ctx, r.logger), "page video failed", "compose_failed",
					logging.String("language", lang),
					logging.Error(err),
					logging.String(logging.FieldImpact, "slideshow uses the previous page video"),
				)
				t.failed(unit.Label()+" "+lang, err)
			case skipped:
				t.skipped()
			default:
				t.done(path)
			}
		}
	})
	return res, r.finish(ctx, logger, &res, started, runErr)
}

func (r *Runner) composeUnit(ctx context.Context, unit workspace.Unit, lang string, target int, force bool) (string, bool, error) {
	videoKind, ok := versioning.PageVideoKind(lang)
	if !ok {
		return "", false, services.Wrap(services.ErrValidation, StageCompose, "resolve kind", "unsupported language "+lang, nil)
	}
	audioKind, _ := versioning.AudioKind(lang)

	current, err := r.versions.LatestOrdinal(unit.Dir, videoKind)
	if err != nil {
		return "", false, err
	}
	if !force && current >= target {
		return "", true, nil
	}
	clip, ok, err := r.versions.LatestVersionPath(unit.Dir, versioning.KindImageVideo)
	if err != nil {
		return "", false, err
	}
	if !ok {
		r.logMissing(ctx, unit, lang, versioning.KindImageVideo)
		return "", true, nil
	}
	audio, ok, err := r.versions.LatestVersionPath(unit.Dir, audioKind)
	if err != nil {
		return "", false, err
	}
	if !ok {
		r.logMissing(ctx, unit, lang, audioKind)
		return "", true, nil
	}

	tmp := filepath.Join(unit.Dir, fmt.Sprintf(".compose_%s.mp4", lang))
	defer os.Remove(tmp)
	if err := r.composer.ComposePageVideo(ctx, clip, audio, tmp); err != nil {
		return "", false, services.Wrap(services.ErrExternalTool, StageCompose, "ffmpeg", unit.Label(), err)
	}
	_, path, err := r.versions.CommitAt(unit.Dir, videoKind, versioning.FromFile(tmp), ProducerCompose, target)
	if err != nil {
		return "", false, fmt.Errorf("store %s page video: %w", lang, err)
	}
	return path, false, nil
}

func (r *Runner) logMissing(ctx context.Context, unit workspace.Unit, lang string, kind versioning.Kind) {
	logging.WithContext(ctx, r.logger).Info("page video input missing",
		logging.String(logging.FieldEventType, "compose_input_missing"),
		logging.String("language", lang),
		logging.String(logging.FieldKind, kind.String()),
		logging.String(logging.FieldUnit, unit.Name()),
	)
}
