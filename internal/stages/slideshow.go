package stages

import (
	"context"
	"fmt"
	"os"

	"slidecast/internal/language"
	"slidecast/internal/logging"
	"slidecast/internal/services"
	"slidecast/internal/versioning"
)

// Slideshow concatenates each unit's page video into one slideshow per
// language, named for the document's expected version. A unit's page video
// at that version is preferred; otherwise its latest is used and the lag is
// logged. Units without any page video are left out.
func (r *Runner) Slideshow(ctx context.Context, document string, opts Options) (Result, error) {
	started := r.now()
	res := Result{Stage: StageSlideshow, Document: document}
	ctx, logger, units, err := r.begin(ctx, StageSlideshow, document)
	if err != nil {
		return res, err
	}
	langs := r.languages(opts)
	res.Total = len(langs)
	if r.composer == nil {
		return res, r.finish(ctx, logger, &res, started, configurationError(StageSlideshow, "ffmpeg composer"))
	}
	if res.Expected, err = r.ExpectedVersion(document); err != nil {
		return res, r.finish(ctx, logger, &res, started, err)
	}

	for _, lang := range langs {
		if err := ctx.Err(); err != nil {
			return res, r.finish(ctx, logger, &res, started, err)
		}
		dest := r.ws.SlideshowPath(document, language.SlideshowStem(lang), res.Expected)
		if !opts.Force {
			if _, err := os.Stat(dest); err == nil {
				res.Skipped++
				continue
			}
		}
		videoKind, ok := versioning.PageVideoKind(lang)
		if !ok {
			res.Failed++
			res.Failures = append(res.Failures, "unsupported language "+lang)
			continue
		}

		var inputs []string
		for _, unit := range units {
			path, ok, err := r.versions.VersionPath(unit.Dir, videoKind, res.Expected)
			if err == nil && ok {
				inputs = append(inputs, path)
				continue
			}
			latest, ok, err := r.versions.LatestVersionPath(unit.Dir, videoKind)
			if err != nil || !ok {
				logging.WarnWithContext(logger, "unit left out of slideshow", "slideshow_unit_missing",
					logging.String(logging.FieldUnit, unit.Name()),
					logging.String("language", lang),
					logging.String(logging.FieldImpact, "slideshow skips this page"),
					logging.Alert("missing_page_video"),
				)
				continue
			}
			logging.WarnWithContext(logger, "page video behind expected version", "slideshow_unit_stale",
				logging.String(logging.FieldUnit, unit.Name()),
				logging.String("language", lang),
				logging.Int("expected_version", res.Expected),
				logging.String(logging.FieldImpact, "slideshow uses an older page video"),
				logging.Alert("stale_page_video"),
			)
			inputs = append(inputs, latest)
		}
		if len(inputs) == 0 {
			res.Failed++
			res.Failures = append(res.Failures, fmt.Sprintf("%s: no page videos", lang))
			continue
		}
		if err := r.composer.Concat(ctx, inputs, dest); err != nil {
			err = services.Wrap(services.ErrExternalTool, StageSlideshow, "ffmpeg concat", lang, err)
			res.Failed++
			res.Failures = append(res.Failures, err.Error())
			continue
		}
		res.Done++
		res.Outputs = append(res.Outputs, dest)
		logger.Info("slideshow written",
			logging.String(logging.FieldEventType, "slideshow_complete"),
			logging.String("language", lang),
			logging.Int("pages", len(inputs)),
			logging.String("file", dest),
		)
	}
	return res, r.finish(ctx, logger, &res, started, nil)
}
