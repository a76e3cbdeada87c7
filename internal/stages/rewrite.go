package stages

import (
	"context"
	"fmt"
	"os"
	"strings"

	"slidecast/internal/logging"
	"slidecast/internal/services"
	"slidecast/internal/services/llm"
	"slidecast/internal/versioning"
	"slidecast/internal/workspace"
)

// Rewrite produces English and Hindi narration text for every unit of
// document. Units run in order because each prompt carries the narration of
// the pages before it. Units that already have both texts are skipped unless
// opts.Force is set; their existing text still feeds the running context.
func (r *Runner) Rewrite(ctx context.Context, document string, opts Options) (Result, error) {
	started := r.now()
	res := Result{Stage: StageRewrite, Document: document}
	ctx, logger, units, err := r.begin(ctx, StageRewrite, document)
	if err != nil {
		return res, err
	}
	res.Total = len(units)
	if r.rewriter == nil {
		return res, r.finish(ctx, logger, &res, started, configurationError(StageRewrite, "llm client"))
	}
	story, err := r.ws.ReadWholeStory(document)
	if err != nil {
		return res, r.finish(ctx, logger, &res, started, err)
	}
	producer := strings.TrimSpace(r.cfg.LLM.Model)

	var previous []string
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return res, r.finish(ctx, logger, &res, started, err)
		}
		unitCtx := services.WithUnit(ctx, unit.Name())
		unitLogger := logging.WithContext(unitCtx, r.logger)

		if !opts.Force {
			if en, ok := r.existingRewrite(unit); ok {
				previous = append(previous, pageContext(unit, en))
				res.Skipped++
				continue
			}
		}

		source, err := unit.ReadSourceText()
		if err != nil {
			unitLogger.Warn("unit skipped",
				logging.String(logging.FieldEventType, "rewrite_missing_source"),
				logging.String(logging.FieldImpact, "unit has no narration text"),
				logging.Error(err),
			)
			res.Skipped++
			continue
		}

		out, err := r.rewriter.RewriteForKids(unitCtx, llm.RewriteRequest{
			PageText:      source,
			WholeStory:    story,
			PreviousPages: strings.Join(previous, "\n\n"),
		})
		if err != nil {
			err = services.Wrap(services.ErrExternalTool, StageRewrite, "rewrite", unit.Label(), err)
			logging.WarnWithContext(unitLogger, "rewrite failed", "rewrite_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "unit keeps its previous narration"),
			)
			res.Failed++
			res.Failures = append(res.Failures, fmt.Sprintf("%s: %v", unit.Label(), err))
			continue
		}

		path, err := r.commitRewrite(unit, out, producer)
		if err != nil {
			res.Failed++
			res.Failures = append(res.Failures, fmt.Sprintf("%s: %v", unit.Label(), err))
			logging.WarnWithContext(unitLogger, "rewrite not stored", "rewrite_store_failed", logging.Error(err))
			continue
		}
		previous = append(previous, pageContext(unit, out.English))
		res.Done++
		res.Outputs = append(res.Outputs, path)
		unitLogger.Info("unit rewritten",
			logging.String(logging.FieldEventType, "rewrite_complete"),
			logging.String("file", path),
		)
	}
	return res, r.finish(ctx, logger, &res, started, nil)
}

// existingRewrite returns the latest English text when both languages exist.
func (r *Runner) existingRewrite(unit workspace.Unit) (string, bool) {
	en, ok := r.latestText(unit, versioning.KindEnText)
	if !ok {
		return "", false
	}
	if _, ok := r.latestText(unit, versioning.KindHiText); !ok {
		return "", false
	}
	return en, true
}

func (r *Runner) latestText(unit workspace.Unit, kind versioning.Kind) (string, bool) {
	path, ok, err := r.versions.LatestVersionPath(unit.Dir, kind)
	if err != nil || !ok {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// commitRewrite stores both languages at the same ordinal, one past the
// higher of the two current histories.
func (r *Runner) commitRewrite(unit workspace.Unit, out llm.Rewrite, producer string) (string, error) {
	target := 0
	for _, kind := range []versioning.Kind{versioning.KindEnText, versioning.KindHiText} {
		n, err := r.versions.LatestOrdinal(unit.Dir, kind)
		if err != nil {
			return "", err
		}
		target = max(target, n)
	}
	target++
	_, enPath, err := r.versions.CommitAt(unit.Dir, versioning.KindEnText, versioning.Text(out.English), producer, target)
	if err != nil {
		return "", fmt.Errorf("store english text: %w", err)
	}
	if _, _, err := r.versions.CommitAt(unit.Dir, versioning.KindHiText, versioning.Text(out.Hindi), producer, target); err != nil {
		return "", fmt.Errorf("store hindi text: %w", err)
	}
	return enPath, nil
}

func pageContext(unit workspace.Unit, text string) string {
	return fmt.Sprintf("[Page %d] %s", unit.Index, text)
}
