package stages

import (
	"context"

	"slidecast/internal/expected"
	"slidecast/internal/logging"
	"slidecast/internal/versioning"
	"slidecast/internal/workspace"
)

// FastForwardAll copies the latest content of every convergence kind in
// every unit forward to the document's expected version. Kinds with no
// versions, or already at the expected version, are left alone.
func (r *Runner) FastForwardAll(ctx context.Context, document string) (Result, error) {
	started := r.now()
	res := Result{Stage: StageFastForward, Document: document}
	ctx, logger, units, err := r.begin(ctx, StageFastForward, document)
	if err != nil {
		return res, err
	}
	res.Total = len(units) * len(expected.ConvergenceKinds)
	if res.Expected, err = r.ExpectedVersion(document); err != nil {
		return res, r.finish(ctx, logger, &res, started, err)
	}

	t := &tally{res: &res}
	runErr := r.eachUnit(ctx, units, func(ctx context.Context, unit workspace.Unit) {
		for _, kind := range expected.ConvergenceKinds {
			advanced, err := r.versions.FastForward(unit.Dir, kind, res.Expected, versioning.ProducerFastForward)
			switch {
			case err != nil:
				logging.WarnWithContext(logging.WithContext(ctx, r.logger), "fast-forward failed", "fast_forward_failed",
					logging.String(logging.FieldKind, kind.String()),
					logging.Error(err),
				)
				t.failed(unit.Label()+" "+kind.String(), err)
			case advanced:
				t.done(unit.Name() + "/" + kind.String())
			default:
				t.skipped()
			}
		}
	})
	return res, r.finish(ctx, logger, &res, started, runErr)
}
