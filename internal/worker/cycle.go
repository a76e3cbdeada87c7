package worker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"slidecast/internal/ledger"
	"slidecast/internal/logging"
	"slidecast/internal/services"
	"slidecast/internal/services/replicate"
	"slidecast/internal/taskqueue"
	"slidecast/internal/versioning"
	"slidecast/internal/workspace"
)

// RunCycle makes one pass over the queue. Image edits run before
// image-to-video tasks so a unit's clip animates its newest image.
func (w *Worker) RunCycle(ctx context.Context, document string) (CycleStats, error) {
	stats := CycleStats{ID: newCycleID()}
	ctx = services.WithRequestID(ctx, stats.ID)
	logger := logging.WithContext(ctx, w.logger)

	units, err := w.ws.AllUnits(document)
	if err != nil {
		return stats, fmt.Errorf("list units: %w", err)
	}
	stats.Units = len(units)
	started := time.Now()

	for _, unit := range units {
		for _, kind := range taskqueue.Kinds {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			pending, err := w.queue.ListPending(unit.Dir, kind)
			if err != nil {
				logging.WarnWithContext(logger, "list pending tasks failed", "task_list_failed",
					logging.String(logging.FieldKind, string(kind)),
					logging.String(logging.FieldUnit, unit.Label()),
					logging.Error(err),
				)
				continue
			}
			for _, task := range pending {
				if err := ctx.Err(); err != nil {
					return stats, err
				}
				if w.process(ctx, unit, task) {
					stats.Completed++
				} else {
					stats.Failed++
				}
			}
		}
	}

	if stats.Processed() > 0 {
		w.publish(logger, w.notify.CycleCompleted(ctx, stats.Completed, stats.Failed, time.Since(started)))
		logger.Info("worker cycle finished",
			logging.String(logging.FieldEventType, "worker_cycle_complete"),
			logging.Int("units", stats.Units),
			logging.Int("completed", stats.Completed),
			logging.Int("failed", stats.Failed),
			logging.Duration("elapsed", time.Since(started)),
		)
	} else {
		logger.Debug("worker cycle idle", logging.Int("units", stats.Units))
	}
	return stats, nil
}

// process runs one task to a terminal state and reports success. The
// generation call is detached from ctx so a claimed task is never abandoned
// half way.
func (w *Worker) process(ctx context.Context, unit workspace.Unit, task *taskqueue.Task) bool {
	ctx = services.WithUnit(services.WithDocument(ctx, unit.Document), unit.Name())
	logger := logging.WithContext(ctx, w.logger).With(
		logging.String(logging.FieldTask, task.Name()),
		logging.String(logging.FieldKind, string(task.Kind)),
		logging.Int(logging.FieldOrdinal, task.TargetOrdinal),
	)

	if err := w.queue.Claim(task); err != nil {
		if errors.Is(err, taskqueue.ErrNotPending) {
			logger.Debug("task claimed elsewhere", logging.Error(err))
			return false
		}
		logging.WarnWithContext(logger, "task claim failed", "task_claim_failed", logging.Error(err))
		return false
	}
	logger.Info("task started", logging.String(logging.FieldEventType, "task_start"))
	runID := w.startRun(ctx, unit, task)

	path, err := w.execute(context.WithoutCancel(ctx), unit, task)
	if err != nil {
		if ferr := w.queue.Fail(task, err); ferr != nil {
			logging.WarnWithContext(logger, "task failure not archived", "task_archive_failed", logging.Error(ferr))
		}
		w.finishRun(ctx, runID, ledger.RunFailed, err)
		w.publish(logger, w.notify.TaskFailed(ctx, unit.Label(), string(task.Kind), task.TargetOrdinal, err))
		logging.WarnWithContext(logger, "task failed", "task_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no new version created"),
			logging.String(logging.FieldErrorHint, services.FailureHint(err)),
		)
		return false
	}
	if err := w.queue.Complete(task); err != nil {
		logging.WarnWithContext(logger, "task completion not archived", "task_archive_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "task may run again next cycle"),
		)
	}
	w.finishRun(ctx, runID, ledger.RunCompleted, nil)
	w.publish(logger, w.notify.TaskCompleted(ctx, unit.Label(), string(task.Kind), task.TargetOrdinal))
	logger.Info("task completed",
		logging.String(logging.FieldEventType, "task_complete"),
		logging.String("file", filepath.Base(path)),
	)
	return true
}

func (w *Worker) execute(ctx context.Context, unit workspace.Unit, task *taskqueue.Task) (string, error) {
	prompt, err := w.queue.ReadPrompt(task)
	if err != nil {
		return "", err
	}
	if w.gen == nil {
		return "", services.Wrap(services.ErrConfiguration, "worker", "generate", "replicate api token not configured", nil)
	}
	image, err := w.inputImage(unit)
	if err != nil {
		return "", err
	}

	var (
		kind  versioning.Kind
		model string
		tmp   string
	)
	switch task.Kind {
	case taskqueue.KindImageEdit:
		kind, model = versioning.KindImage, w.cfg.Worker.ImageEditModel
		tmp = filepath.Join(unit.Dir, "temp_bg_edit_"+task.Stem()+".png")
		defer os.Remove(tmp)
		err = w.gen.EditImage(ctx, replicate.EditRequest{Model: model, ImagePath: image, Prompt: prompt}, tmp)
	case taskqueue.KindImageToVideo:
		kind, model = versioning.KindImageVideo, w.cfg.Worker.ImageToVideoModel
		tmp = filepath.Join(unit.Dir, "temp_bg_video_"+task.Stem()+".mp4")
		defer os.Remove(tmp)
		err = w.gen.AnimateImage(ctx, replicate.VideoRequest{
			Model:      model,
			ImagePath:  image,
			Prompt:     prompt,
			Frames:     w.cfg.Worker.Frames,
			FPS:        w.cfg.Worker.FPS,
			Resolution: w.cfg.Worker.Resolution,
		}, tmp)
	default:
		return "", services.Wrap(services.ErrValidation, "worker", "dispatch", "unknown task kind "+string(task.Kind), nil)
	}
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "worker", string(task.Kind), model, err)
	}
	if info, statErr := os.Stat(tmp); statErr != nil || info.Size() == 0 {
		return "", services.Wrap(services.ErrExternalTool, "worker", string(task.Kind), "model returned no output", statErr)
	}
	_, path, err := w.versions.CommitAt(unit.Dir, kind, versioning.FromFile(tmp), model, task.TargetOrdinal)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", kind, err)
	}
	return path, nil
}

// inputImage returns the unit's latest primary image, falling back to the
// legacy flat file.
func (w *Worker) inputImage(unit workspace.Unit) (string, error) {
	path, ok, err := w.versions.LatestVersionPath(unit.Dir, versioning.KindImage)
	if err != nil {
		return "", err
	}
	if ok {
		return path, nil
	}
	legacy := filepath.Join(unit.Dir, versioning.KindImage.LegacyName())
	if _, err := os.Stat(legacy); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "worker", "input image", "no image in "+unit.Label(), nil)
		}
		return "", fmt.Errorf("stat %s: %w", legacy, err)
	}
	return legacy, nil
}

func (w *Worker) startRun(ctx context.Context, unit workspace.Unit, task *taskqueue.Task) string {
	if w.ledger == nil {
		return ""
	}
	cycleID, _ := services.RequestIDFromContext(ctx)
	id, err := w.ledger.StartTaskRun(ctx, ledger.TaskRun{
		CycleID:       cycleID,
		Document:      unit.Document,
		Unit:          unit.Name(),
		Kind:          string(task.Kind),
		TargetOrdinal: task.TargetOrdinal,
	})
	if err != nil {
		w.logger.Warn("task run not recorded", logging.Error(err))
		return ""
	}
	return id
}

func (w *Worker) finishRun(ctx context.Context, id, status string, cause error) {
	if w.ledger == nil || id == "" {
		return
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := w.ledger.FinishTaskRun(context.WithoutCancel(ctx), id, status, msg); err != nil {
		w.logger.Warn("task run not finalized", logging.Error(err))
	}
}

func (w *Worker) publish(logger *slog.Logger, err error) {
	if err != nil {
		logger.Warn("notification not delivered", logging.Error(err))
	}
}
