package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"slidecast/internal/config"
	"slidecast/internal/ledger"
	"slidecast/internal/logging"
	"slidecast/internal/notifications"
	"slidecast/internal/services/replicate"
	"slidecast/internal/taskqueue"
	"slidecast/internal/versioning"
	"slidecast/internal/workspace"
)

// ErrAlreadyRunning is returned when another worker holds the lock.
var ErrAlreadyRunning = errors.New("another slidecast worker is already running")

// Generator runs the generation models behind queued tasks.
type Generator interface {
	EditImage(ctx context.Context, req replicate.EditRequest, dest string) error
	AnimateImage(ctx context.Context, req replicate.VideoRequest, dest string) error
}

// RunOptions control a worker run.
type RunOptions struct {
	// Document limits processing to one document; empty processes all.
	Document string
	// Once runs a single cycle and returns.
	Once bool
	// Interval overrides the configured poll interval.
	Interval time.Duration
}

// CycleStats summarizes one pass over the queue.
type CycleStats struct {
	ID        string
	Units     int
	Completed int
	Failed    int
}

// Processed returns the number of tasks that reached a terminal state.
func (s CycleStats) Processed() int { return s.Completed + s.Failed }

// Worker drains the task queue.
type Worker struct {
	cfg      *config.Config
	ws       *workspace.Workspace
	versions *versioning.Manager
	queue    *taskqueue.Queue
	gen      Generator
	ledger   *ledger.Store
	logger   *slog.Logger
	notify   notifications.Notifier
	lock     *flock.Flock
	sleep    func(context.Context, time.Duration) error
}

// Option customizes a Worker.
type Option func(*Worker)

// WithLedger records task runs in store.
func WithLedger(store *ledger.Store) Option {
	return func(w *Worker) { w.ledger = store }
}

// WithLogger sets the worker's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithNotifier publishes task and cycle outcomes through n.
func WithNotifier(n notifications.Notifier) Option {
	return func(w *Worker) {
		if n != nil {
			w.notify = n
		}
	}
}

// WithQueue replaces the task queue.
func WithQueue(q *taskqueue.Queue) Option {
	return func(w *Worker) {
		if q != nil {
			w.queue = q
		}
	}
}

// New constructs a Worker.
func New(cfg *config.Config, versions *versioning.Manager, gen Generator, opts ...Option) *Worker {
	w := &Worker{
		cfg:      cfg,
		ws:       workspace.New(cfg.Paths.WorkspaceDir),
		versions: versions,
		queue:    taskqueue.New(),
		gen:      gen,
		logger:   logging.NewNop(),
		notify:   notifications.Noop{},
		lock:     flock.New(cfg.WorkerLockPath()),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.versions == nil {
		w.versions = versioning.NewManager(w.logger)
	}
	w.logger = logging.NewComponentLogger(w.logger, "worker")
	return w
}

// Run acquires the worker lock, recovers stale claims, and processes the
// queue until ctx is cancelled (or after one cycle with opts.Once).
func (w *Worker) Run(ctx context.Context, opts RunOptions) error {
	if err := os.MkdirAll(filepath.Dir(w.cfg.WorkerLockPath()), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.lock.Unlock(); err != nil {
			w.logger.Warn("failed to release worker lock", logging.Error(err))
		}
	}()

	interval := opts.Interval
	if interval <= 0 {
		interval = w.cfg.PollInterval()
	}
	w.logger.Info("worker started",
		logging.String(logging.FieldEventType, "worker_start"),
		logging.String("lock", w.cfg.WorkerLockPath()),
		logging.String(logging.FieldDocument, opts.Document),
		logging.Duration("interval", interval),
		logging.Bool("once", opts.Once),
	)
	if err := w.Recover(ctx, opts.Document); err != nil {
		logging.WarnWithContext(w.logger, "stale task recovery failed", "worker_recover_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "tasks left processing by a crashed worker stay stuck"),
			logging.String(logging.FieldErrorHint, "requeue stuck tasks with slidecast queue requeue"),
		)
	}

	for {
		stats, err := w.RunCycle(ctx, opts.Document)
		if opts.Once {
			return err
		}
		wait := interval
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logging.ErrorWithContext(w.logger, "worker cycle failed", "worker_cycle_failed",
				logging.Error(err),
				logging.String(logging.FieldCorrelationID, stats.ID),
				logging.String(logging.FieldErrorHint, "check workspace directory access"),
			)
			wait = w.cfg.ErrorRetryInterval()
		}
		if w.sleep(ctx, wait) != nil {
			break
		}
	}
	w.logger.Info("worker stopped", logging.String(logging.FieldEventType, "worker_stop"))
	return nil
}

// Recover resets tasks stuck in processing back to pending and closes the
// ledger runs a crashed worker left open.
func (w *Worker) Recover(ctx context.Context, document string) error {
	units, err := w.ws.AllUnits(document)
	if err != nil {
		return err
	}
	reset := 0
	var errs []error
	for _, unit := range units {
		n, err := w.queue.ResetProcessing(unit.Dir)
		reset += n
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", unit.Label(), err))
		}
	}
	if w.ledger != nil {
		if _, err := w.ledger.AbandonRunningTasks(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if reset > 0 {
		w.logger.Info("stale tasks returned to queue",
			logging.String(logging.FieldEventType, "worker_tasks_reset"),
			logging.Int("count", reset),
		)
	}
	return errors.Join(errs...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func newCycleID() string { return uuid.NewString() }
