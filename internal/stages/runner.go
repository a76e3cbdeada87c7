package stages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"slidecast/internal/config"
	"slidecast/internal/ledger"
	"slidecast/internal/logging"
	"slidecast/internal/notifications"
	"slidecast/internal/services"
	"slidecast/internal/services/llm"
	"slidecast/internal/versioning"
	"slidecast/internal/workspace"
)

// Stage names recorded in logs and the ledger.
const (
	StageRewrite     = "rewrite"
	StageNarrate     = "narrate"
	StageCompose     = "compose"
	StageSlideshow   = "slideshow"
	StageFastForward = "fast-forward"
)

// Rewriter produces bilingual narration text for one page.
type Rewriter interface {
	RewriteForKids(ctx context.Context, req llm.RewriteRequest) (llm.Rewrite, error)
}

// Synthesizer turns narration text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Composer renders page videos and slideshows.
type Composer interface {
	ComposePageVideo(ctx context.Context, clip, audio, dest string) error
	Concat(ctx context.Context, inputs []string, dest string) error
}

// Options tune a single stage invocation.
type Options struct {
	// Force regenerates outputs that are already up to date.
	Force bool
	// Languages limits narration and composition to these codes; empty uses
	// the configured narration languages.
	Languages []string
}

// Result summarizes a stage invocation over one document.
type Result struct {
	Stage    string
	Document string
	Expected int
	Total    int
	Done     int
	Skipped  int
	Failed   int
	Outputs  []string
	Failures []string
}

// Runner executes stages against the configured workspace.
type Runner struct {
	cfg      *config.Config
	ws       *workspace.Workspace
	versions *versioning.Manager
	ledger   *ledger.Store
	logger   *slog.Logger
	notify   notifications.Notifier

	rewriter    Rewriter
	synthesizer Synthesizer
	composer    Composer
	now         func() time.Time
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLedger records every stage run in store.
func WithLedger(store *ledger.Store) Option {
	return func(r *Runner) { r.ledger = store }
}

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithNotifier publishes a summary after every stage run.
func WithNotifier(n notifications.Notifier) Option {
	return func(r *Runner) {
		if n != nil {
			r.notify = n
		}
	}
}

// WithRewriter sets the rewrite collaborator.
func WithRewriter(rw Rewriter) Option {
	return func(r *Runner) { r.rewriter = rw }
}

// WithSynthesizer sets the narration collaborator.
func WithSynthesizer(s Synthesizer) Option {
	return func(r *Runner) { r.synthesizer = s }
}

// WithComposer sets the video collaborator.
func WithComposer(c Composer) Option {
	return func(r *Runner) { r.composer = c }
}

// NewRunner builds a Runner. Collaborators left unset make their stage fail
// with a configuration error.
func NewRunner(cfg *config.Config, versions *versioning.Manager, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		ws:       workspace.New(cfg.Paths.WorkspaceDir),
		versions: versions,
		logger:   logging.NewNop(),
		notify:   notifications.Noop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.versions == nil {
		r.versions = versioning.NewManager(r.logger)
	}
	r.logger = logging.NewComponentLogger(r.logger, "stages")
	return r
}

// Workspace returns the workspace the runner operates on.
func (r *Runner) Workspace() *workspace.Workspace { return r.ws }

func (r *Runner) languages(opts Options) []string {
	if len(opts.Languages) > 0 {
		return opts.Languages
	}
	return r.cfg.Narration.Languages
}

func (r *Runner) concurrency() int {
	return max(r.cfg.Composition.Concurrency, 1)
}

// begin resolves the document's units and returns a stage context and logger.
func (r *Runner) begin(ctx context.Context, stage, document string) (context.Context, *slog.Logger, []workspace.Unit, error) {
	units, err := r.ws.Units(document)
	if err != nil {
		return ctx, r.logger, nil, err
	}
	ctx = services.WithStage(services.WithDocument(ctx, document), stage)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("units", len(units)),
	)
	return ctx, logger, units, nil
}

// tally collects per-unit outcomes from concurrent workers.
type tally struct {
	mu  sync.Mutex
	res *Result
}

func (t *tally) done(output string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.res.Done++
	if output != "" {
		t.res.Outputs = append(t.res.Outputs, output)
	}
}

func (t *tally) skipped() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.res.Skipped++
}

func (t *tally) failed(label string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.res.Failed++
	t.res.Failures = append(t.res.Failures, fmt.Sprintf("%s: %v", label, err))
}

// eachUnit runs fn for every unit with at most the configured concurrency.
// A unit is never handed to two workers at once.
func (r *Runner) eachUnit(ctx context.Context, units []workspace.Unit, fn func(context.Context, workspace.Unit)) error {
	g := new(errgroup.Group)
	g.SetLimit(r.concurrency())
	for _, unit := range units {
		if ctx.Err() != nil {
			break
		}
		unit := unit
		g.Go(func() error {
			fn(services.WithUnit(ctx, unit.Name()), unit)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

// finish logs and records the run, returning an error tagged with marker when
// any unit failed.
func (r *Runner) finish(ctx context.Context, logger *slog.Logger, res *Result, started time.Time, runErr error) error {
	if runErr == nil && res.Failed > 0 {
		runErr = services.Wrap(services.ErrExternalTool, res.Stage, "process units",
			fmt.Sprintf("%d of %d units failed", res.Failed, res.Total),
			errors.New(strings.Join(res.Failures, "; ")))
	}
	attrs := []logging.Attr{
		logging.Int("expected_version", res.Expected),
		logging.Int("done", res.Done),
		logging.Int("skipped", res.Skipped),
		logging.Int("failed", res.Failed),
		logging.Duration("elapsed", r.now().Sub(started)),
	}
	if runErr != nil {
		attrs = append(attrs,
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, services.FailureHint(runErr)),
		)
		logging.ErrorWithContext(logger, "stage failed", "stage_failure", attrs...)
	} else {
		logger.Info("stage completed", logging.Args(append(attrs, logging.String(logging.FieldEventType, "stage_complete"))...)...)
	}
	if r.ledger != nil {
		run := ledger.StageRun{
			Stage:           res.Stage,
			Document:        res.Document,
			ExpectedVersion: res.Expected,
			UnitsTotal:      res.Total,
			UnitsDone:       res.Done,
			UnitsFailed:     res.Failed,
			StartedAt:       started,
			FinishedAt:      r.now(),
		}
		if runErr != nil {
			run.Error = runErr.Error()
		}
		if _, err := r.ledger.RecordStageRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn("stage run not recorded", logging.Error(err))
		}
	}
	if res.Done+res.Failed > 0 {
		if err := r.notify.StageCompleted(context.WithoutCancel(ctx), res.Stage, res.Document, res.Done, res.Failed); err != nil {
			logger.Warn("notification not delivered", logging.Error(err))
		}
	}
	return runErr
}

func configurationError(stage, what string) error {
	return services.Wrap(services.ErrConfiguration, stage, "setup", what+" not configured", nil)
}
