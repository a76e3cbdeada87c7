// Package daemonrun hosts the worker process runtime shared by slidecastd and
// "slidecast worker run": signal handling, the per-run log file, log
// retention, the ledger, and the worker loop.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"slidecast/internal/config"
	"slidecast/internal/deps"
	"slidecast/internal/ledger"
	"slidecast/internal/logging"
	"slidecast/internal/logs"
	"slidecast/internal/notifications"
	"slidecast/internal/services/replicate"
	"slidecast/internal/versioning"
	"slidecast/internal/worker"
)

// Options configures worker process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Document    string
	Once        bool
	Interval    time.Duration
}

// Run starts the worker and blocks until it stops.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("slidecastd-%s.log", runID))

	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update slidecastd.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "slidecastd-*.log", Exclude: []string{logPath}},
	)

	store, err := ledger.Open(cfg)
	if err != nil {
		logger.Error("open ledger", logging.Error(err))
		return err
	}
	defer store.Close()

	w := worker.New(cfg, versioning.NewManager(logger), generatorFor(cfg),
		worker.WithLedger(store),
		worker.WithLogger(logger),
		worker.WithNotifier(notifications.New(cfg)),
	)
	err = w.Run(signalCtx, worker.RunOptions{
		Document: opts.Document,
		Once:     opts.Once,
		Interval: opts.Interval,
	})
	if errors.Is(err, worker.ErrAlreadyRunning) {
		logger.Error("worker start refused",
			logging.Error(err),
			logging.String(logging.FieldEventType, "worker_start_refused"),
			logging.String(logging.FieldErrorHint, "stop the other slidecastd instance first"),
		)
	}
	return err
}

// generatorFor returns the replicate client when a token is configured. A
// nil generator makes every task fail with a configuration error.
func generatorFor(cfg *config.Config) worker.Generator {
	if strings.TrimSpace(cfg.Replicate.APIToken) == "" {
		return nil
	}
	return replicate.NewFromConfig(cfg)
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := logs.CurrentPath(logDir)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ffmpeg := deps.CheckFFmpeg(cfg.FFmpegBinary())
	ffprobe := deps.CheckBinaries([]deps.Requirement{{Name: "FFprobe", Command: deps.FFprobeFor(ffmpeg.Command)}})[0]
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("replicate_token_present", strings.TrimSpace(cfg.Replicate.APIToken) != ""),
		logging.String("image_edit_model", cfg.Worker.ImageEditModel),
		logging.String("image_to_video_model", cfg.Worker.ImageToVideoModel),
		logging.Bool("ffmpeg_available", ffmpeg.Available),
		logging.String("ffmpeg_binary", ffmpeg.Command),
		logging.Bool("ffprobe_available", ffprobe.Available),
		logging.String("workspace_dir", cfg.Paths.WorkspaceDir),
	)
}
