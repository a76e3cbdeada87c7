package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// TaskRun is one worker attempt at a queued task.
type TaskRun struct {
	ID            string
	CycleID       string
	Document      string
	Unit          string
	Kind          string
	TargetOrdinal int
	Status        string
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Duration returns the run's wall time, zero while running.
func (r TaskRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StartTaskRun records a running task and returns its ID.
func (s *Store) StartTaskRun(ctx context.Context, run TaskRun) (string, error) {
	id := uuid.NewString()
	_, err := s.exec(ctx,
		`INSERT INTO task_runs (id, cycle_id, document, unit, kind, target_ordinal, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, nullableString(run.CycleID), run.Document, run.Unit, run.Kind, run.TargetOrdinal, RunRunning, s.timestamp(),
	)
	if err != nil {
		return "", fmt.Errorf("start task run: %w", err)
	}
	return id, nil
}

// FinishTaskRun sets the terminal status of a task run.
func (s *Store) FinishTaskRun(ctx context.Context, id, status, errMsg string) error {
	res, err := s.exec(ctx,
		`UPDATE task_runs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status, nullableString(errMsg), s.timestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("finish task run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish task run: unknown id %s", id)
	}
	return nil
}

// AbandonRunningTasks marks runs left running by a crashed worker as failed.
func (s *Store) AbandonRunningTasks(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE task_runs SET status = ?, error_message = ?, finished_at = ? WHERE status = ?`,
		RunFailed, "worker stopped before the task finished", s.timestamp(), RunRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("abandon running tasks: %w", err)
	}
	return res.RowsAffected()
}

// RecentTaskRuns lists the newest runs, optionally for one document.
func (s *Store) RecentTaskRuns(ctx context.Context, document string, limit int) ([]TaskRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, cycle_id, document, unit, kind, target_ordinal, status, error_message, started_at, finished_at
              FROM task_runs`
	args := []any{}
	if document != "" {
		query += ` WHERE document = ?`
		args = append(args, document)
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list task runs: %w", err)
	}
	defer rows.Close()
	var out []TaskRun
	for rows.Next() {
		var (
			run                                    TaskRun
			cycle, errMsg, startedRaw, finishedRaw sql.NullString
		)
		if err := rows.Scan(&run.ID, &cycle, &run.Document, &run.Unit, &run.Kind, &run.TargetOrdinal,
			&run.Status, &errMsg, &startedRaw, &finishedRaw); err != nil {
			return nil, fmt.Errorf("scan task run: %w", err)
		}
		run.CycleID = cycle.String
		run.Error = errMsg.String
		run.StartedAt = parseTime(startedRaw)
		run.FinishedAt = parseTime(finishedRaw)
		out = append(out, run)
	}
	return out, rows.Err()
}

// StageRun summarizes one batch stage invocation over a document.
type StageRun struct {
	ID              string
	Stage           string
	Document        string
	ExpectedVersion int
	UnitsTotal      int
	UnitsDone       int
	UnitsFailed     int
	Error           string
	StartedAt       time.Time
	FinishedAt      time.Time
}

// RecordStageRun stores a finished stage run and returns its ID.
func (s *Store) RecordStageRun(ctx context.Context, run StageRun) (string, error) {
	id := run.ID
	if id == "" {
		id = uuid.NewString()
	}
	started := run.StartedAt
	if started.IsZero() {
		started = s.now()
	}
	finished := run.FinishedAt
	if finished.IsZero() {
		finished = s.now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO stage_runs (id, stage, document, expected_version, units_total, units_done, units_failed,
                                 error_message, started_at, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, run.Stage, run.Document, run.ExpectedVersion, run.UnitsTotal, run.UnitsDone, run.UnitsFailed,
		nullableString(run.Error), started.UTC().Format(time.RFC3339Nano), finished.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("record stage run: %w", err)
	}
	return id, nil
}

// RecentStageRuns lists the newest stage runs for document.
func (s *Store) RecentStageRuns(ctx context.Context, document string, limit int) ([]StageRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stage, document, expected_version, units_total, units_done, units_failed,
                error_message, started_at, finished_at
         FROM stage_runs WHERE document = ? ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		document, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list stage runs: %w", err)
	}
	defer rows.Close()
	var out []StageRun
	for rows.Next() {
		var (
			run                             StageRun
			errMsg, startedRaw, finishedRaw sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Stage, &run.Document, &run.ExpectedVersion, &run.UnitsTotal,
			&run.UnitsDone, &run.UnitsFailed, &errMsg, &startedRaw, &finishedRaw); err != nil {
			return nil, fmt.Errorf("scan stage run: %w", err)
		}
		run.Error = errMsg.String
		run.StartedAt = parseTime(startedRaw)
		run.FinishedAt = parseTime(finishedRaw)
		out = append(out, run)
	}
	return out, rows.Err()
}
