package taskqueue

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"slidecast/internal/fileutil"
	"slidecast/internal/services"
)

// Queue reads and transitions task files.
type Queue struct {
	now func() time.Time
}

// New constructs a Queue using the wall clock.
func New() *Queue {
	return &Queue{now: time.Now}
}

// Enqueue writes a pending task for target. An existing pending or archived
// task for the same target is replaced; one being processed is refused.
func (q *Queue) Enqueue(unitDir string, kind Kind, prompt string, target int) (*Task, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("%w: unknown task kind %q", services.ErrValidation, kind)
	}
	if target < 1 {
		return nil, fmt.Errorf("%w: target ordinal %d out of range", services.ErrValidation, target)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is empty", services.ErrValidation)
	}

	path := filepath.Join(unitDir, kind.FileName(target))
	if existing, err := q.load(path); err == nil && existing.Status == StatusProcessing {
		return nil, fmt.Errorf("enqueue %s: %w", kind.FileName(target), ErrTaskInProgress)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	task := &Task{
		Path:          path,
		UnitDir:       unitDir,
		Kind:          kind,
		TargetOrdinal: target,
		Status:        StatusPending,
		Prompt:        prompt,
		QueuedAt:      q.now(),
	}
	if err := fileutil.WriteFileAtomic(path, render(task), 0o644); err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", task.Name(), err)
	}
	return task, nil
}

// ListPending returns the unit's pending tasks of kind ordered by target
// ordinal.
func (q *Queue) ListPending(unitDir string, kind Kind) ([]*Task, error) {
	return q.list(unitDir, kind, func(t *Task, suffix string) bool {
		return suffix == "" && t.Status == StatusPending
	})
}

// ListActive returns pending and processing tasks of kind.
func (q *Queue) ListActive(unitDir string, kind Kind) ([]*Task, error) {
	return q.list(unitDir, kind, func(t *Task, suffix string) bool {
		return suffix == ""
	})
}

// ListArchived returns completed and failed tasks of kind.
func (q *Queue) ListArchived(unitDir string, kind Kind) ([]*Task, error) {
	return q.list(unitDir, kind, func(t *Task, suffix string) bool {
		return suffix != ""
	})
}

func (q *Queue) list(unitDir string, kind Kind, keep func(*Task, string) bool) ([]*Task, error) {
	entries, err := os.ReadDir(unitDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	var out []*Task
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		k, _, suffix, ok := parseName(entry.Name())
		if !ok || k != kind {
			continue
		}
		task, err := q.load(filepath.Join(unitDir, entry.Name()))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if keep(task, suffix) {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TargetOrdinal != out[j].TargetOrdinal {
			return out[i].TargetOrdinal < out[j].TargetOrdinal
		}
		return out[i].Name() < out[j].Name()
	})
	return out, nil
}

// Load reads a task file.
func (q *Queue) Load(path string) (*Task, error) {
	return q.load(path)
}

func (q *Queue) load(path string) (*Task, error) {
	kind, target, suffix, ok := parseName(filepath.Base(path))
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a task file", services.ErrValidation, filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	task := &Task{
		Path:          path,
		UnitDir:       filepath.Dir(path),
		Kind:          kind,
		TargetOrdinal: target,
	}
	parseContent(task, string(data))
	switch suffix {
	case archiveCompleted:
		task.Status = StatusCompleted
	case archiveFailed:
		task.Status = StatusFailed
	}
	return task, nil
}

// ReadPrompt returns the caller-supplied instruction from the task file.
func (q *Queue) ReadPrompt(task *Task) (string, error) {
	fresh, err := q.load(task.Path)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	if fresh.Prompt == "" {
		return "", fmt.Errorf("%w: %s has an empty prompt", services.ErrValidation, task.Name())
	}
	task.Prompt = fresh.Prompt
	return fresh.Prompt, nil
}

// Claim moves a pending task to processing.
func (q *Queue) Claim(task *Task) error {
	fresh, err := q.load(task.Path)
	if err != nil {
		return fmt.Errorf("claim %s: %w", task.Name(), err)
	}
	if fresh.Status != StatusPending {
		return fmt.Errorf("claim %s (%s): %w", task.Name(), fresh.Status, ErrNotPending)
	}
	fresh.Status = StatusProcessing
	fresh.StartedAt = q.now()
	if err := fileutil.WriteFileAtomic(fresh.Path, render(fresh), 0o644); err != nil {
		return fmt.Errorf("claim %s: %w", task.Name(), err)
	}
	*task = *fresh
	return nil
}

// Complete marks the task completed and archives it.
func (q *Queue) Complete(task *Task) error {
	return q.finish(task, StatusCompleted, archiveCompleted, "")
}

// Fail marks the task failed with cause and archives it.
func (q *Queue) Fail(task *Task, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return q.finish(task, StatusFailed, archiveFailed, msg)
}

func (q *Queue) finish(task *Task, status Status, suffix, errMsg string) error {
	fresh, err := q.load(task.Path)
	if err != nil {
		return fmt.Errorf("finish %s: %w", task.Name(), err)
	}
	if fresh.Archived() {
		return fmt.Errorf("finish %s: already %s", task.Name(), fresh.Status)
	}
	fresh.Status = status
	fresh.FinishedAt = q.now()
	fresh.Error = errMsg
	if err := fileutil.WriteFileAtomic(fresh.Path, render(fresh), 0o644); err != nil {
		return fmt.Errorf("finish %s: %w", task.Name(), err)
	}
	archived := archivePath(fresh.Path, suffix)
	if err := os.Rename(fresh.Path, archived); err != nil {
		return fmt.Errorf("archive %s: %w", task.Name(), err)
	}
	fresh.Path = archived
	*task = *fresh
	return nil
}

// archivePath picks the first free archive name for path. Earlier archives of
// the same target keep their names; later ones get a generation number.
func archivePath(path, suffix string) string {
	candidate := path + suffix
	for n := 2; ; n++ {
		if _, err := os.Lstat(candidate); err != nil {
			return candidate
		}
		candidate = fmt.Sprintf("%s.%d%s", path, n, suffix)
	}
}

// Requeue turns an archived task back into a pending one with the same
// prompt and target, removing the archive file.
func (q *Queue) Requeue(archived *Task) (*Task, error) {
	fresh, err := q.load(archived.Path)
	if err != nil {
		return nil, fmt.Errorf("requeue %s: %w", archived.Name(), err)
	}
	if !fresh.Archived() {
		return nil, fmt.Errorf("%w: %s is not archived", services.ErrValidation, archived.Name())
	}
	pending := filepath.Join(fresh.UnitDir, fresh.Kind.FileName(fresh.TargetOrdinal))
	if _, err := os.Stat(pending); err == nil {
		return nil, fmt.Errorf("requeue %s: %s already queued", archived.Name(), filepath.Base(pending))
	}
	task, err := q.Enqueue(fresh.UnitDir, fresh.Kind, fresh.Prompt, fresh.TargetOrdinal)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(fresh.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return task, fmt.Errorf("remove archived %s: %w", archived.Name(), err)
	}
	return task, nil
}

// ResetProcessing returns tasks left in processing by a crashed worker to
// pending. It returns the number of tasks reset.
func (q *Queue) ResetProcessing(unitDir string) (int, error) {
	reset := 0
	for _, kind := range Kinds {
		tasks, err := q.ListActive(unitDir, kind)
		if err != nil {
			return reset, err
		}
		for _, t := range tasks {
			if t.Status != StatusProcessing {
				continue
			}
			t.Status = StatusPending
			t.StartedAt = time.Time{}
			if err := fileutil.WriteFileAtomic(t.Path, render(t), 0o644); err != nil {
				return reset, fmt.Errorf("reset %s: %w", t.Name(), err)
			}
			reset++
		}
	}
	return reset, nil
}
