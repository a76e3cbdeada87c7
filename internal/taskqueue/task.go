package taskqueue

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"slidecast/internal/services"
)

// Kind identifies the generation request type.
type Kind string

const (
	KindImageEdit    Kind = "image_edit"
	KindImageToVideo Kind = "image_to_video"
)

// Kinds lists every task kind in processing order.
var Kinds = []Kind{KindImageEdit, KindImageToVideo}

// ParseKind resolves "image_edit" / "image_to_video" (dashes accepted).
func ParseKind(value string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_"))
	switch k {
	case KindImageEdit, KindImageToVideo:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown task kind %q", services.ErrValidation, value)
	}
}

func (k Kind) valid() bool { return k == KindImageEdit || k == KindImageToVideo }

func (k Kind) prefix() string { return string(k) + "_prompt_for_v" }

func (k Kind) title() string {
	if k == KindImageToVideo {
		return "Image To Video Prompt"
	}
	return "Image Edit Prompt"
}

// FileName returns the pending task file name for a target ordinal.
func (k Kind) FileName(target int) string {
	return fmt.Sprintf("%s%d.txt", k.prefix(), target)
}

// Status is the lifecycle state recorded in a task file.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

const (
	archiveCompleted = ".completed"
	archiveFailed    = ".failed"
)

var (
	// ErrNotPending is returned when claiming a task that is no longer pending.
	ErrNotPending = errors.New("task is not pending")
	// ErrTaskInProgress is returned when enqueueing over a task being processed.
	ErrTaskInProgress = errors.New("task is being processed")
)

// Task is one queued generation request.
type Task struct {
	Path          string
	UnitDir       string
	Kind          Kind
	TargetOrdinal int
	Status        Status
	Prompt        string
	QueuedAt      time.Time
	StartedAt     time.Time
	FinishedAt    time.Time
	Error         string
}

// Name returns the task file's base name.
func (t *Task) Name() string { return filepath.Base(t.Path) }

// Stem returns the file name without the .txt extension and archive suffix.
func (t *Task) Stem() string {
	name := t.Name()
	for _, suffix := range []string{archiveCompleted, archiveFailed} {
		if strings.HasSuffix(name, suffix) {
			name = trimGeneration(strings.TrimSuffix(name, suffix))
			break
		}
	}
	return strings.TrimSuffix(name, ".txt")
}

// trimGeneration drops the ".<n>" that tells repeated archives of one target
// apart, as in image_edit_prompt_for_v2.txt.2.failed.
func trimGeneration(base string) string {
	idx := strings.LastIndex(base, ".txt.")
	if idx < 0 {
		return base
	}
	digits := base[idx+len(".txt."):]
	if n, err := strconv.Atoi(digits); err != nil || n < 2 || strconv.Itoa(n) != digits {
		return base
	}
	return base[:idx+len(".txt")]
}

// Archived reports whether the task reached a terminal state.
func (t *Task) Archived() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// parseName extracts kind, target ordinal, and archive suffix from a task file name.
func parseName(name string) (Kind, int, string, bool) {
	suffix := ""
	base := name
	for _, s := range []string{archiveCompleted, archiveFailed} {
		if strings.HasSuffix(base, s) {
			suffix = s
			base = trimGeneration(strings.TrimSuffix(base, s))
			break
		}
	}
	if !strings.HasSuffix(base, ".txt") {
		return "", 0, "", false
	}
	base = strings.TrimSuffix(base, ".txt")
	for _, k := range Kinds {
		if !strings.HasPrefix(base, k.prefix()) {
			continue
		}
		digits := strings.TrimPrefix(base, k.prefix())
		n, err := strconv.Atoi(digits)
		if err != nil || n < 1 || strconv.Itoa(n) != digits {
			return "", 0, "", false
		}
		return k, n, suffix, true
	}
	return "", 0, "", false
}
