package taskqueue

import (
	"fmt"
	"strings"
	"time"
)

const (
	metaStatus    = "status"
	metaQueued    = "queued at"
	metaStarted   = "processing started"
	metaCompleted = "completed at"
	metaFailed    = "failed at"
	metaError     = "error"
)

var trailingMetaKeys = map[string]struct{}{
	metaStatus: {}, metaStarted: {}, metaCompleted: {}, metaFailed: {}, metaError: {},
}

// parseContent reads both on-disk formats: a prompt preceded by "#" metadata
// lines, or a bare prompt optionally followed by appended metadata lines.
func parseContent(t *Task, content string) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	headerMode := len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "#")

	meta := map[string]string{}
	var prompt []string
	if headerMode {
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "#") {
				if key, value, ok := splitMeta(trimmed); ok {
					meta[key] = value
				}
				continue
			}
			if trimmed == "" {
				continue
			}
			prompt = append(prompt, line)
		}
	} else {
		end := len(lines)
		for end > 0 {
			trimmed := strings.TrimSpace(lines[end-1])
			if trimmed == "" {
				end--
				continue
			}
			key, value, ok := splitMeta(trimmed)
			if !ok {
				break
			}
			if _, known := trailingMetaKeys[key]; !known {
				break
			}
			meta[key] = value
			end--
		}
		prompt = lines[:end]
	}

	t.Prompt = strings.TrimSpace(strings.Join(prompt, "\n"))
	t.Error = meta[metaError]
	t.QueuedAt = parseTime(meta[metaQueued])
	t.StartedAt = parseTime(meta[metaStarted])
	if ts := parseTime(meta[metaCompleted]); !ts.IsZero() {
		t.FinishedAt = ts
	} else {
		t.FinishedAt = parseTime(meta[metaFailed])
	}

	switch Status(strings.ToUpper(meta[metaStatus])) {
	case StatusPending:
		t.Status = StatusPending
	case StatusProcessing:
		t.Status = StatusProcessing
	case StatusCompleted:
		t.Status = StatusCompleted
	case StatusFailed:
		t.Status = StatusFailed
	default:
		if !t.StartedAt.IsZero() {
			t.Status = StatusProcessing
		} else {
			t.Status = StatusPending
		}
	}
}

func splitMeta(line string) (string, string, bool) {
	body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	key, value, ok := strings.Cut(body, ":")
	if !ok {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(value), true
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// render writes the header format used for every file this package writes.
func render(t *Task) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s for v%d\n", t.Kind.title(), t.TargetOrdinal)
	if !t.QueuedAt.IsZero() {
		fmt.Fprintf(&b, "# Queued at: %s\n", formatTime(t.QueuedAt))
	}
	fmt.Fprintf(&b, "# Status: %s\n", t.Status)
	if !t.StartedAt.IsZero() {
		fmt.Fprintf(&b, "# Processing started: %s\n", formatTime(t.StartedAt))
	}
	if !t.FinishedAt.IsZero() {
		switch t.Status {
		case StatusCompleted:
			fmt.Fprintf(&b, "# Completed at: %s\n", formatTime(t.FinishedAt))
		case StatusFailed:
			fmt.Fprintf(&b, "# Failed at: %s\n", formatTime(t.FinishedAt))
		}
	}
	if t.Error != "" {
		fmt.Fprintf(&b, "# Error: %s\n", flatten(t.Error))
	}
	b.WriteString("\n")
	b.WriteString(t.Prompt)
	b.WriteString("\n")
	return []byte(b.String())
}

func formatTime(ts time.Time) string { return ts.UTC().Format(time.RFC3339) }

func flatten(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}
