package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"slidecast/internal/config"
)

const userAgent = "slidecast/0.1"

// Notifier is the event surface used by the worker and stage runner.
type Notifier interface {
	TaskCompleted(ctx context.Context, unit, kind string, ordinal int) error
	TaskFailed(ctx context.Context, unit, kind string, ordinal int, cause error) error
	CycleCompleted(ctx context.Context, completed, failed int, elapsed time.Duration) error
	StageCompleted(ctx context.Context, stage, document string, done, failed int) error
	Test(ctx context.Context) error
}

// HTTPDoer is the subset of *http.Client the ntfy notifier needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// New builds an ntfy-backed notifier, or a no-op one when no topic is set.
func New(cfg *config.Config) Notifier {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return Noop{}
	}
	timeout := time.Duration(cfg.Notifications.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewNtfy(cfg.Notifications.NtfyTopic, &http.Client{Timeout: timeout})
}

// NewNtfy returns a notifier that posts to endpoint with client.
func NewNtfy(endpoint string, client HTTPDoer) *Ntfy {
	return &Ntfy{endpoint: strings.TrimSpace(endpoint), client: client}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

// Ntfy publishes plain-text messages to one ntfy topic.
type Ntfy struct {
	endpoint string
	client   HTTPDoer
}

func (n *Ntfy) TaskCompleted(ctx context.Context, unit, kind string, ordinal int) error {
	return n.send(ctx, message{
		title: "slidecast - Task Complete",
		body:  fmt.Sprintf("%s v%d ready for %s", kindLabel(kind), ordinal, unit),
		tags:  []string{"slidecast", "task", "completed"},
	})
}

func (n *Ntfy) TaskFailed(ctx context.Context, unit, kind string, ordinal int, cause error) error {
	reason := "unknown error"
	if cause != nil {
		reason = strings.TrimSpace(cause.Error())
	}
	return n.send(ctx, message{
		title:    "slidecast - Task Failed",
		body:     fmt.Sprintf("%s v%d failed for %s: %s", kindLabel(kind), ordinal, unit, reason),
		tags:     []string{"slidecast", "task", "failed"},
		priority: "high",
	})
}

// CycleCompleted reports cycles that processed at least one task; idle
// cycles are not published.
func (n *Ntfy) CycleCompleted(ctx context.Context, completed, failed int, elapsed time.Duration) error {
	if completed+failed == 0 {
		return nil
	}
	body := fmt.Sprintf("Processed %d task(s) in %s", completed+failed, elapsed.Round(time.Second))
	if failed > 0 {
		body += fmt.Sprintf(" (%d failed)", failed)
	}
	return n.send(ctx, message{
		title: "slidecast - Queue Drained",
		body:  body,
		tags:  []string{"slidecast", "queue"},
	})
}

func (n *Ntfy) StageCompleted(ctx context.Context, stage, document string, done, failed int) error {
	msg := message{
		title: "slidecast - " + stage,
		body:  fmt.Sprintf("%s finished for %s: %d done", stage, document, done),
		tags:  []string{"slidecast", "stage", stage},
	}
	if failed > 0 {
		msg.body += fmt.Sprintf(", %d failed", failed)
		msg.priority = "high"
	}
	return n.send(ctx, msg)
}

func (n *Ntfy) Test(ctx context.Context) error {
	return n.send(ctx, message{
		title:    "slidecast - Test",
		body:     "Notification test",
		tags:     []string{"slidecast", "test"},
		priority: "low",
	})
}

func (n *Ntfy) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil || n.endpoint == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func kindLabel(kind string) string {
	switch kind {
	case "image_edit":
		return "Image edit"
	case "image_to_video":
		return "Animated clip"
	default:
		return kind
	}
}

// Noop discards every event.
type Noop struct{}

func (Noop) TaskCompleted(context.Context, string, string, int) error       { return nil }
func (Noop) TaskFailed(context.Context, string, string, int, error) error   { return nil }
func (Noop) CycleCompleted(context.Context, int, int, time.Duration) error  { return nil }
func (Noop) StageCompleted(context.Context, string, string, int, int) error { return nil }
func (Noop) Test(context.Context) error                                     { return nil }
