package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"slidecast/internal/config"
)

const (
	defaultBaseURL      = "https://api.elevenlabs.io/v1"
	defaultModel        = "eleven_flash_v2_5"
	defaultOutputFormat = "mp3_44100_128"
	defaultTimeout      = 60 * time.Second
	defaultAttempts     = 3
)

// Config captures the ElevenLabs API settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// HTTPDoer describes the HTTP client used by the ElevenLabs client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the text-to-speech endpoint.
type Client struct {
	cfg        Config
	http       HTTPDoer
	attempts   int
	retryDelay time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetry overrides attempt count and the linear retry delay step.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.retryDelay = delay
	}
}

// NewClient constructs an ElevenLabs client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg: Config{
			APIKey:  strings.TrimSpace(cfg.APIKey),
			BaseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:   strings.TrimSpace(cfg.Model),
		},
		http:       &http.Client{Timeout: timeout},
		attempts:   defaultAttempts,
		retryDelay: 2 * time.Second,
	}
	if c.cfg.BaseURL == "" {
		c.cfg.BaseURL = defaultBaseURL
	}
	if c.cfg.Model == "" {
		c.cfg.Model = defaultModel
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.attempts <= 0 {
		c.attempts = 1
	}
	return c
}

type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("elevenlabs request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *statusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Synthesize converts text to MP3 bytes spoken by voiceID.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	text = strings.TrimSpace(text)
	voiceID = strings.TrimSpace(voiceID)
	switch {
	case c.cfg.APIKey == "":
		return nil, errors.New("elevenlabs synthesize: api key required")
	case voiceID == "":
		return nil, errors.New("elevenlabs synthesize: voice id required")
	case text == "":
		return nil, errors.New("elevenlabs synthesize: text required")
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		audio, err := c.synthesizeOnce(ctx, text, voiceID)
		if err == nil {
			return audio, nil
		}
		lastErr = err
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}
		if ctx.Err() != nil || attempt == c.attempts {
			break
		}
		if err := wait(ctx, c.retryDelay*time.Duration(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("elevenlabs synthesize: failed after %d attempts: %w", c.attempts, lastErr)
}

func (c *Client) synthesizeOnce(ctx context.Context, text, voiceID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", c.cfg.BaseURL, url.PathEscape(voiceID), defaultOutputFormat)
	body, err := json.Marshal(map[string]string{
		"text":     text,
		"model_id": c.cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &statusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if len(data) == 0 {
		return nil, errors.New("elevenlabs request: empty audio")
	}
	return data, nil
}

// HealthCheck verifies the API key against the user endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("elevenlabs health: api key required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/user", nil)
	if err != nil {
		return fmt.Errorf("elevenlabs health: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("elevenlabs health: %w", &statusError{StatusCode: resp.StatusCode, Body: string(body)})
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewFromConfig builds a client from the [elevenlabs] config section.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	if cfg == nil {
		return NewClient(Config{}, opts...)
	}
	return NewClient(Config{
		APIKey:         cfg.ElevenLabs.APIKey,
		BaseURL:        cfg.ElevenLabs.BaseURL,
		Model:          cfg.ElevenLabs.Model,
		TimeoutSeconds: cfg.ElevenLabs.TimeoutSeconds,
	}, opts...)
}
