package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"slidecast/internal/config"
)

const (
	defaultBaseURL      = "https://api.replicate.com/v1"
	defaultTimeout      = 10 * time.Minute
	defaultPollInterval = 2 * time.Second
	requestTimeout      = 60 * time.Second
)

// Prediction statuses reported by the API.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Config captures the Replicate API settings.
type Config struct {
	APIToken            string
	BaseURL             string
	TimeoutSeconds      int
	PollIntervalSeconds int
}

// HTTPDoer describes the HTTP client used by the Replicate client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Replicate predictions API.
type Client struct {
	token        string
	baseURL      string
	timeout      time.Duration
	pollInterval time.Duration
	http         HTTPDoer
	sleep        func(context.Context, time.Duration) error
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

// WithPollInterval overrides the status polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// NewClient constructs a Replicate client.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		token:        strings.TrimSpace(cfg.APIToken),
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		timeout:      defaultTimeout,
		pollInterval: defaultPollInterval,
		http:         &http.Client{Timeout: requestTimeout},
		sleep:        sleepContext,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if cfg.TimeoutSeconds > 0 {
		c.timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.PollIntervalSeconds > 0 {
		c.pollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Prediction is the subset of the prediction resource the client reads.
type Prediction struct {
	ID     string          `json:"id"`
	Model  string          `json:"model"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
	Logs   string          `json:"logs"`
}

// Terminal reports whether the prediction stopped running.
func (p *Prediction) Terminal() bool {
	switch p.Status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// OutputURLs returns output URLs whether the model produced one or many.
func (p *Prediction) OutputURLs() []string {
	if len(p.Output) == 0 || string(p.Output) == "null" {
		return nil
	}
	var single string
	if err := json.Unmarshal(p.Output, &single); err == nil {
		if single = strings.TrimSpace(single); single != "" {
			return []string{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(p.Output, &many); err == nil {
		out := make([]string, 0, len(many))
		for _, u := range many {
			if u = strings.TrimSpace(u); u != "" {
				out = append(out, u)
			}
		}
		return out
	}
	return nil
}

func (p *Prediction) errorText() string {
	switch v := p.Error.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		data, _ := json.Marshal(v)
		return string(data)
	}
}

// PredictionError reports a prediction that failed or was canceled.
type PredictionError struct {
	ID     string
	Status string
	Detail string
}

func (e *PredictionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("replicate prediction %s %s", e.ID, e.Status)
	}
	return fmt.Sprintf("replicate prediction %s %s: %s", e.ID, e.Status, e.Detail)
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("replicate request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// IsTransient reports whether err came from a rate limit or server error.
func IsTransient(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// Run creates a prediction for model and waits for it to finish.
func (c *Client) Run(ctx context.Context, model string, input map[string]any) (*Prediction, error) {
	if c.token == "" {
		return nil, errors.New("replicate run: api token required")
	}
	model = strings.TrimSpace(model)
	if !strings.Contains(model, "/") {
		return nil, fmt.Errorf("replicate run: model %q must be owner/name", model)
	}
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	pred, err := c.create(runCtx, model, input)
	if err != nil {
		return nil, err
	}
	for !pred.Terminal() {
		if err := c.sleep(runCtx, c.pollInterval); err != nil {
			return nil, fmt.Errorf("replicate prediction %s: %w", pred.ID, err)
		}
		pred, err = c.get(runCtx, pred.ID)
		if err != nil {
			return nil, err
		}
	}
	if pred.Status != StatusSucceeded {
		return pred, &PredictionError{ID: pred.ID, Status: pred.Status, Detail: pred.errorText()}
	}
	return pred, nil
}

func (c *Client) create(ctx context.Context, model string, input map[string]any) (*Prediction, error) {
	body, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return nil, fmt.Errorf("replicate create: encode body: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s/predictions", c.baseURL, model)
	var pred Prediction
	if err := c.doJSON(ctx, http.MethodPost, endpoint, body, &pred); err != nil {
		return nil, fmt.Errorf("replicate create %s: %w", model, err)
	}
	return &pred, nil
}

func (c *Client) get(ctx context.Context, id string) (*Prediction, error) {
	var pred Prediction
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/predictions/"+id, nil, &pred); err != nil {
		return nil, fmt.Errorf("replicate poll %s: %w", id, err)
	}
	return &pred, nil
}

// HealthCheck verifies the API token by reading the account endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.token == "" {
		return errors.New("replicate health: api token required")
	}
	var account struct {
		Username string `json:"username"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/account", nil, &account); err != nil {
		return fmt.Errorf("replicate health: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body []byte, target any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return &httpStatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
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

// NewFromConfig builds a client from the [replicate] config section.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	if cfg == nil {
		return NewClient(Config{}, opts...)
	}
	return NewClient(Config{
		APIToken:            cfg.Replicate.APIToken,
		BaseURL:             cfg.Replicate.BaseURL,
		TimeoutSeconds:      cfg.Replicate.TimeoutSeconds,
		PollIntervalSeconds: cfg.Replicate.PollIntervalSeconds,
	}, opts...)
}
