package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": `{"ok":true}`,
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckUnexpectedReply(t *testing.T) {
	server := chatServer(t, map[string]any{"message": map[string]any{"content": "I cannot help with that."}})
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	err := client.HealthCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unexpected reply") {
		t.Fatalf("expected unexpected reply error, got %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func chatServer(t *testing.T, choice map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"choices": []any{choice}}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
}

func TestClientCompleteTextSendsTemperatureWithoutResponseFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Fatalf("unexpected auth header %q", got)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if _, ok := req["response_format"]; ok {
			t.Fatalf("text completion should not request a response format")
		}
		if req["temperature"] != 0.7 {
			t.Fatalf("expected temperature 0.7, got %v", req["temperature"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": "hello there"}}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model", Temperature: 0.7})
	got, err := client.CompleteText(context.Background(), "system", "say hello")
	if err != nil {
		t.Fatalf("CompleteText returned error: %v", err)
	}
	if got != "hello there" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestClientCompleteTextEmptyContentHasSnippet(t *testing.T) {
	server := chatServer(t, map[string]any{
		"finish_reason": "stop",
		"message":       map[string]any{"content": ""},
	})
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.CompleteText(context.Background(), "system", "prompt")
	if err == nil {
		t.Fatal("expected completion to fail")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
}

func TestClientCompleteTextSkipsBlankChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{
			map[string]any{"message": map[string]any{"content": "  "}},
			map[string]any{"message": map[string]any{"content": " second choice "}},
		}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	got, err := client.CompleteText(context.Background(), "", "prompt")
	if err != nil || got != "second choice" {
		t.Fatalf("CompleteText = %q, %v", got, err)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model"}}`))
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(time.Duration) { t.Fatal("client errors must not sleep") }),
	)
	_, err := client.CompleteText(context.Background(), "", "prompt")
	if err == nil || !strings.Contains(err.Error(), "http 400") {
		t.Fatalf("expected http 400 error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
}

func TestClientCompleteTextRequiresKey(t *testing.T) {
	client := NewClient(Config{Model: "demo-model"})
	if _, err := client.CompleteText(context.Background(), "", "prompt"); err == nil {
		t.Fatal("expected missing api key error")
	}
}

func TestClientRewriteForKids(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		user := req.Messages[len(req.Messages)-1].Content
		if !strings.Contains(user, "STORY SO FAR") || !strings.Contains(user, "The tiger slept.") {
			t.Fatalf("prompt missing context: %s", user)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{
				"content": "[EN]\nThe tiger woke up!\n\n[HI]\nबाघ जाग गया!",
			}}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	out, err := client.RewriteForKids(context.Background(), RewriteRequest{
		PageText:      "The tiger slept.",
		PreviousPages: "[Page 1] A jungle morning.",
	})
	if err != nil {
		t.Fatalf("RewriteForKids returned error: %v", err)
	}
	if out.English != "The tiger woke up!" || out.Hindi != "बाघ जाग गया!" {
		t.Fatalf("unexpected rewrite %+v", out)
	}
}

func TestParseBilingual(t *testing.T) {
	tests := []struct {
		name    string
		content string
		en, hi  string
	}{
		{"tagged", "[EN]\nHello.\nWorld.\n\n[HI]\nनमस्ते।", "Hello.\nWorld.", "नमस्ते।"},
		{"reordered", "[HI]\nनमस्ते।\n[EN]\nHello.", "Hello.", "नमस्ते।"},
		{"untagged", "abcdef", "abc", "def"},
		{"missing hindi", "[EN]\nHello.", "Hello.", "Hello."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBilingual(tt.content)
			if err != nil {
				t.Fatalf("ParseBilingual: %v", err)
			}
			if got.English != tt.en || got.Hindi != tt.hi {
				t.Fatalf("got en=%q hi=%q, want en=%q hi=%q", got.English, got.Hindi, tt.en, tt.hi)
			}
		})
	}
	if _, err := ParseBilingual("  "); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": "[EN]\nok\n[HI]\nठीक",
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	content, err := client.CompleteText(context.Background(), "system", "test prompt")
	if err != nil {
		t.Fatalf("CompleteText returned error: %v", err)
	}
	if content != "[EN]\nok\n[HI]\nठीक" {
		t.Fatalf("unexpected content %q", content)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := ""
		if calls >= 3 {
			content = "done"
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "stop",
					"message": map[string]any{
						"content": content,
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	content, err := client.CompleteText(context.Background(), "system", "test prompt")
	if err != nil {
		t.Fatalf("CompleteText returned error: %v", err)
	}
	if content != "done" {
		t.Fatalf("unexpected content %q", content)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestBackoffSchedule(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(time.Second, 5*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := client.backoff(i + 1); got != w {
			t.Fatalf("attempt %d: got %s want %s", i+1, got, w)
		}
	}
	if got := parseRetryAfter("3"); got != 3*time.Second {
		t.Fatalf("parseRetryAfter seconds = %s", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Fatalf("parseRetryAfter garbage = %s", got)
	}
}
