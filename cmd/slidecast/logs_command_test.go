package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"slidecast/internal/logs"
)

func TestLogsShowsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "level=INFO msg=one document=alpha\nlevel=INFO msg=two document=beta\nlevel=WARN msg=three document=alpha\n"
	if err := os.WriteFile(logs.CurrentPath(env.cfg.Paths.LogDir), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustRunCLI(t, env, "logs", "-n", "2")
	if strings.Contains(out, "msg=one") || !strings.Contains(out, "msg=two") || !strings.Contains(out, "msg=three") {
		t.Fatalf("unexpected tail output:\n%s", out)
	}

	out = mustRunCLI(t, env, "logs", "--grep", "document=alpha")
	if strings.Contains(out, "msg=two") || !strings.Contains(out, "msg=one") {
		t.Fatalf("unexpected filtered output:\n%s", out)
	}
}

func TestLogsWithoutWorkerLogRefuses(t *testing.T) {
	env := setupCLITestEnv(t)
	out := mustRunCLI(t, env, "logs")
	requireContains(t, out, "refused: no worker log")
}

func TestNotifyTest(t *testing.T) {
	env := setupCLITestEnv(t)
	requireContains(t, mustRunCLI(t, env, "notify", "test"), "refused: notifications.ntfy_topic is not configured")

	var title, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("Title")
		data, _ := io.ReadAll(r.Body)
		body = string(data)
	}))
	defer server.Close()

	f, err := os.OpenFile(env.configPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("\n[notifications]\nntfy_topic = \"" + server.URL + "/slidecast\"\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	requireContains(t, mustRunCLI(t, env, "notify", "test"), "Test notification sent")
	if title != "slidecast - Test" || body == "" {
		t.Fatalf("unexpected notification title=%q body=%q", title, body)
	}
}
