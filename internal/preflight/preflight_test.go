package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"slidecast/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReplicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"username": "demo"})
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Replicate.BaseURL = srv.URL
	cfg.Replicate.APIToken = "good"
	if result := CheckReplicate(context.Background(), &cfg); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	cfg.Replicate.APIToken = "bad"
	if result := CheckReplicate(context.Background(), &cfg); result.Passed {
		t.Fatal("expected failure for bad token")
	}
	cfg.Replicate.APIToken = ""
	if result := CheckReplicate(context.Background(), &cfg); result.Passed || result.Detail != "API token missing" {
		t.Fatalf("expected missing token, got %+v", result)
	}
}

func TestCheckElevenLabs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" || r.Header.Get("xi-api-key") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.ElevenLabs.BaseURL = srv.URL
	cfg.ElevenLabs.APIKey = "good"
	if result := CheckElevenLabs(context.Background(), &cfg); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_DirectoriesOnlyWithoutCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkspaceDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.LLM.APIKey = ""
	cfg.Replicate.APIToken = ""
	cfg.ElevenLabs.APIKey = ""

	results := RunAll(context.Background(), &cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed || !r.Required {
			t.Errorf("check %q: passed=%v required=%v (%s)", r.Name, r.Passed, r.Required, r.Detail)
		}
	}
	if _, failed := FirstRequiredFailure(results); failed {
		t.Fatal("expected no required failure")
	}
}

func TestRunAll_ReportsMissingWorkspace(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkspaceDir = filepath.Join(t.TempDir(), "missing")
	cfg.Paths.StateDir = t.TempDir()
	cfg.LLM.APIKey = ""
	cfg.Replicate.APIToken = ""
	cfg.ElevenLabs.APIKey = ""

	failure, failed := FirstRequiredFailure(RunAll(context.Background(), &cfg))
	if !failed || failure.Name != "Workspace directory" {
		t.Fatalf("expected workspace failure, got %+v", failure)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	binDir := t.TempDir()
	script := []byte("#!/bin/sh\nexit 0\n")
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.Default()
	cfg.Composition.FFmpegBinary = filepath.Join(binDir, "ffmpeg")

	statuses := CheckSystemDeps(&cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		if !s.Available {
			t.Errorf("%s unavailable: %s", s.Name, s.Detail)
		}
	}
}
