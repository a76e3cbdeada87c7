package services_test

import (
	"errors"
	"strings"
	"testing"

	"slidecast/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "narration", "tts", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"narration", "tts", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureHint(t *testing.T) {
	cfgErr := services.Wrap(services.ErrConfiguration, "worker", "image edit", "missing token", nil)
	if hint := services.FailureHint(cfgErr); !strings.Contains(hint, "configuration") {
		t.Fatalf("unexpected hint for configuration error: %q", hint)
	}
	missing := services.Wrap(services.ErrNotFound, "worker", "image edit", "no image", nil)
	if hint := services.FailureHint(missing); !strings.Contains(hint, "inputs") {
		t.Fatalf("unexpected hint for not found error: %q", hint)
	}
	if hint := services.FailureHint(errors.New("io")); !strings.Contains(hint, "upstream") {
		t.Fatalf("unexpected default hint: %q", hint)
	}
	if hint := services.FailureHint(nil); hint != "" {
		t.Fatalf("expected empty hint for nil, got %q", hint)
	}
}
