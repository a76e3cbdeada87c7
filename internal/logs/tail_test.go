package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"slidecast/internal/logs"
)

func collect(t *testing.T, path string, opts logs.TailOptions) []string {
	t.Helper()
	var lines []string
	if err := logs.Tail(context.Background(), path, opts, func(line string) { lines = append(lines, line) }); err != nil {
		t.Fatalf("tail: %v", err)
	}
	return lines
}

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), logs.CurrentLogName)
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	tests := []struct {
		name string
		opts logs.TailOptions
		want []string
	}{
		{name: "last two", opts: logs.TailOptions{Lines: 2}, want: []string{"b", "c"}},
		{name: "more than available", opts: logs.TailOptions{Lines: 10}, want: []string{"a", "b", "c"}},
		{name: "none", opts: logs.TailOptions{}, want: nil},
		{name: "match", opts: logs.TailOptions{Lines: 5, Match: "a"}, want: []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, path, tt.opts)
			if len(got) != len(tt.want) {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %#v, want %#v", got, tt.want)
				}
			}
		})
	}
}

func TestTailMissingFile(t *testing.T) {
	if got := collect(t, filepath.Join(t.TempDir(), "absent.log"), logs.TailOptions{Lines: 3}); len(got) != 0 {
		t.Fatalf("expected no lines, got %#v", got)
	}
}

func TestTailFollowPicksUpAppendsAndRotation(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "slidecastd-1.log")
	second := filepath.Join(dir, "slidecastd-2.log")
	current := logs.CurrentPath(dir)
	if err := os.WriteFile(first, []byte("start\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(first, current); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	var lines []string
	seen := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- logs.Tail(ctx, current, logs.TailOptions{Lines: 1, Follow: true, Poll: 10 * time.Millisecond}, func(line string) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
			seen <- line
		})
	}()

	waitFor := func(want string) {
		t.Helper()
		select {
		case got := <-seen:
			if got != want {
				t.Fatalf("got line %q, want %q", got, want)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	waitFor("start")
	f, err := os.OpenFile(first, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()
	waitFor("later")

	if err := os.WriteFile(second, []byte("next run\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(current); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(second, current); err != nil {
		t.Fatal(err)
	}
	waitFor("next run")

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("follow returned error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 3 {
		t.Fatalf("unexpected lines %#v", lines)
	}
}
