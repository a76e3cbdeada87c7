package ffprobe

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{Streams: []Stream{{Duration: "2.5"}, {Duration: "4.0"}}}
	if result.DurationSeconds() != 4.0 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
}

func TestProberDuration(t *testing.T) {
	var gotArgs []string
	prober := NewProber("/opt/ffprobe").WithOutputRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "/opt/ffprobe" {
			t.Fatalf("unexpected binary %s", name)
		}
		gotArgs = args
		return []byte(`{"streams":[{"codec_type":"audio"}],"format":{"duration":"3.250"}}`), nil
	})
	d, err := prober.Duration(context.Background(), "narration.mp3")
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if d != 3250*time.Millisecond {
		t.Fatalf("unexpected duration %s", d)
	}
	if gotArgs[len(gotArgs)-1] != "narration.mp3" {
		t.Fatalf("path should be last argument, got %v", gotArgs)
	}
}

func TestProberErrors(t *testing.T) {
	failing := NewProber("").WithOutputRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})
	if _, err := failing.Duration(context.Background(), "x.mp3"); err == nil {
		t.Fatal("expected runner error")
	}
	empty := NewProber("").WithOutputRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`{"format":{}}`), nil
	})
	if _, err := empty.Duration(context.Background(), "x.mp3"); err == nil {
		t.Fatal("expected missing duration error")
	}
	if _, err := NewProber("").Inspect(context.Background(), " "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestProberStreams(t *testing.T) {
	prober := NewProber("").WithOutputRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`{"streams":[{"codec_type":"video"},{"codec_type":"audio"}],"format":{"duration":"1.0"}}`), nil
	})
	video, audio, err := prober.Streams(context.Background(), "page.mp4")
	if err != nil || video != 1 || audio != 1 {
		t.Fatalf("Streams = %d, %d, %v", video, audio, err)
	}
}
