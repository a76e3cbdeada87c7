package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const defaultFPS = 24

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// DurationProber measures a media file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// StreamCounter reports the video and audio streams of a file. A prober that
// also implements it lets the composer reject renders missing either track.
type StreamCounter interface {
	Streams(ctx context.Context, path string) (video, audio int, err error)
}

// Composer renders videos through ffmpeg.
type Composer struct {
	binary string
	fps    int
	run    CommandRunner
	probe  DurationProber
}

// NewComposer returns a Composer for binary at fps frames per second.
func NewComposer(binary string, fps int) *Composer {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if fps <= 0 {
		fps = defaultFPS
	}
	return &Composer{binary: binary, fps: fps, run: runCommand}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Composer) WithCommandRunner(run CommandRunner) *Composer {
	if run != nil {
		c.run = run
	}
	return c
}

// WithProber sets the prober used to measure narration length. Without one
// the page video ends with the shortest input.
func (c *Composer) WithProber(p DurationProber) *Composer {
	c.probe = p
	return c
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(string(output), 400))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// ComposePageVideo loops clip under audio and writes dest.
func (c *Composer) ComposePageVideo(ctx context.Context, clip, audio, dest string) error {
	for _, p := range []string{clip, audio} {
		if err := requireFile(p); err != nil {
			return fmt.Errorf("compose page video: %w", err)
		}
	}
	var duration time.Duration
	if c.probe != nil {
		d, err := c.probe.Duration(ctx, audio)
		if err != nil {
			return fmt.Errorf("compose page video: measure narration: %w", err)
		}
		duration = d
	}
	return c.render(ctx, dest, func(tmp string) error {
		return c.run(ctx, c.binary, BuildPageVideoArgs(clip, audio, tmp, duration, c.fps)...)
	})
}

// Concat joins inputs in order into dest.
func (c *Composer) Concat(ctx context.Context, inputs []string, dest string) error {
	if len(inputs) == 0 {
		return errors.New("concat: no inputs")
	}
	for _, p := range inputs {
		if err := requireFile(p); err != nil {
			return fmt.Errorf("concat: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("concat: create dir: %w", err)
	}
	list, err := os.CreateTemp(filepath.Dir(dest), ".concat-*.txt")
	if err != nil {
		return fmt.Errorf("concat: list file: %w", err)
	}
	listPath := list.Name()
	defer os.Remove(listPath)
	_, writeErr := list.WriteString(ConcatList(inputs))
	if err := errors.Join(writeErr, list.Close()); err != nil {
		return fmt.Errorf("concat: write list: %w", err)
	}
	return c.render(ctx, dest, func(tmp string) error {
		return c.run(ctx, c.binary, BuildConcatArgs(listPath, tmp, c.fps)...)
	})
}

func (c *Composer) render(ctx context.Context, dest string, produce func(tmp string) error) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp := filepath.Join(filepath.Dir(dest), ".tmp-"+filepath.Base(dest))
	_ = os.Remove(tmp)
	if err := produce(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	info, err := os.Stat(tmp)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(tmp)
		return fmt.Errorf("ffmpeg produced no output for %s", filepath.Base(dest))
	}
	if err := c.verify(ctx, tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("verify %s: %w", filepath.Base(dest), err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

func (c *Composer) verify(ctx context.Context, path string) error {
	counter, ok := c.probe.(StreamCounter)
	if !ok {
		return nil
	}
	video, audio, err := counter.Streams(ctx, path)
	if err != nil {
		return err
	}
	if video == 0 || audio == 0 {
		return fmt.Errorf("expected video and audio streams, found %d video and %d audio", video, audio)
	}
	return nil
}

// BuildPageVideoArgs returns ffmpeg arguments that loop clip for the length of
// audio. A zero duration falls back to -shortest.
func BuildPageVideoArgs(clip, audio, dest string, duration time.Duration, fps int) []string {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-stream_loop", "-1", "-i", clip,
		"-i", audio,
		"-map", "0:v:0", "-map", "1:a:0",
	}
	if duration > 0 {
		args = append(args, "-t", strconv.FormatFloat(duration.Seconds(), 'f', 3, 64))
	} else {
		args = append(args, "-shortest")
	}
	args = append(args,
		"-r", strconv.Itoa(fps),
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-movflags", "+faststart",
		dest,
	)
	return args
}

// BuildConcatArgs returns ffmpeg arguments for the concat demuxer.
func BuildConcatArgs(listPath, dest string, fps int) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-r", strconv.Itoa(fps),
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-movflags", "+faststart",
		dest,
	}
}

// ConcatList renders a concat demuxer list for inputs.
func ConcatList(inputs []string) string {
	var b strings.Builder
	for _, p := range inputs {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input %s: %w", filepath.Base(path), err)
	}
	if info.IsDir() || info.Size() == 0 {
		return fmt.Errorf("input %s is empty", filepath.Base(path))
	}
	return nil
}
