package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CurrentLogName is the pointer the worker keeps at its newest run log.
const CurrentLogName = "slidecastd.log"

const (
	defaultPoll    = 250 * time.Millisecond
	maxLineBytes   = 1024 * 1024
	initialBufSize = 64 * 1024
)

// CurrentPath returns the worker log pointer inside logDir.
func CurrentPath(logDir string) string {
	return filepath.Join(logDir, CurrentLogName)
}

// TailOptions controls Tail.
type TailOptions struct {
	// Lines is how many trailing lines to print first.
	Lines int
	// Follow keeps polling for appended lines until the context ends.
	Follow bool
	// Poll is the follow interval; zero uses 250ms.
	Poll time.Duration
	// Match keeps only lines containing this substring.
	Match string
}

func (o TailOptions) keep(line string) bool {
	return o.Match == "" || strings.Contains(line, o.Match)
}

// Tail emits the last opts.Lines lines of path and then, when following,
// every appended line. A missing file is not an error: without Follow
// nothing is emitted, with Follow Tail waits for it to appear. Cancelling ctx
// ends a follow cleanly.
func Tail(ctx context.Context, path string, opts TailOptions, emit func(string)) error {
	if opts.Poll <= 0 {
		opts.Poll = defaultPoll
	}
	lines, offset, info, err := lastLines(path, opts)
	if err != nil {
		return err
	}
	for _, line := range lines {
		emit(line)
	}
	if !opts.Follow {
		return nil
	}

	ticker := time.NewTicker(opts.Poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		current, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("stat log file: %w", err)
		}
		if info == nil || !os.SameFile(info, current) || current.Size() < offset {
			offset = 0
		}
		info = current
		if current.Size() == offset {
			continue
		}
		appended, next, err := readFrom(path, offset)
		if err != nil {
			return err
		}
		offset = next
		for _, line := range appended {
			if opts.keep(line) {
				emit(line)
			}
		}
	}
}

// lastLines returns the final matching lines of path, the offset just past
// them, and the file's identity for rotation checks.
func lastLines(path string, opts TailOptions) ([]string, int64, os.FileInfo, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil, nil
	}
	if err != nil {
		return nil, 0, nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, nil, fmt.Errorf("log path %q is a directory", path)
	}

	var ring []string
	if opts.Lines > 0 {
		ring = make([]string, 0, opts.Lines)
	}
	scanner := newScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if opts.Lines <= 0 || !opts.keep(line) {
			continue
		}
		if len(ring) == opts.Lines {
			ring = append(ring[1:], line)
		} else {
			ring = append(ring, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, nil, fmt.Errorf("read log file: %w", err)
	}
	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("seek log file: %w", err)
	}
	return ring, offset, info, nil
}

// readFrom returns the complete lines after offset. A trailing partial line
// is left for the next poll.
func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, offset, nil
	}
	if err != nil {
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}
	reader := bufio.NewReaderSize(file, initialBufSize)
	var lines []string
	for {
		chunk, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			return lines, offset, nil
		}
		if err != nil {
			return lines, offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(chunk))
		lines = append(lines, strings.TrimRight(chunk, "\r\n"))
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialBufSize), maxLineBytes)
	return scanner
}
