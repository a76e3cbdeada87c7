package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CheckFFmpeg reports the FFmpeg binary the composition stages will execute.
// A configured path is checked directly; a bare name is resolved from PATH.
func CheckFFmpeg(binary string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Composes page videos and slideshows",
	}
	cmd := strings.TrimSpace(binary)
	if cmd == "" {
		cmd = "ffmpeg"
	}
	result.Command = cmd

	if strings.ContainsRune(cmd, filepath.Separator) {
		info, err := os.Stat(cmd)
		if err != nil {
			result.Detail = fmt.Sprintf("binary %q not found", cmd)
			return result
		}
		if !isExecutable(info) {
			result.Detail = fmt.Sprintf("%q is not executable", cmd)
			return result
		}
		result.Available = true
		return result
	}

	resolved, err := exec.LookPath(cmd)
	if err != nil {
		result.Detail = fmt.Sprintf("binary %q not found", cmd)
		return result
	}
	result.Command = resolved
	result.Available = true
	return result
}

// FFprobeFor returns the ffprobe binary that sits next to ffmpeg, or "ffprobe".
func FFprobeFor(ffmpeg string) string {
	ffmpeg = strings.TrimSpace(ffmpeg)
	if strings.ContainsRune(ffmpeg, filepath.Separator) {
		return filepath.Join(filepath.Dir(ffmpeg), "ffprobe")
	}
	return "ffprobe"
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
