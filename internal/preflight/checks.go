package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"slidecast/internal/config"
	"slidecast/internal/deps"
	"slidecast/internal/services/elevenlabs"
	"slidecast/internal/services/llm"
	"slidecast/internal/services/replicate"
)

const apiCheckTimeout = 30 * time.Second

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a single attempt (no retries).
func CheckLLM(ctx context.Context, cfg *config.Config) Result {
	const name = "LLM"
	if cfg == nil || cfg.LLM.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, apiCheckTimeout)
	defer cancel()

	client := llm.NewFromConfig(cfg, llm.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckReplicate verifies the Replicate token.
func CheckReplicate(ctx context.Context, cfg *config.Config) Result {
	const name = "Replicate"
	if cfg == nil || cfg.Replicate.APIToken == "" {
		return Result{Name: name, Detail: "API token missing"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, apiCheckTimeout)
	defer cancel()

	if err := replicate.NewFromConfig(cfg).HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckElevenLabs verifies the ElevenLabs key.
func CheckElevenLabs(ctx context.Context, cfg *config.Config) Result {
	const name = "ElevenLabs"
	if cfg == nil || cfg.ElevenLabs.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, apiCheckTimeout)
	defer cancel()

	if err := elevenlabs.NewFromConfig(cfg).HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries the composition stages run.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	ffmpeg := deps.CheckFFmpeg(cfg.FFmpegBinary())
	probe := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFprobe",
			Command:     deps.FFprobeFor(cfg.FFmpegBinary()),
			Description: "Measures narration length for page videos",
		},
	})
	return append([]deps.Status{ffmpeg}, probe...)
}

func summarizeAPIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
