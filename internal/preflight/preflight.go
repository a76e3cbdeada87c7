package preflight

import (
	"context"
	"strings"

	"slidecast/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Required bool
}

// RunAll executes the directory checks plus API checks for every service
// that has a credential configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		required(CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir)),
		required(CheckDirectoryAccess("State directory", cfg.Paths.StateDir)),
	}

	if strings.TrimSpace(cfg.Replicate.APIToken) != "" {
		results = append(results, CheckReplicate(ctx, cfg))
	}
	if strings.TrimSpace(cfg.LLM.APIKey) != "" {
		results = append(results, CheckLLM(ctx, cfg))
	}
	if strings.TrimSpace(cfg.ElevenLabs.APIKey) != "" {
		results = append(results, CheckElevenLabs(ctx, cfg))
	}
	return results
}

// FirstRequiredFailure returns the first failing required check.
func FirstRequiredFailure(results []Result) (Result, bool) {
	for _, r := range results {
		if r.Required && !r.Passed {
			return r, true
		}
	}
	return Result{}, false
}

func required(r Result) Result {
	r.Required = true
	return r
}
