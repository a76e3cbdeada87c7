package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"slidecast/internal/language"
)

// Validate ensures the configuration is usable. Credentials are not required
// here; each stage checks for the key it needs when it runs.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validateNarration(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateWorker() error {
	if err := ensurePositiveMap(map[string]int{
		"worker.poll_interval":            c.Worker.PollInterval,
		"worker.error_retry_interval":     c.Worker.ErrorRetryInterval,
		"worker.frames":                   c.Worker.Frames,
		"worker.fps":                      c.Worker.FPS,
		"replicate.timeout_seconds":       c.Replicate.TimeoutSeconds,
		"replicate.poll_interval_seconds": c.Replicate.PollIntervalSeconds,
		"composition.concurrency":         c.Composition.Concurrency,
		"composition.fps":                 c.Composition.FPS,
	}); err != nil {
		return err
	}
	if c.Worker.FPS < 5 || c.Worker.FPS > 30 {
		return errors.New("worker.fps must be between 5 and 30")
	}
	if c.Worker.Frames < 81 || c.Worker.Frames > 121 {
		return errors.New("worker.frames must be between 81 and 121")
	}
	return nil
}

func (c *Config) validateNarration() error {
	for _, lang := range c.Narration.Languages {
		if !language.IsSupported(lang) {
			return fmt.Errorf("narration.languages: unsupported language %q (supported: %s)", lang, strings.Join(language.Supported, ", "))
		}
		if _, ok := c.VoiceFor(lang); !ok {
			return fmt.Errorf("elevenlabs.voices.%s must be set when %q is a narration language", lang, lang)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
