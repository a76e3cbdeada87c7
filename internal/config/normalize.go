package config

import (
	"fmt"
	"os"
	"strings"

	"slidecast/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWorker()
	c.normalizeLLM()
	c.normalizeReplicate()
	c.normalizeElevenLabs()
	c.normalizeNarration()
	c.normalizeComposition()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = defaultWorkspaceDir
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWorker() {
	c.Worker.ImageEditModel = strings.TrimSpace(c.Worker.ImageEditModel)
	if c.Worker.ImageEditModel == "" {
		c.Worker.ImageEditModel = defaultImageEditModel
	}
	c.Worker.ImageToVideoModel = strings.TrimSpace(c.Worker.ImageToVideoModel)
	if c.Worker.ImageToVideoModel == "" {
		c.Worker.ImageToVideoModel = defaultImageToVideoModel
	}
	c.Worker.Resolution = strings.ToLower(strings.TrimSpace(c.Worker.Resolution))
	if c.Worker.Resolution == "" {
		c.Worker.Resolution = defaultResolution
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeReplicate() {
	c.Replicate.BaseURL = strings.TrimRight(strings.TrimSpace(c.Replicate.BaseURL), "/")
	if c.Replicate.BaseURL == "" {
		c.Replicate.BaseURL = defaultReplicateBaseURL
	}
	if c.Replicate.TimeoutSeconds <= 0 {
		c.Replicate.TimeoutSeconds = defaultReplicateTimeout
	}
	if c.Replicate.PollIntervalSeconds <= 0 {
		c.Replicate.PollIntervalSeconds = defaultReplicatePollInterval
	}
	c.Replicate.APIToken = strings.TrimSpace(c.Replicate.APIToken)
	if c.Replicate.APIToken == "" {
		if value, ok := os.LookupEnv("REPLICATE_API_TOKEN"); ok {
			c.Replicate.APIToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeElevenLabs() {
	c.ElevenLabs.BaseURL = strings.TrimRight(strings.TrimSpace(c.ElevenLabs.BaseURL), "/")
	if c.ElevenLabs.BaseURL == "" {
		c.ElevenLabs.BaseURL = defaultElevenLabsBaseURL
	}
	c.ElevenLabs.Model = strings.TrimSpace(c.ElevenLabs.Model)
	if c.ElevenLabs.Model == "" {
		c.ElevenLabs.Model = defaultElevenLabsModel
	}
	if c.ElevenLabs.TimeoutSeconds <= 0 {
		c.ElevenLabs.TimeoutSeconds = defaultElevenLabsTimeout
	}
	c.ElevenLabs.APIKey = strings.TrimSpace(c.ElevenLabs.APIKey)
	if c.ElevenLabs.APIKey == "" {
		if value, ok := os.LookupEnv("ELEVENLABS_API_KEY"); ok {
			c.ElevenLabs.APIKey = strings.TrimSpace(value)
		}
	}
	voices := make(map[string]string, len(c.ElevenLabs.Voices))
	for lang, voice := range c.ElevenLabs.Voices {
		key := strings.ToLower(strings.TrimSpace(lang))
		if key == "" {
			continue
		}
		voices[key] = strings.TrimSpace(voice)
	}
	c.ElevenLabs.Voices = voices
}

func (c *Config) normalizeNarration() {
	langs := make([]string, 0, len(c.Narration.Languages))
	seen := make(map[string]struct{}, len(c.Narration.Languages))
	for _, lang := range c.Narration.Languages {
		normalized := strings.ToLower(strings.TrimSpace(lang))
		if normalized == "" {
			continue
		}
		if code, err := language.Normalize(normalized); err == nil {
			normalized = code
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		langs = append(langs, normalized)
	}
	if len(langs) == 0 {
		langs = append(langs, language.Supported...)
	}
	c.Narration.Languages = langs
}

func (c *Config) normalizeComposition() {
	c.Composition.FFmpegBinary = strings.TrimSpace(c.Composition.FFmpegBinary)
	if c.Composition.FFmpegBinary == "" {
		c.Composition.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Composition.FPS <= 0 {
		c.Composition.FPS = defaultCompositionFPS
	}
	if c.Composition.Concurrency <= 0 {
		c.Composition.Concurrency = defaultCompositionWorkers
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.TimeoutSeconds <= 0 {
		c.Notifications.TimeoutSeconds = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
