package config

const (
	defaultWorkspaceDir          = "~/.local/share/slidecast/extracted"
	defaultLogDir                = "~/.local/share/slidecast/logs"
	defaultStateDir              = "~/.local/state/slidecast"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	defaultPollInterval          = 10
	defaultErrorRetryInterval    = 30
	defaultImageEditModel        = "qwen/qwen-image-edit-plus"
	defaultImageToVideoModel     = "wan-video/wan-2.2-i2v-fast"
	defaultFrames                = 81
	defaultFPS                   = 24
	defaultResolution            = "720p"
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "google/gemini-2.5-flash"
	defaultLLMReferer            = "https://github.com/slidecast/slidecast"
	defaultLLMTitle              = "slidecast rewrite"
	defaultLLMTemperature        = 0.7
	defaultLLMTimeoutSeconds     = 60
	defaultReplicateBaseURL      = "https://api.replicate.com/v1"
	defaultReplicateTimeout      = 600
	defaultReplicatePollInterval = 2
	defaultElevenLabsBaseURL     = "https://api.elevenlabs.io/v1"
	defaultElevenLabsModel       = "eleven_flash_v2_5"
	defaultElevenLabsTimeout     = 120
	defaultEnglishVoice          = "7tRwuZTD1EWi6nydVerp"
	defaultHindiVoice            = "trxRCYtDC6qFREKq6Ek2"
	defaultFFmpegBinary          = "ffmpeg"
	defaultCompositionFPS        = 24
	defaultCompositionWorkers    = 2
	defaultNotifyTimeout         = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
			StateDir:     defaultStateDir,
		},
		Worker: Worker{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			ImageEditModel:     defaultImageEditModel,
			ImageToVideoModel:  defaultImageToVideoModel,
			Frames:             defaultFrames,
			FPS:                defaultFPS,
			Resolution:         defaultResolution,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			Temperature:    defaultLLMTemperature,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Replicate: Replicate{
			BaseURL:             defaultReplicateBaseURL,
			TimeoutSeconds:      defaultReplicateTimeout,
			PollIntervalSeconds: defaultReplicatePollInterval,
		},
		ElevenLabs: ElevenLabs{
			BaseURL: defaultElevenLabsBaseURL,
			Model:   defaultElevenLabsModel,
			Voices: map[string]string{
				"en": defaultEnglishVoice,
				"hi": defaultHindiVoice,
			},
			TimeoutSeconds: defaultElevenLabsTimeout,
		},
		Narration: Narration{
			Languages: []string{"en", "hi"},
		},
		Composition: Composition{
			FFmpegBinary: defaultFFmpegBinary,
			FPS:          defaultCompositionFPS,
			Concurrency:  defaultCompositionWorkers,
		},
		Notifications: Notifications{
			TimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
