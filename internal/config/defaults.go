package config

const (
	defaultDataDir            = "~/.local/share/vietscribe/transcripts"
	defaultWorkDir            = "~/.local/share/vietscribe/work"
	defaultLogDir             = "~/.local/share/vietscribe/logs"
	defaultBind               = "127.0.0.1:8571"
	defaultMaxUploadMB        = 100
	defaultMaxDurationSeconds = 600
	defaultSampleRate         = 16000
	defaultChunkSeconds       = 30
	defaultNormalizeDBFS      = -20.0
	defaultEngineKind         = "whisperx"
	defaultEngineModel        = "large-v3"
	defaultEngineLanguage     = "vi"
	defaultEngineTimeout      = 600
	defaultAPIBaseURL         = "https://api.openai.com/v1"
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

func defaultExtensions() []string {
	return []string{"mp4", "avi", "mov", "mkv", "webm"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
			Bind:    defaultBind,
		},
		Limits: Limits{
			MaxUploadMB:        defaultMaxUploadMB,
			MaxDurationSeconds: defaultMaxDurationSeconds,
			Extensions:         defaultExtensions(),
		},
		Audio: Audio{
			SampleRate:    defaultSampleRate,
			ChunkSeconds:  defaultChunkSeconds,
			NormalizeDBFS: defaultNormalizeDBFS,
		},
		Engine: Engine{
			Kind:           defaultEngineKind,
			Model:          defaultEngineModel,
			Language:       defaultEngineLanguage,
			TimeoutSeconds: defaultEngineTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completed:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
