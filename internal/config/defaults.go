package config

const (
	defaultConfigPath         = "~/.config/downyoutube/config.toml"
	defaultDownloadDir        = "~/Music/downyoutube"
	defaultLogDir             = "~/.local/share/downyoutube/logs"
	defaultStateDir           = "~/.local/share/downyoutube"
	defaultAPIBind            = "127.0.0.1:5000"
	defaultYtdlpBinary        = "yt-dlp"
	defaultAudioFormat        = "mp3"
	defaultAudioQuality       = "192"
	defaultMetadataBackend    = MetadataBackendYtdlp
	defaultProgressIntervalMS = 500
	defaultHTTPTimeoutSeconds = 30
	defaultQueuePollMS        = 1000
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogMaxSizeMB       = 100
	defaultLogMaxBackups      = 3
	defaultLogMaxAgeDays      = 28
	defaultNtfyTimeoutSeconds = 10
)

// Metadata backends accepted by fetcher.metadata_backend.
const (
	MetadataBackendYtdlp  = "ytdlp"
	MetadataBackendNative = "native"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
			StateDir:    defaultStateDir,
			APIBind:     defaultAPIBind,
		},
		Fetcher: Fetcher{
			YtdlpBinary:        defaultYtdlpBinary,
			AudioFormat:        defaultAudioFormat,
			AudioQuality:       defaultAudioQuality,
			MetadataBackend:    defaultMetadataBackend,
			ProgressIntervalMS: defaultProgressIntervalMS,
			HTTPTimeoutSeconds: defaultHTTPTimeoutSeconds,
		},
		Workflow: Workflow{
			QueuePollIntervalMS: defaultQueuePollMS,
			ResolveBatchTitles:  true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
			TaskEvents:            true,
			QueueEvents:           true,
		},
	}
}
