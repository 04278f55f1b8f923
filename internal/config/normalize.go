package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFetcher()
	c.normalizeWorkflow()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := lookupEnv("DOWNYOUTUBE_DOWNLOAD_DIR"); ok {
		c.Paths.DownloadDir = value
	}
	if c.Paths.APIToken == "" {
		if value, ok := lookupEnv("DOWNYOUTUBE_API_TOKEN"); ok {
			c.Paths.APIToken = value
		}
	}
	if value, ok := lookupEnv("DOWNYOUTUBE_API_BIND"); ok {
		c.Paths.APIBind = value
	}

	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}

	var err error
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeFetcher() {
	if value, ok := lookupEnv("YTDLP_PATH"); ok {
		c.Fetcher.YtdlpBinary = value
	}
	c.Fetcher.YtdlpBinary = strings.TrimSpace(c.Fetcher.YtdlpBinary)
	if c.Fetcher.YtdlpBinary == "" {
		c.Fetcher.YtdlpBinary = defaultYtdlpBinary
	}
	c.Fetcher.AudioFormat = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Fetcher.AudioFormat)), ".")
	if c.Fetcher.AudioFormat == "" {
		c.Fetcher.AudioFormat = defaultAudioFormat
	}
	c.Fetcher.AudioQuality = strings.TrimSpace(c.Fetcher.AudioQuality)
	if c.Fetcher.AudioQuality == "" {
		c.Fetcher.AudioQuality = defaultAudioQuality
	}
	c.Fetcher.MetadataBackend = strings.ToLower(strings.TrimSpace(c.Fetcher.MetadataBackend))
	if c.Fetcher.MetadataBackend == "" {
		c.Fetcher.MetadataBackend = defaultMetadataBackend
	}
	if c.Fetcher.ProgressIntervalMS == 0 {
		c.Fetcher.ProgressIntervalMS = defaultProgressIntervalMS
	}
	if c.Fetcher.HTTPTimeoutSeconds == 0 {
		c.Fetcher.HTTPTimeoutSeconds = defaultHTTPTimeoutSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollIntervalMS == 0 {
		c.Workflow.QueuePollIntervalMS = defaultQueuePollMS
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
}

func (c *Config) normalizeNotifications() {
	if value, ok := lookupEnv("DOWNYOUTUBE_NTFY_TOPIC"); ok {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}
