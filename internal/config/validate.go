package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var supportedAudioFormats = map[string]struct{}{
	"mp3":  {},
	"m4a":  {},
	"aac":  {},
	"opus": {},
	"flac": {},
	"wav":  {},
	"ogg":  {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFetcher(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		return errors.New("paths.download_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateFetcher() error {
	if _, ok := supportedAudioFormats[c.Fetcher.AudioFormat]; !ok {
		return fmt.Errorf("fetcher.audio_format %q is not supported", c.Fetcher.AudioFormat)
	}
	switch c.Fetcher.MetadataBackend {
	case MetadataBackendYtdlp, MetadataBackendNative:
	default:
		return fmt.Errorf("fetcher.metadata_backend must be %q or %q", MetadataBackendYtdlp, MetadataBackendNative)
	}
	return ensurePositiveMap(map[string]int{
		"fetcher.progress_interval_ms": c.Fetcher.ProgressIntervalMS,
		"fetcher.http_timeout_seconds": c.Fetcher.HTTPTimeoutSeconds,
	})
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueuePollIntervalMS <= 0 {
		return errors.New("workflow.queue_poll_interval_ms must be positive")
	}
	if c.Workflow.MaxImmediate < 0 {
		return errors.New("workflow.max_immediate must be zero (unbounded) or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return errors.New("logging rotation settings must not be negative")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_seconds must not be negative")
	}
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic %q must be an http(s) URL", topic)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
