package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/rafaeljuniorvip/downyoutube/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("DOWNYOUTUBE_DOWNLOAD_DIR", "")
	t.Setenv("DOWNYOUTUBE_API_TOKEN", "")
	t.Setenv("DOWNYOUTUBE_API_BIND", "")
	t.Setenv("YTDLP_PATH", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "Music", "downyoutube"); cfg.Paths.DownloadDir != want {
		t.Fatalf("unexpected download dir: got %q want %q", cfg.Paths.DownloadDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "downyoutube"); cfg.Paths.StateDir != want {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, want)
	}
	if cfg.Paths.APIBind != "127.0.0.1:5000" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Fetcher.AudioFormat != "mp3" || cfg.Fetcher.AudioQuality != "192" {
		t.Fatalf("unexpected audio target: %s@%s", cfg.Fetcher.AudioFormat, cfg.Fetcher.AudioQuality)
	}
	if cfg.AudioExtension() != ".mp3" {
		t.Fatalf("unexpected audio extension: %q", cfg.AudioExtension())
	}
	if cfg.Workflow.QueuePollIntervalMS != 1000 {
		t.Fatalf("unexpected poll interval: %d", cfg.Workflow.QueuePollIntervalMS)
	}
	if cfg.Workflow.MaxImmediate != 0 {
		t.Fatalf("expected unbounded immediate dispatch by default, got %d", cfg.Workflow.MaxImmediate)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.HistoryPath() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("DOWNYOUTUBE_DOWNLOAD_DIR", "")
	t.Setenv("YTDLP_PATH", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	type paths struct {
		DownloadDir string `toml:"download_dir"`
		APIBind     string `toml:"api_bind"`
		APIToken    string `toml:"api_token"`
	}
	type fetcher struct {
		AudioFormat     string `toml:"audio_format"`
		MetadataBackend string `toml:"metadata_backend"`
	}
	type workflow struct {
		MaxImmediate int `toml:"max_immediate"`
	}
	payload := struct {
		Paths    paths    `toml:"paths"`
		Fetcher  fetcher  `toml:"fetcher"`
		Workflow workflow `toml:"workflow"`
	}{
		Paths:    paths{DownloadDir: "~/audio", APIBind: "0.0.0.0:8080", APIToken: " secret "},
		Fetcher:  fetcher{AudioFormat: ".M4A", MetadataBackend: "Native"},
		Workflow: workflow{MaxImmediate: 4},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config to be read from %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.DownloadDir != filepath.Join(tempHome, "audio") {
		t.Fatalf("unexpected download dir: %q", cfg.Paths.DownloadDir)
	}
	if cfg.Paths.APIBind != "0.0.0.0:8080" {
		t.Fatalf("unexpected bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Paths.APIToken != "secret" {
		t.Fatalf("expected trimmed token, got %q", cfg.Paths.APIToken)
	}
	if cfg.Fetcher.AudioFormat != "m4a" {
		t.Fatalf("expected normalized audio format, got %q", cfg.Fetcher.AudioFormat)
	}
	if cfg.Fetcher.MetadataBackend != config.MetadataBackendNative {
		t.Fatalf("expected native backend, got %q", cfg.Fetcher.MetadataBackend)
	}
	if cfg.Workflow.MaxImmediate != 4 {
		t.Fatalf("unexpected max immediate: %d", cfg.Workflow.MaxImmediate)
	}
}

func TestLoadAppliesEnvFileBesideConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("DOWNYOUTUBE_DOWNLOAD_DIR", "")
	t.Setenv("YTDLP_PATH", "")
	os.Unsetenv("DOWNYOUTUBE_API_TOKEN")
	t.Cleanup(func() { os.Unsetenv("DOWNYOUTUBE_API_TOKEN") })

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\napi_bind = \"127.0.0.1:5001\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DOWNYOUTUBE_API_TOKEN=from-env-file\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIToken != "from-env-file" {
		t.Fatalf("expected token from .env, got %q", cfg.Paths.APIToken)
	}
}

func TestEnvOverridesDownloadDirAndBinary(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	custom := filepath.Join(t.TempDir(), "mp3s")
	t.Setenv("DOWNYOUTUBE_DOWNLOAD_DIR", custom)
	t.Setenv("YTDLP_PATH", "/opt/yt-dlp")
	t.Setenv("DOWNYOUTUBE_NTFY_TOPIC", "https://ntfy.example/downloads")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DownloadDir != custom {
		t.Fatalf("expected env download dir, got %q", cfg.Paths.DownloadDir)
	}
	if cfg.Fetcher.YtdlpBinary != "/opt/yt-dlp" {
		t.Fatalf("expected env yt-dlp binary, got %q", cfg.Fetcher.YtdlpBinary)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/downloads" {
		t.Fatalf("expected env ntfy topic, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"audio format", func(c *config.Config) { c.Fetcher.AudioFormat = "exe" }, "fetcher.audio_format"},
		{"backend", func(c *config.Config) { c.Fetcher.MetadataBackend = "scraper" }, "fetcher.metadata_backend"},
		{"poll interval", func(c *config.Config) { c.Workflow.QueuePollIntervalMS = -1 }, "workflow.queue_poll_interval_ms"},
		{"max immediate", func(c *config.Config) { c.Workflow.MaxImmediate = -2 }, "workflow.max_immediate"},
		{"bind", func(c *config.Config) { c.Paths.APIBind = "nonsense" }, "paths.api_bind"},
		{"level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"progress interval", func(c *config.Config) { c.Fetcher.ProgressIntervalMS = -5 }, "fetcher.progress_interval_ms"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "notifications.ntfy_topic"},
		{"ntfy timeout", func(c *config.Config) { c.Notifications.RequestTimeoutSeconds = -1 }, "notifications.request_timeout_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q in %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestEnsureDirectoriesAndSample(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DownloadDir, cfg.Paths.LogDir, cfg.Paths.StateDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}

	samplePath := filepath.Join(base, "nested", "config.toml")
	if err := config.CreateSample(samplePath); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	t.Setenv("HOME", base)
	t.Setenv("DOWNYOUTUBE_DOWNLOAD_DIR", "")
	t.Setenv("YTDLP_PATH", "")
	loaded, _, exists, err := config.Load(samplePath)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if loaded.Fetcher.AudioFormat != "mp3" {
		t.Fatalf("unexpected sample audio format: %q", loaded.Fetcher.AudioFormat)
	}
}
