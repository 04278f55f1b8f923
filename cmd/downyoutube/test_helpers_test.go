package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rafaeljuniorvip/downyoutube/internal/config"
	"github.com/rafaeljuniorvip/downyoutube/internal/daemon"
	"github.com/rafaeljuniorvip/downyoutube/internal/logging"
	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/media/probe"
	"github.com/rafaeljuniorvip/downyoutube/internal/queue"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
	"github.com/rafaeljuniorvip/downyoutube/internal/workflow"
)

// fakeFetcher names outputs after the last path segment of the URL and
// treats URLs containing "list=" as two-entry playlists.
type fakeFetcher struct{}

func (fakeFetcher) ResolveMetadata(_ context.Context, rawURL string, _ media.Credentials) (*media.Metadata, error) {
	if strings.Contains(rawURL, "list=") {
		return &media.Metadata{
			Title:      "Road Trip",
			IsPlaylist: true,
			Entries: []media.PlaylistEntry{
				{ID: "one", Title: "First Song", Duration: 61 * time.Second},
				{ID: "two", Title: "Second Song", Duration: 125 * time.Second},
			},
		}, nil
	}
	return &media.Metadata{Title: "Song " + filepath.Base(rawURL), Channel: "Band", Duration: 200 * time.Second}, nil
}

func (fakeFetcher) FetchAndConvert(_ context.Context, req media.Request, sink media.ProgressSink) (string, error) {
	sink.Report(req.TaskID, media.ProgressEvent{Phase: media.PhaseDownloading, DownloadedBytes: 1, TotalBytes: 2})
	name := "Song " + filepath.Base(req.URL)
	if idx := strings.Index(req.URL, "v="); idx >= 0 {
		name = "Song " + req.URL[idx+2:]
	}
	path := filepath.Join(req.OutputDir, name+".mp3")
	if err := os.WriteFile(path, []byte("audio:"+req.URL), 0o644); err != nil {
		return "", err
	}
	sink.Report(req.TaskID, media.ProgressEvent{Phase: media.PhaseFinished, DownloadedBytes: 2, TotalBytes: 2})
	return path, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	serverURL  string
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("DOWNYOUTUBE_API_TOKEN", "")
	t.Setenv("DOWNYOUTUBE_API_BIND", "")
	t.Setenv("DOWNYOUTUBE_DOWNLOAD_DIR", "")
	t.Setenv("DOWNYOUTUBE_NTFY_TOPIC", "")

	configPath := filepath.Join(homeDir, ".config", "downyoutube", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	content := fmt.Sprintf(`[paths]
download_dir = %q
log_dir = %q
state_dir = %q
api_bind = "127.0.0.1:0"

[workflow]
queue_poll_interval_ms = 10
resolve_batch_titles = true

[history]
enabled = false
`, filepath.Join(base, "downloads"), filepath.Join(base, "logs"), filepath.Join(base, "state"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	stubProbe := func(context.Context, string, string) (probe.AudioInfo, error) {
		return probe.AudioInfo{Codec: "mp3"}, nil
	}
	mgr := workflow.NewManager(cfg, tasks.NewStore(), queue.New(), fakeFetcher{}, logging.NewNop(), workflow.WithProbe(stubProbe))
	d, err := daemon.New(cfg, logging.NewNop(), mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	srv := httptest.NewServer(d.Handler())

	previous := taskPollInterval
	taskPollInterval = 10 * time.Millisecond

	t.Cleanup(func() {
		taskPollInterval = previous
		srv.Close()
		mgr.Stop()
	})

	return &cliTestEnv{
		cfg:        cfg,
		serverURL:  srv.URL,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, server, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if server != "" {
		flags = append(flags, "--server", server)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
