package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rafaeljuniorvip/downyoutube/internal/config"
	"github.com/rafaeljuniorvip/downyoutube/internal/daemon"
	"github.com/rafaeljuniorvip/downyoutube/internal/history"
	"github.com/rafaeljuniorvip/downyoutube/internal/logging"
	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/media/youtube"
	"github.com/rafaeljuniorvip/downyoutube/internal/media/ytdlp"
	"github.com/rafaeljuniorvip/downyoutube/internal/notifications"
	"github.com/rafaeljuniorvip/downyoutube/internal/preflight"
	"github.com/rafaeljuniorvip/downyoutube/internal/queue"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
	"github.com/rafaeljuniorvip/downyoutube/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the downyoutube daemon and blocks until cmdCtx is cancelled or
// the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logPreflight(logger, cfg)

	managerOpts := []workflow.Option{workflow.WithNotifier(notifications.NewService(cfg))}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			logging.WarnWithContext(logger, "download history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check "+filepath.Dir(cfg.HistoryPath())+" is writable"),
				logging.String(logging.FieldImpact, "finished downloads will not be recorded"),
			)
		} else {
			defer store.Close()
			managerOpts = append(managerOpts, workflow.WithHistory(store))
		}
	}

	manager := workflow.NewManager(cfg, tasks.NewStore(), queue.New(), NewFetcher(cfg, logger), logger, managerOpts...)
	d, err := daemon.New(cfg, logger, manager)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.api_bind and that no other daemon is running"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("downyoutube daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

// NewFetcher builds the media fetcher selected by fetcher.metadata_backend.
// Downloads always go through yt-dlp; the native backend only replaces
// metadata resolution.
func NewFetcher(cfg *config.Config, logger *slog.Logger) media.Fetcher {
	client := ytdlp.New(ytdlp.Options{
		Binary:           cfg.Fetcher.YtdlpBinary,
		AudioFormat:      cfg.Fetcher.AudioFormat,
		AudioQuality:     cfg.Fetcher.AudioQuality,
		ProgressInterval: time.Duration(cfg.Fetcher.ProgressIntervalMS) * time.Millisecond,
		TempDir:          cfg.Paths.StateDir,
	}, logger)
	if cfg.Fetcher.MetadataBackend == config.MetadataBackendNative {
		timeout := time.Duration(cfg.Fetcher.HTTPTimeoutSeconds) * time.Second
		return media.Compose(youtube.NewResolver(timeout, logger), client)
	}
	return client
}

func logPreflight(logger *slog.Logger, cfg *config.Config) {
	results := preflight.RunAll(cfg)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("metadata_backend", cfg.Fetcher.MetadataBackend),
		logging.String("audio_format", cfg.Fetcher.AudioFormat),
	}
	for _, result := range results {
		attrs = append(attrs, logging.Bool(preflightKey(result.Name), result.Passed))
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
	for _, failed := range preflight.Failed(results) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldImpact, "downloads may fail until this is fixed"),
		)
	}
}

func preflightKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	return key + "_ok"
}
