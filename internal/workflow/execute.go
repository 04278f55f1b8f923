package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rafaeljuniorvip/downyoutube/internal/history"
	"github.com/rafaeljuniorvip/downyoutube/internal/logging"
	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/media/probe"
	"github.com/rafaeljuniorvip/downyoutube/internal/queue"
	"github.com/rafaeljuniorvip/downyoutube/internal/services"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
	"github.com/rafaeljuniorvip/downyoutube/internal/textutil"
)

// outcome is the explicit result of one task execution.
type outcome struct {
	status tasks.Status
	err    error
}

// execute runs one task to a terminal state. It never panics and never
// returns a non-terminal status.
func (m *Manager) execute(ctx context.Context, desc queue.Descriptor) (result outcome) {
	ctx = services.WithTaskID(ctx, desc.TaskID)
	logger := logging.WithContext(ctx, m.logger)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("task execution panicked: %v", r)
			m.failTask(desc.TaskID, err)
			logging.ErrorWithContext(logger, "task execution panicked", "task_panic",
				logging.Any("panic", r),
				logging.String(logging.FieldErrorHint, "report this failure with the task url"),
			)
			result = outcome{status: tasks.StatusError, err: err}
		}
		m.setLastTask(desc.TaskID)
		if result.err != nil {
			m.setLastError(result.err)
		}
	}()

	logger.Info("task started",
		logging.String(logging.FieldEventType, "task_started"),
		logging.String("kind", string(desc.Kind)),
		logging.URL(desc.URL),
	)

	var err error
	switch desc.Kind {
	case tasks.KindPlaylist:
		err = m.expandPlaylist(ctx, desc)
	default:
		err = m.runSingle(ctx, desc.TaskID, desc.URL, desc.Credentials)
	}

	status := tasks.StatusError
	if task, getErr := m.tasks.Get(desc.TaskID); getErr == nil {
		status = task.Status
	}
	if !status.IsTerminal() {
		if err == nil {
			err = errors.New("task ended without a final status")
		}
		m.failTask(desc.TaskID, err)
		status = tasks.StatusError
	}
	m.notifyTaskFinished(ctx, desc.TaskID)

	logger.Info("task finished",
		logging.String(logging.FieldEventType, "task_finished"),
		logging.String("status", string(status)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return outcome{status: status, err: err}
}

// runSingle downloads and converts one URL, driving taskID through
// starting, downloading, converting and a terminal status.
func (m *Manager) runSingle(ctx context.Context, taskID, rawURL string, creds media.Credentials) error {
	ctx = services.WithTaskID(ctx, taskID)
	logger := logging.WithContext(ctx, m.logger)
	m.tasks.Update(taskID, func(t *tasks.Task) { t.Status = tasks.StatusStarting })
	defer m.reporter.done(taskID)

	path, err := m.fetcher.FetchAndConvert(ctx, media.Request{
		TaskID:      taskID,
		URL:         rawURL,
		OutputDir:   m.cfg.Paths.DownloadDir,
		Credentials: creds,
	}, m.reporter)
	if err != nil {
		m.failTask(taskID, err)
		logging.WarnWithContext(logger, "download failed", "download_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the url is reachable and yt-dlp is current"),
			logging.String(logging.FieldImpact, "task marked as error"),
		)
		m.recordHistory(ctx, taskID, probe.AudioInfo{})
		return err
	}

	name, finalPath, err := m.finalizeOutput(path)
	if err == nil {
		var info probe.AudioInfo
		info, err = m.inspectOutput(ctx, finalPath)
		if err == nil {
			m.tasks.Update(taskID, func(t *tasks.Task) {
				t.Status = tasks.StatusCompleted
				t.Progress = 100
				t.Result = name
				t.OutputPath = finalPath
				if t.Title == "" || t.Title == t.URL {
					t.Title = strings.TrimSuffix(name, filepath.Ext(name))
				}
			})
			logger.Info("download completed",
				logging.String(logging.FieldEventType, "download_completed"),
				logging.String("file", name),
			)
			m.recordHistory(ctx, taskID, info)
			return nil
		}
	}
	m.failTask(taskID, err)
	logging.WarnWithContext(logger, "output handling failed", "output_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check download directory permissions and ffmpeg"),
	)
	m.recordHistory(ctx, taskID, probe.AudioInfo{})
	return err
}

// finalizeOutput renames the produced file to its sanitized name.
func (m *Manager) finalizeOutput(path string) (string, string, error) {
	name := textutil.OutputFileName(path, "audio")
	target := filepath.Join(filepath.Dir(path), name)
	if target == path {
		return name, path, nil
	}
	if err := os.Rename(path, target); err != nil {
		return "", "", services.Wrap(services.ErrExternalTool, "output", "rename", "", err)
	}
	return name, target, nil
}

// inspectOutput confirms the converted file carries audio. An unavailable
// ffprobe is tolerated; a file without an audio stream is not.
func (m *Manager) inspectOutput(ctx context.Context, path string) (probe.AudioInfo, error) {
	if m.probe == nil {
		return probe.AudioInfo{}, nil
	}
	info, err := m.probe(ctx, m.cfg.FFprobeBinary(), path)
	switch {
	case err == nil:
		return info, nil
	case errors.Is(err, probe.ErrNoAudio):
		return info, services.Wrap(services.ErrExternalTool, "output", "verify", "converted file has no audio stream", nil)
	default:
		m.logger.Debug("ffprobe inspection skipped", logging.String("file", filepath.Base(path)), logging.Error(err))
		return probe.AudioInfo{}, nil
	}
}

func (m *Manager) failTask(taskID string, err error) {
	message := services.Message(err)
	if errors.Is(err, context.Canceled) {
		message = "cancelled by shutdown"
	}
	m.tasks.Update(taskID, func(t *tasks.Task) {
		t.Status = tasks.StatusError
		t.Error = message
	})
}

// recordHistory stores the terminal task in the history database. Failures
// are logged and never affect the task.
func (m *Manager) recordHistory(ctx context.Context, taskID string, info probe.AudioInfo) {
	if m.history == nil {
		return
	}
	task, err := m.tasks.Get(taskID)
	if err != nil || !task.IsTerminal() {
		return
	}
	rec := history.Record{
		TaskID:      task.ID,
		ParentID:    task.ParentID,
		URL:         task.URL,
		Title:       task.Title,
		Kind:        string(task.Kind),
		Status:      string(task.Status),
		Filename:    task.Result,
		Error:       task.Error,
		Duration:    info.Duration,
		BitRate:     info.BitRate,
		Codec:       info.Codec,
		AddedAt:     task.AddedAt,
		CompletedAt: task.CompletedAt,
	}
	if task.OutputPath != "" {
		if stat, statErr := os.Stat(task.OutputPath); statErr == nil {
			rec.SizeBytes = stat.Size()
		}
	}
	if err := m.history.Add(context.WithoutCancel(ctx), rec); err != nil {
		logging.WarnWithContext(m.logger, "failed to record download history", "history_write_failed",
			logging.TaskID(taskID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state directory is writable"),
		)
	}
}
