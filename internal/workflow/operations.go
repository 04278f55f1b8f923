package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rafaeljuniorvip/downyoutube/internal/history"
	"github.com/rafaeljuniorvip/downyoutube/internal/logging"
	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/queue"
	"github.com/rafaeljuniorvip/downyoutube/internal/services"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
)

// BatchItem describes one enqueued URL.
type BatchItem struct {
	TaskID string
	URL    string
	Kind   tasks.Kind
	Title  string
}

// EnqueueBatch appends every non-empty URL to the batch queue and makes sure
// the worker is running. Title lookups are best effort.
func (m *Manager) EnqueueBatch(ctx context.Context, urls []string, creds media.Credentials) ([]BatchItem, error) {
	cleaned := make([]string, 0, len(urls))
	for _, raw := range urls {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, services.Wrap(services.ErrValidation, "batch", "", "no URLs provided", nil)
	}
	m.mu.RLock()
	stopped := m.stopped
	m.mu.RUnlock()
	if stopped {
		return nil, services.Wrap(services.ErrNotReady, "batch", "", "workflow is shutting down", nil)
	}

	items := make([]BatchItem, 0, len(cleaned))
	for _, rawURL := range cleaned {
		kind, _ := resolveKind(rawURL, "")
		title := m.resolveTitle(ctx, rawURL, creds)
		id := m.newID()
		if _, err := m.tasks.Create(tasks.Task{ID: id, URL: rawURL, Kind: kind, Title: title, Status: tasks.StatusQueued}); err != nil {
			return items, err
		}
		if _, err := m.queue.Enqueue(queue.Descriptor{TaskID: id, URL: rawURL, Kind: kind, Title: title, Credentials: creds}); err != nil {
			m.tasks.Update(id, func(t *tasks.Task) {
				t.Status = tasks.StatusError
				t.Error = services.Message(err)
			})
			return items, err
		}
		items = append(items, BatchItem{TaskID: id, URL: rawURL, Kind: kind, Title: title})
	}
	if err := m.ensureWorker(); err != nil {
		return items, err
	}
	m.logger.Info("batch enqueued",
		logging.String(logging.FieldEventType, "batch_enqueued"),
		logging.Int("items", len(items)),
	)
	return items, nil
}

func (m *Manager) resolveTitle(ctx context.Context, rawURL string, creds media.Credentials) string {
	if !m.cfg.Workflow.ResolveBatchTitles {
		return rawURL
	}
	meta, err := m.fetcher.ResolveMetadata(ctx, rawURL, creds)
	if err != nil {
		m.logger.Debug("batch title lookup failed", logging.URL(rawURL), logging.Error(err))
		return rawURL
	}
	if meta == nil || strings.TrimSpace(meta.Title) == "" {
		return rawURL
	}
	return meta.Title
}

// Task returns a snapshot of a task.
func (m *Manager) Task(id string) (tasks.Task, error) {
	return m.tasks.Get(id)
}

// Entries returns the sub-tasks registered for playlist entries of id.
func (m *Manager) Entries(id string) ([]tasks.Task, error) {
	if _, err := m.tasks.Get(id); err != nil {
		return nil, err
	}
	return m.tasks.Children(id), nil
}

// QueueItem joins a queue entry with its live task state.
type QueueItem struct {
	Entry queue.Entry
	Task  tasks.Task
}

// QueueView is the listing returned by ListQueue.
type QueueView struct {
	Pending int
	Total   int
	Items   []QueueItem
}

// ListQueue returns batch entries, active work first.
func (m *Manager) ListQueue() QueueView {
	entries := m.queue.List()
	view := QueueView{Pending: m.queue.Pending(), Total: len(entries), Items: make([]QueueItem, 0, len(entries))}
	for _, entry := range entries {
		item := QueueItem{Entry: entry}
		if task, err := m.tasks.Get(entry.TaskID); err == nil {
			item.Task = task
		}
		view.Items = append(view.Items, item)
	}
	return view
}

// Cancel withdraws a queued batch task. Tasks that already started, finished
// or were dispatched immediately are rejected with a conflict.
func (m *Manager) Cancel(id string) error {
	if _, err := m.queue.Cancel(id); err != nil {
		if services.Classify(err) == services.ClassNotFound {
			if task, getErr := m.tasks.Get(id); getErr == nil {
				return services.Wrap(services.ErrConflict, "queue", "cancel", fmt.Sprintf("task is %s and not in the batch queue", task.Status), nil)
			}
		}
		return err
	}
	m.tasks.Update(id, func(t *tasks.Task) { t.Status = tasks.StatusCancelled })
	m.logger.Info("queue item cancelled",
		logging.String(logging.FieldEventType, "queue_item_cancelled"),
		logging.TaskID(id),
	)
	return nil
}

// PurgeTerminal removes finished queue entries and their task records.
func (m *Manager) PurgeTerminal() int {
	removed := m.queue.Purge()
	if len(removed) > 0 {
		m.tasks.Remove(removed...)
	}
	return len(removed)
}

// OutputFile returns the path of a completed single task's output.
func (m *Manager) OutputFile(id string) (string, error) {
	task, err := m.tasks.Get(id)
	if err != nil {
		return "", err
	}
	if task.Status != tasks.StatusCompleted {
		return "", services.Wrap(services.ErrNotReady, "download", "", "download not completed", nil)
	}
	if task.OutputPath == "" {
		return "", services.Wrap(services.ErrNotFound, "download", "", "task has no output file", nil)
	}
	info, err := os.Stat(task.OutputPath)
	if err != nil || !info.Mode().IsRegular() {
		return "", services.Wrap(services.ErrNotFound, "download", "", "file not found", nil)
	}
	return task.OutputPath, nil
}

// Info resolves metadata for a URL without downloading it.
func (m *Manager) Info(ctx context.Context, rawURL string, creds media.Credentials) (*media.Metadata, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, services.Wrap(services.ErrValidation, "info", "", "url is required", nil)
	}
	return m.fetcher.ResolveMetadata(ctx, rawURL, creds)
}

// DownloadFile describes a converted file in the download directory.
type DownloadFile struct {
	Name     string
	Size     int64
	Modified time.Time
}

// ListDownloads lists converted files in the download directory, newest first.
func (m *Manager) ListDownloads() ([]DownloadFile, error) {
	entries, err := os.ReadDir(m.cfg.Paths.DownloadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []DownloadFile{}, nil
		}
		return nil, fmt.Errorf("read download directory: %w", err)
	}
	ext := m.cfg.AudioExtension()
	files := make([]DownloadFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, DownloadFile{Name: entry.Name(), Size: info.Size(), Modified: info.ModTime()})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].Modified.Equal(files[j].Modified) {
			return files[i].Modified.After(files[j].Modified)
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// OpenDownload resolves name inside the download directory. Names with path
// components are rejected.
func (m *Manager) OpenDownload(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", services.Wrap(services.ErrValidation, "download", "", "invalid file name", nil)
	}
	path := filepath.Join(m.cfg.Paths.DownloadDir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", services.Wrap(services.ErrNotFound, "download", "", "file not found", nil)
	}
	return path, nil
}

// History returns recently finished tasks, newest first.
func (m *Manager) History(ctx context.Context, limit int) ([]history.Record, error) {
	if m.history == nil {
		return []history.Record{}, nil
	}
	return m.history.Recent(ctx, limit)
}
