package workflow

import (
	"context"
	"strings"

	"github.com/rafaeljuniorvip/downyoutube/internal/logging"
	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/queue"
	"github.com/rafaeljuniorvip/downyoutube/internal/services"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
)

// Submit registers a task and starts it immediately on its own goroutine,
// outside the batch queue. An empty kind is detected from the URL.
func (m *Manager) Submit(rawURL string, kind tasks.Kind, creds media.Credentials) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", services.Wrap(services.ErrValidation, "submit", "", "url is required", nil)
	}
	kind, err := resolveKind(rawURL, kind)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	ctx, err := m.acquireLocked()
	if err != nil {
		m.mu.Unlock()
		return "", err
	}
	id := m.newID()
	if _, err := m.tasks.Create(tasks.Task{ID: id, URL: rawURL, Kind: kind, Status: tasks.StatusStarting}); err != nil {
		m.mu.Unlock()
		return "", err
	}
	m.wg.Add(1)
	m.mu.Unlock()

	desc := queue.Descriptor{TaskID: id, URL: rawURL, Kind: kind, Title: rawURL, Credentials: creds}
	m.activeImmediate.Add(1)
	go m.runImmediate(ctx, desc)

	m.logger.Info("task submitted",
		logging.String(logging.FieldEventType, "task_submitted"),
		logging.TaskID(id),
		logging.String("kind", string(kind)),
	)
	return id, nil
}

func (m *Manager) runImmediate(ctx context.Context, desc queue.Descriptor) {
	defer m.wg.Done()
	defer m.activeImmediate.Add(-1)
	if m.slots != nil {
		select {
		case m.slots <- struct{}{}:
			defer func() { <-m.slots }()
		case <-ctx.Done():
			m.failTask(desc.TaskID, ctx.Err())
			return
		}
	}
	m.execute(ctx, desc)
}

func resolveKind(rawURL string, kind tasks.Kind) (tasks.Kind, error) {
	if kind == "" {
		if media.DetectKind(rawURL) {
			return tasks.KindPlaylist, nil
		}
		return tasks.KindSingle, nil
	}
	parsed, ok := tasks.ParseKind(string(kind))
	if !ok {
		return "", services.Wrap(services.ErrValidation, "submit", "", "unknown kind "+string(kind), nil)
	}
	return parsed, nil
}
