package workflow

import (
	"context"
	"time"

	"github.com/rafaeljuniorvip/downyoutube/internal/logging"
	"github.com/rafaeljuniorvip/downyoutube/internal/notifications"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
)

// WithNotifier publishes task and queue events to svc.
func WithNotifier(svc notifications.Service) Option {
	return func(m *Manager) { m.notifier = svc }
}

// batchRun counts batch entries between two moments the queue was empty.
type batchRun struct {
	started   time.Time
	processed int
	failed    int
}

func (b *batchRun) record(status tasks.Status) {
	if b.processed == 0 {
		b.started = time.Now()
	}
	b.processed++
	if status != tasks.StatusCompleted {
		b.failed++
	}
}

// notifyTaskFinished publishes the terminal state of a submitted task.
// Playlist entries are covered by their parent's notification.
func (m *Manager) notifyTaskFinished(ctx context.Context, taskID string) {
	if m.notifier == nil {
		return
	}
	task, err := m.tasks.Get(taskID)
	if err != nil || !task.IsTerminal() {
		return
	}
	event := notifications.EventTaskCompleted
	payload := notifications.Payload{"title": task.Title, "kind": string(task.Kind)}
	switch {
	case task.Status != tasks.StatusCompleted:
		event = notifications.EventTaskFailed
		payload["error"] = task.Error
	case task.Kind == tasks.KindPlaylist:
		payload["count"] = task.CompletedCount
	default:
		payload["file"] = task.Result
	}
	m.publish(ctx, event, payload)
}

// notifyQueueDrained publishes a summary once the worker finds the queue
// empty after processing at least one entry, then resets run.
func (m *Manager) notifyQueueDrained(ctx context.Context, run *batchRun) {
	if run.processed == 0 || m.queue.Pending() > 0 {
		return
	}
	if m.notifier != nil {
		m.publish(ctx, notifications.EventQueueCompleted, notifications.Payload{
			"processed": run.processed,
			"failed":    run.failed,
			"duration":  time.Since(run.started),
		})
	}
	*run = batchRun{}
}

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := m.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "notification failed", "notification_failed",
			logging.String("notification_event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}
