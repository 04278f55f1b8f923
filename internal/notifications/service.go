package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rafaeljuniorvip/downyoutube/internal/config"
)

const userAgent = "downyoutube/1.0"

// Event identifies a notification kind.
type Event string

const (
	EventTaskCompleted  Event = "task_completed"
	EventTaskFailed     Event = "task_failed"
	EventQueueCompleted Event = "queue_completed"
	EventTest           Event = "test"
)

// Payload carries event fields. Recognized keys per event:
//
//	task_completed:  title, kind, file, count
//	task_failed:     title, error
//	queue_completed: processed, failed, duration
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a no-op when
// notifications.ntfy_topic is empty.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		taskEvents:  cfg.Notifications.TaskEvents,
		queueEvents: cfg.Notifications.QueueEvents,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	taskEvents  bool
	queueEvents bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	switch event {
	case EventTaskCompleted, EventTaskFailed:
		if !n.taskEvents {
			return nil
		}
	case EventQueueCompleted:
		if !n.queueEvents {
			return nil
		}
	}
	msg, ok := format(event, payload)
	if !ok {
		return fmt.Errorf("unsupported notification event %q", event)
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventTaskCompleted:
		title := stringField(payload, "title", "untitled")
		if stringField(payload, "kind", "") == "playlist" {
			return message{
				title: "downyoutube - Playlist Done",
				body:  fmt.Sprintf("📂 Playlist finished: %s (%d tracks)", title, intField(payload, "count")),
				tags:  []string{"downyoutube", "playlist", "completed"},
			}, true
		}
		body := fmt.Sprintf("🎵 Downloaded: %s", title)
		if file := stringField(payload, "file", ""); file != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, file)
		}
		return message{
			title: "downyoutube - Downloaded",
			body:  body,
			tags:  []string{"downyoutube", "download", "completed"},
		}, true
	case EventTaskFailed:
		return message{
			title:    "downyoutube - Download Failed",
			body:     fmt.Sprintf("❌ %s: %s", stringField(payload, "title", "untitled"), stringField(payload, "error", "unknown error")),
			tags:     []string{"downyoutube", "download", "error"},
			priority: "high",
		}, true
	case EventQueueCompleted:
		processed := intField(payload, "processed")
		failed := intField(payload, "failed")
		elapsed := durationText(payload["duration"])
		if failed == 0 {
			return message{
				title: "downyoutube - Queue Complete",
				body:  fmt.Sprintf("Batch queue drained: %d items in %s", processed, elapsed),
				tags:  []string{"downyoutube", "queue", "completed"},
			}, true
		}
		return message{
			title: "downyoutube - Queue Complete (with errors)",
			body:  fmt.Sprintf("Batch queue drained: %d succeeded, %d failed in %s", processed-failed, failed, elapsed),
			tags:  []string{"downyoutube", "queue", "completed"},
		}, true
	case EventTest:
		return message{
			title:    "downyoutube - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"downyoutube", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", msg.title)
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func stringField(payload Payload, key, fallback string) string {
	if value, ok := payload[key]; ok {
		if text := strings.TrimSpace(fmt.Sprint(value)); text != "" {
			return text
		}
	}
	return fallback
}

func intField(payload Payload, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func durationText(value any) string {
	d, _ := value.(time.Duration)
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
