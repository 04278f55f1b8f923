package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rafaeljuniorvip/downyoutube/internal/config"
	"github.com/rafaeljuniorvip/downyoutube/internal/history"
	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/media/probe"
	"github.com/rafaeljuniorvip/downyoutube/internal/notifications"
	"github.com/rafaeljuniorvip/downyoutube/internal/queue"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
	"github.com/rafaeljuniorvip/downyoutube/internal/testsupport"
	"github.com/rafaeljuniorvip/downyoutube/internal/workflow"
)

// stubFetcher writes a small file per fetch and reports byte progress.
type stubFetcher struct {
	mu        sync.Mutex
	metadata  map[string]*media.Metadata
	metaErr   map[string]error
	fetchErr  map[string]error
	names     map[string]string
	gate      chan struct{}
	active    int
	maxActive int
	fetched   []string
	panicURL  string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		metadata: make(map[string]*media.Metadata),
		metaErr:  make(map[string]error),
		fetchErr: make(map[string]error),
		names:    make(map[string]string),
	}
}

func (s *stubFetcher) ResolveMetadata(_ context.Context, rawURL string, _ media.Credentials) (*media.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.metaErr[rawURL]; err != nil {
		return nil, err
	}
	if meta, ok := s.metadata[rawURL]; ok {
		return meta, nil
	}
	return &media.Metadata{Title: "Title for " + rawURL}, nil
}

func (s *stubFetcher) FetchAndConvert(ctx context.Context, req media.Request, sink media.ProgressSink) (string, error) {
	s.mu.Lock()
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	s.fetched = append(s.fetched, req.URL)
	gate := s.gate
	err := s.fetchErr[req.URL]
	name := s.names[req.URL]
	panicURL := s.panicURL
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	if req.URL == panicURL {
		panic("fetcher exploded")
	}
	sink.Report(req.TaskID, media.ProgressEvent{Phase: media.PhaseDownloading, DownloadedBytes: 0, TotalBytes: 0})
	sink.Report(req.TaskID, media.ProgressEvent{Phase: media.PhaseDownloading, DownloadedBytes: 50, TotalBytes: 100})
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	sink.Report(req.TaskID, media.ProgressEvent{Phase: media.PhaseDownloading, DownloadedBytes: 100, TotalBytes: 100})
	sink.Report(req.TaskID, media.ProgressEvent{Phase: media.PhaseFinished, DownloadedBytes: 100, TotalBytes: 100})

	if name == "" {
		name = fmt.Sprintf("track-%s.mp3", strings.ReplaceAll(req.TaskID, "/", "_"))
	}
	path := filepath.Join(req.OutputDir, name)
	if writeErr := os.WriteFile(path, []byte("audio"), 0o644); writeErr != nil {
		return "", writeErr
	}
	return path, nil
}

func (s *stubFetcher) snapshot() (maxActive int, fetched []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxActive, append([]string(nil), s.fetched...)
}

type memoryHistory struct {
	mu      sync.Mutex
	records []history.Record
	err     error
}

func (h *memoryHistory) Add(_ context.Context, rec history.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, rec)
	return nil
}

func (h *memoryHistory) Recent(_ context.Context, limit int) ([]history.Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := append([]history.Record(nil), h.records...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (h *memoryHistory) all() []history.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]history.Record(nil), h.records...)
}

type publishedEvent struct {
	event   notifications.Event
	payload notifications.Payload
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{event: event, payload: payload})
	return nil
}

func (r *recordingNotifier) all() []publishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publishedEvent(nil), r.events...)
}

func stubProbe(context.Context, string, string) (probe.AudioInfo, error) {
	return probe.AudioInfo{Codec: "mp3", Duration: time.Minute}, nil
}

type harness struct {
	cfg     *config.Config
	store   *tasks.Store
	queue   *queue.Queue
	fetcher *stubFetcher
	history *memoryHistory
	notify  *recordingNotifier
	manager *workflow.Manager
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithBatchTitles(true))
	for _, fn := range mutate {
		fn(cfg)
	}
	h := &harness{
		cfg:     cfg,
		store:   tasks.NewStore(),
		queue:   queue.New(),
		fetcher: newStubFetcher(),
		history: &memoryHistory{},
		notify:  &recordingNotifier{},
	}
	var (
		idMu sync.Mutex
		next int
	)
	h.manager = workflow.NewManager(h.cfg, h.store, h.queue, h.fetcher, nil,
		workflow.WithHistory(h.history),
		workflow.WithNotifier(h.notify),
		workflow.WithProbe(stubProbe),
		workflow.WithIDGenerator(func() string {
			idMu.Lock()
			defer idMu.Unlock()
			next++
			return fmt.Sprintf("task-%03d", next)
		}),
	)
	if err := h.manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(h.manager.Stop)
	return h
}

func waitForTask(t *testing.T, m *workflow.Manager, id string, cond func(tasks.Task) bool) tasks.Task {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		task, err := m.Task(id)
		if err == nil && cond(task) {
			return task
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for task %s (last: %+v, err: %v)", id, task, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func terminal(task tasks.Task) bool { return task.IsTerminal() }

var errUnavailable = errors.New("video unavailable")

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
