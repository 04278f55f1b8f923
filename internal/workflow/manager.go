package workflow

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rafaeljuniorvip/downyoutube/internal/config"
	"github.com/rafaeljuniorvip/downyoutube/internal/history"
	"github.com/rafaeljuniorvip/downyoutube/internal/logging"
	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/media/probe"
	"github.com/rafaeljuniorvip/downyoutube/internal/notifications"
	"github.com/rafaeljuniorvip/downyoutube/internal/queue"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
)

// HistoryStore persists finished tasks.
type HistoryStore interface {
	Add(ctx context.Context, rec history.Record) error
	Recent(ctx context.Context, limit int) ([]history.Record, error)
}

// ProbeFunc inspects a converted file.
type ProbeFunc func(ctx context.Context, binary, path string) (probe.AudioInfo, error)

// Manager owns task execution: the batch worker, immediate dispatch, playlist
// expansion and progress reporting. All task state flows through the task store.
type Manager struct {
	cfg          *config.Config
	tasks        *tasks.Store
	queue        *queue.Queue
	fetcher      media.Fetcher
	history      HistoryStore
	notifier     notifications.Service
	probe        ProbeFunc
	logger       *slog.Logger
	reporter     *progressReporter
	pollInterval time.Duration
	newID        func() string
	// slots bounds concurrent immediate executions; nil means unbounded.
	slots chan struct{}

	mu            sync.RWMutex
	baseCtx       context.Context
	cancel        context.CancelFunc
	running       bool
	started       bool
	stopped       bool
	workerRunning bool
	wg            sync.WaitGroup
	lastErr       error
	lastTaskID    string

	activeImmediate atomic.Int64
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithHistory records finished tasks in store.
func WithHistory(store HistoryStore) Option {
	return func(m *Manager) { m.history = store }
}

// WithProbe overrides the ffprobe inspection of converted files.
func WithProbe(fn ProbeFunc) Option {
	return func(m *Manager) { m.probe = fn }
}

// WithIDGenerator overrides task id generation.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// NewManager constructs a workflow manager around the shared task store and queue.
func NewManager(cfg *config.Config, store *tasks.Store, q *queue.Queue, fetcher media.Fetcher, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workflow")
	m := &Manager{
		cfg:          cfg,
		tasks:        store,
		queue:        q,
		fetcher:      fetcher,
		probe:        probe.Inspect,
		logger:       logger,
		pollInterval: time.Duration(cfg.Workflow.QueuePollIntervalMS) * time.Millisecond,
		newID:        uuid.NewString,
	}
	if m.pollInterval <= 0 {
		m.pollInterval = time.Second
	}
	if cfg.Workflow.MaxImmediate > 0 {
		m.slots = make(chan struct{}, cfg.Workflow.MaxImmediate)
	}
	for _, opt := range opts {
		opt(m)
	}
	m.reporter = newProgressReporter(store, logger)
	return m
}

// Tasks exposes the task store backing the manager.
func (m *Manager) Tasks() *tasks.Store {
	return m.tasks
}
