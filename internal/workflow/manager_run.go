package workflow

import (
	"context"
	"errors"

	"github.com/rafaeljuniorvip/downyoutube/internal/logging"
	"github.com/rafaeljuniorvip/downyoutube/internal/queue"
	"github.com/rafaeljuniorvip/downyoutube/internal/services"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
)

// Start binds execution to ctx. The batch worker itself starts lazily on the
// first batch submission; calling Start is optional for callers that do not
// need shutdown propagation. Work submitted before Start keeps running and is
// cancelled together with ctx.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return errors.New("workflow stopped")
	}
	if m.started {
		return errors.New("workflow already started")
	}
	m.started = true
	if m.baseCtx == nil {
		m.baseCtx, m.cancel = context.WithCancel(ctx)
	} else {
		context.AfterFunc(ctx, m.cancel)
	}
	m.running = true
	if m.queue.Pending() > 0 {
		m.startWorkerLocked()
	}
	return nil
}

// Stop cancels in-flight executions and waits for the worker and immediate
// tasks to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.running = false
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// acquireLocked returns the execution context, creating it on first use.
// Callers hold m.mu.
func (m *Manager) acquireLocked() (context.Context, error) {
	if m.stopped {
		return nil, services.Wrap(services.ErrNotReady, "workflow", "dispatch", "workflow is shutting down", nil)
	}
	if m.baseCtx == nil {
		m.baseCtx, m.cancel = context.WithCancel(context.Background())
		m.running = true
	}
	return m.baseCtx, nil
}

func (m *Manager) ensureWorker() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.acquireLocked(); err != nil {
		return err
	}
	m.startWorkerLocked()
	return nil
}

func (m *Manager) startWorkerLocked() {
	if m.workerRunning {
		return
	}
	m.workerRunning = true
	m.wg.Add(1)
	go m.runWorker(m.baseCtx)
}

// runWorker drains the batch queue one descriptor at a time until ctx ends.
func (m *Manager) runWorker(ctx context.Context) {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		m.workerRunning = false
		m.mu.Unlock()
	}()

	m.logger.Info("batch worker started", logging.String(logging.FieldEventType, "worker_started"))
	var run batchRun
	for {
		if ctx.Err() != nil {
			m.logger.Info("batch worker stopped", logging.String(logging.FieldEventType, "worker_stopped"))
			return
		}
		desc, ok := m.queue.Next(ctx, m.pollInterval)
		if !ok {
			m.notifyQueueDrained(ctx, &run)
			continue
		}
		run.record(m.processEntry(ctx, desc))
		m.notifyQueueDrained(ctx, &run)
	}
}

func (m *Manager) processEntry(ctx context.Context, desc queue.Descriptor) tasks.Status {
	result := m.execute(ctx, desc)
	m.queue.Finish(desc.TaskID, queue.StatusFromTask(result.status))
	if result.err != nil {
		m.logger.Debug("batch entry finished with error",
			logging.TaskID(desc.TaskID),
			logging.Error(result.err),
		)
	}
	return result.status
}
