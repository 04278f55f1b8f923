package workflow

// StatusSummary is a lightweight snapshot of the workflow.
type StatusSummary struct {
	Running         bool
	WorkerRunning   bool
	Pending         int
	QueueEntries    int
	ActiveImmediate int
	Tasks           int
	LastError       string
	LastTaskID      string
}

// Status returns the latest workflow information.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running:       m.running,
		WorkerRunning: m.workerRunning,
		LastTaskID:    m.lastTaskID,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()

	summary.Pending = m.queue.Pending()
	summary.QueueEntries = m.queue.Len()
	summary.ActiveImmediate = int(m.activeImmediate.Load())
	summary.Tasks = m.tasks.Len()
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastTask(id string) {
	m.mu.Lock()
	m.lastTaskID = id
	m.mu.Unlock()
}
