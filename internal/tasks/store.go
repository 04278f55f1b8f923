package tasks

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rafaeljuniorvip/downyoutube/internal/services"
)

// Store is the concurrency-safe registry of task state. A single mutex guards
// every read-modify-write; updates are small and never wait on I/O.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	now   func() time.Time
}

// NewStore constructs an empty task store.
func NewStore() *Store {
	return &Store{tasks: make(map[string]*Task), now: time.Now}
}

// Create registers a new task. The id must be unique for the process lifetime.
func (s *Store) Create(task Task) (Task, error) {
	if task.ID == "" {
		return Task{}, services.Wrap(services.ErrValidation, "tasks", "create", "task id is required", nil)
	}
	if task.Status == "" {
		task.Status = StatusQueued
	}
	if task.Title == "" {
		task.Title = task.URL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[task.ID]; exists {
		return Task{}, services.Wrap(services.ErrConflict, "tasks", "create", fmt.Sprintf("task %s already exists", task.ID), nil)
	}
	if task.AddedAt.IsZero() {
		task.AddedAt = s.now()
	}
	record := task.Clone()
	s.enforce(nil, &record)
	s.tasks[record.ID] = &record
	return record.Clone(), nil
}

// Update merges the changes applied by mutate into the stored record. It is a
// no-op returning false when the id is unknown or the task is already
// terminal, which lets late progress callbacks race with completion safely.
func (s *Store) Update(id string, mutate func(*Task)) bool {
	if mutate == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tasks[id]
	if !ok || current.Status.IsTerminal() {
		return false
	}
	next := current.Clone()
	mutate(&next)
	next.ID = current.ID
	next.ParentID = current.ParentID
	next.AddedAt = current.AddedAt
	s.enforce(current, &next)
	s.tasks[id] = &next
	return true
}

// enforce applies the record invariants: progress stays within [0, 100] and
// never decreases, statuses only move forward, error and result fields match
// the status, and terminal records carry a completion time.
func (s *Store) enforce(prev *Task, next *Task) {
	next.Progress = clampProgress(next.Progress)
	if next.Status.rank() < 0 {
		next.Status = StatusQueued
		if prev != nil {
			next.Status = prev.Status
		}
	}
	if prev != nil {
		if next.Progress < prev.Progress {
			next.Progress = prev.Progress
		}
		if next.Status.rank() < prev.Status.rank() {
			next.Status = prev.Status
		}
	}
	if next.Status == StatusError {
		if next.Error == "" {
			next.Error = "unknown error"
		}
	} else {
		next.Error = ""
	}
	if next.Status != StatusCompleted {
		next.Result = ""
		next.OutputPath = ""
	}
	if next.Total < 0 {
		next.Total = 0
	}
	if next.CompletedCount > next.Total {
		next.CompletedCount = next.Total
	}
	if next.Status.IsTerminal() {
		if next.CompletedAt.IsZero() {
			next.CompletedAt = s.now()
		}
	} else {
		next.CompletedAt = time.Time{}
	}
}

func clampProgress(value float64) float64 {
	switch {
	case value != value, value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}

// Get returns a snapshot of the task with the given id.
func (s *Store) Get(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return Task{}, services.Wrap(services.ErrNotFound, "tasks", "get", fmt.Sprintf("task %s not found", id), nil)
	}
	return task.Clone(), nil
}

// List returns a snapshot of every task. Order is unspecified; callers sort.
func (s *Store) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task.Clone())
	}
	return out
}

// Children returns snapshots of tasks registered under parentID, oldest
// first.
func (s *Store) Children(parentID string) []Task {
	if parentID == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Task
	for _, task := range s.tasks {
		if task.ParentID == parentID {
			out = append(out, task.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Remove deletes terminal tasks with the given ids along with their entry
// tasks. Active tasks are left untouched. It returns the number removed.
func (s *Store) Remove(ids ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	targets := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if task, ok := s.tasks[id]; ok && task.Status.IsTerminal() {
			targets[id] = struct{}{}
		}
	}
	removed := 0
	for id, task := range s.tasks {
		_, direct := targets[id]
		_, viaParent := targets[task.ParentID]
		if direct || (viaParent && task.Status.IsTerminal()) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

// Len reports how many tasks are registered.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
