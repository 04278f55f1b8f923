package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rafaeljuniorvip/downyoutube/internal/services"
)

// Queue is an unbounded FIFO of descriptors consumed by a single worker, plus
// a registry of every entry ever enqueued so listings can show finished work
// until it is purged.
type Queue struct {
	mu      sync.Mutex
	pending []Descriptor
	entries map[string]*Entry
	seq     uint64
	notify  chan struct{}
	now     func() time.Time
}

// New constructs an empty queue.
func New() *Queue {
	return &Queue{
		entries: make(map[string]*Entry),
		notify:  make(chan struct{}, 1),
		now:     time.Now,
	}
}

// Enqueue appends a descriptor. Task ids must be unique.
func (q *Queue) Enqueue(desc Descriptor) (Entry, error) {
	if desc.TaskID == "" {
		return Entry{}, services.Wrap(services.ErrValidation, "queue", "enqueue", "task id is required", nil)
	}
	q.mu.Lock()
	if _, exists := q.entries[desc.TaskID]; exists {
		q.mu.Unlock()
		return Entry{}, services.Wrap(services.ErrConflict, "queue", "enqueue", fmt.Sprintf("task %s already queued", desc.TaskID), nil)
	}
	q.seq++
	entry := &Entry{
		TaskID:  desc.TaskID,
		URL:     desc.URL,
		Kind:    desc.Kind,
		Title:   desc.Title,
		Status:  StatusQueued,
		AddedAt: q.now(),
		seq:     q.seq,
	}
	q.entries[desc.TaskID] = entry
	q.pending = append(q.pending, desc)
	snapshot := *entry
	q.mu.Unlock()

	q.signal()
	return snapshot, nil
}

func (q *Queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Next removes the oldest pending descriptor and marks its entry processing.
// It waits up to wait for one to arrive and returns false on timeout or when
// ctx is done, so callers can re-check for shutdown between polls.
func (q *Queue) Next(ctx context.Context, wait time.Duration) (Descriptor, bool) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		if desc, ok := q.pop(); ok {
			return desc, true
		}
		select {
		case <-ctx.Done():
			return Descriptor{}, false
		case <-timer.C:
			return q.pop()
		case <-q.notify:
		}
	}
}

func (q *Queue) pop() (Descriptor, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) > 0 {
		desc := q.pending[0]
		q.pending[0] = Descriptor{}
		q.pending = q.pending[1:]
		entry, ok := q.entries[desc.TaskID]
		if !ok || entry.Status != StatusQueued {
			continue
		}
		entry.Status = StatusProcessing
		if len(q.pending) > 0 {
			q.signal()
		}
		return desc, true
	}
	return Descriptor{}, false
}

// Finish records the terminal status of a processed entry.
func (q *Queue) Finish(taskID string, status Status) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.entries[taskID]
	if !ok || entry.Status.IsTerminal() {
		return
	}
	entry.Status = status
	if status.IsTerminal() {
		entry.CompletedAt = q.now()
	}
}

// Cancel withdraws a queued entry before the worker picks it up.
func (q *Queue) Cancel(taskID string) (Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.entries[taskID]
	if !ok {
		return Entry{}, services.Wrap(services.ErrNotFound, "queue", "cancel", fmt.Sprintf("queue item %s not found", taskID), nil)
	}
	switch entry.Status {
	case StatusQueued:
	case StatusProcessing:
		return Entry{}, services.Wrap(services.ErrConflict, "queue", "cancel", "item is already processing", nil)
	default:
		return Entry{}, services.Wrap(services.ErrConflict, "queue", "cancel", fmt.Sprintf("item already %s", entry.Status), nil)
	}
	for i, desc := range q.pending {
		if desc.TaskID == taskID {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
	entry.Status = StatusCancelled
	entry.CompletedAt = q.now()
	return *entry, nil
}

// Get returns the entry for taskID.
func (q *Queue) Get(taskID string) (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.entries[taskID]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// List returns every entry, active work first and oldest first within a status.
func (q *Queue) List() []Entry {
	q.mu.Lock()
	out := make([]Entry, 0, len(q.entries))
	for _, entry := range q.entries {
		out = append(out, *entry)
	}
	q.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		oi, oj := displayOrder[out[i].Status], displayOrder[out[j].Status]
		if oi != oj {
			return oi < oj
		}
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Pending reports how many descriptors wait for the worker.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Len reports how many entries are tracked, finished ones included.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Purge drops finished entries and returns their task ids.
func (q *Queue) Purge() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var removed []string
	for id, entry := range q.entries {
		if entry.Status.IsTerminal() {
			delete(q.entries, id)
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	return removed
}
