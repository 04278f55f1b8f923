package queue

import (
	"time"

	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
)

// Status is the lifecycle of a queue entry. It is coarser than the task
// status: the worker reports fine-grained progress on the task itself.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether the entry has finished.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// displayOrder ranks statuses for listings: active work first.
var displayOrder = map[Status]int{
	StatusProcessing: 0,
	StatusQueued:     1,
	StatusCompleted:  2,
	StatusError:      3,
	StatusCancelled:  4,
}

// StatusFromTask maps a terminal task status onto the queue entry status.
func StatusFromTask(status tasks.Status) Status {
	switch status {
	case tasks.StatusCompleted:
		return StatusCompleted
	case tasks.StatusCancelled:
		return StatusCancelled
	default:
		return StatusError
	}
}

// Descriptor is the unit of work handed to the worker.
type Descriptor struct {
	TaskID      string
	URL         string
	Kind        tasks.Kind
	Title       string
	Credentials media.Credentials
}

// Entry is the listing view of a queued descriptor. Credentials are never
// exposed through it.
type Entry struct {
	TaskID      string
	URL         string
	Kind        tasks.Kind
	Title       string
	Status      Status
	AddedAt     time.Time
	CompletedAt time.Time

	seq uint64
}
