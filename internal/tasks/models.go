package tasks

import (
	"time"
)

// Kind distinguishes single-item tasks from playlist tasks.
type Kind string

const (
	KindSingle   Kind = "single"
	KindPlaylist Kind = "playlist"
)

// ParseKind accepts the canonical kinds plus the legacy "video" label.
func ParseKind(value string) (Kind, bool) {
	switch value {
	case string(KindSingle), "video":
		return KindSingle, true
	case string(KindPlaylist):
		return KindPlaylist, true
	default:
		return "", false
	}
}

// Status represents a task lifecycle state.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusStarting    Status = "starting"
	StatusDownloading Status = "downloading"
	StatusConverting  Status = "converting"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
	StatusCancelled   Status = "cancelled"
)

// IsTerminal reports whether the status can no longer change.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusCancelled:
		return true
	default:
		return false
	}
}

// rank orders statuses along the one-directional lifecycle.
func (s Status) rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusStarting:
		return 1
	case StatusDownloading:
		return 2
	case StatusConverting:
		return 3
	case StatusCompleted, StatusError, StatusCancelled:
		return 4
	default:
		return -1
	}
}

// EntryOutcome records how one playlist entry finished.
type EntryOutcome struct {
	TaskID   string `json:"task_id,omitempty"`
	Title    string `json:"title"`
	Status   Status `json:"status"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Task is the tracked state of one unit of work.
type Task struct {
	ID       string
	ParentID string
	URL      string
	Kind     Kind
	Status   Status
	Progress float64
	Title    string
	Error    string
	// Result is the sanitized output file name of a completed single task.
	Result string
	// OutputPath is the absolute location of Result on disk.
	OutputPath  string
	AddedAt     time.Time
	CompletedAt time.Time

	Total          int
	CompletedCount int
	CurrentIndex   int
	CurrentTitle   string
	Entries        []EntryOutcome
}

// IsTerminal reports whether the task reached a final status.
func (t Task) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// Clone returns a deep copy so callers never share the entries slice with the store.
func (t Task) Clone() Task {
	if t.Entries != nil {
		entries := make([]EntryOutcome, len(t.Entries))
		copy(entries, t.Entries)
		t.Entries = entries
	}
	return t
}
