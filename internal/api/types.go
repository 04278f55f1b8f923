package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges a mutation.
type MessageResponse struct {
	Message string `json:"message"`
}

// SubmitRequest asks for an immediate download. Type is "single", "video"
// or "playlist"; when empty it is detected from the URL.
type SubmitRequest struct {
	URL     string `json:"url"`
	Type    string `json:"type,omitempty"`
	Cookies string `json:"cookies,omitempty"`
}

// SubmitResponse carries the identifier of the created task.
type SubmitResponse struct {
	TaskID string `json:"task_id"`
}

// BatchRequest appends URLs to the batch queue.
type BatchRequest struct {
	URLs    []string `json:"urls"`
	Cookies string   `json:"cookies,omitempty"`
}

// BatchItem describes one enqueued URL.
type BatchItem struct {
	TaskID string `json:"task_id"`
	URL    string `json:"url"`
	Type   string `json:"type"`
	Title  string `json:"title"`
}

// BatchResponse is returned by the batch endpoint.
type BatchResponse struct {
	Message string      `json:"message"`
	Items   []BatchItem `json:"items"`
}

// InfoRequest asks for a metadata preview.
type InfoRequest struct {
	URL     string `json:"url"`
	Cookies string `json:"cookies,omitempty"`
}

// InfoVideo is one playlist entry in a metadata preview.
type InfoVideo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// InfoResponse previews a URL without downloading it.
type InfoResponse struct {
	Type      string      `json:"type"`
	Title     string      `json:"title"`
	Duration  float64     `json:"duration"`
	Thumbnail string      `json:"thumbnail,omitempty"`
	Channel   string      `json:"channel,omitempty"`
	Count     int         `json:"count,omitempty"`
	Videos    []InfoVideo `json:"videos,omitempty"`
}

// EntryOutcome is the per-entry result of a playlist task.
type EntryOutcome struct {
	TaskID   string `json:"taskId,omitempty"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Task is the transport form of a tracked task.
type Task struct {
	ID             string         `json:"id"`
	ParentID       string         `json:"parentId,omitempty"`
	URL            string         `json:"url"`
	Type           string         `json:"type"`
	Status         string         `json:"status"`
	Progress       float64        `json:"progress"`
	Title          string         `json:"title"`
	Error          string         `json:"error,omitempty"`
	Result         string         `json:"result,omitempty"`
	AddedAt        string         `json:"addedAt,omitempty"`
	CompletedAt    string         `json:"completedAt,omitempty"`
	Total          int            `json:"total,omitempty"`
	CompletedCount int            `json:"completed,omitempty"`
	CurrentIndex   int            `json:"currentIndex,omitempty"`
	CurrentTitle   string         `json:"currentTitle,omitempty"`
	Entries        []EntryOutcome `json:"entries,omitempty"`
}

// TaskEntriesResponse lists the entry sub-tasks of a playlist task.
type TaskEntriesResponse struct {
	ParentID string `json:"parentId"`
	Entries  []Task `json:"entries"`
}

// QueueItem joins a batch queue entry with the live state of its task.
type QueueItem struct {
	TaskID       string  `json:"id"`
	URL          string  `json:"url"`
	Type         string  `json:"type"`
	Title        string  `json:"title"`
	QueueStatus  string  `json:"queueStatus"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	CurrentTitle string  `json:"currentTitle,omitempty"`
	CurrentIndex int     `json:"currentIndex,omitempty"`
	Total        int     `json:"total,omitempty"`
	Error        string  `json:"error,omitempty"`
	AddedAt      string  `json:"addedAt,omitempty"`
	CompletedAt  string  `json:"completedAt,omitempty"`
}

// QueueListResponse wraps the batch queue listing.
type QueueListResponse struct {
	QueueSize  int         `json:"queue_size"`
	TotalItems int         `json:"total_items"`
	Items      []QueueItem `json:"items"`
}

// ClearResponse reports how many terminal queue entries were purged.
type ClearResponse struct {
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

// DownloadFile is one audio file in the download directory.
type DownloadFile struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

// DownloadListResponse wraps the download directory listing.
type DownloadListResponse struct {
	Files []DownloadFile `json:"files"`
}

// HistoryRecord is one persisted finished task.
type HistoryRecord struct {
	TaskID      string  `json:"taskId"`
	ParentID    string  `json:"parentId,omitempty"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	Filename    string  `json:"filename,omitempty"`
	SizeBytes   int64   `json:"sizeBytes,omitempty"`
	Error       string  `json:"error,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
	BitRate     int64   `json:"bitRate,omitempty"`
	Codec       string  `json:"codec,omitempty"`
	CompletedAt string  `json:"completedAt,omitempty"`
}

// HistoryResponse wraps history records, newest first.
type HistoryResponse struct {
	Records []HistoryRecord `json:"records"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running         bool   `json:"running"`
	WorkerRunning   bool   `json:"workerRunning"`
	Pending         int    `json:"pending"`
	QueueEntries    int    `json:"queueEntries"`
	ActiveImmediate int    `json:"activeImmediate"`
	Tasks           int    `json:"tasks"`
	LastError       string `json:"lastError,omitempty"`
	LastTaskID      string `json:"lastTaskId,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	LockFilePath string             `json:"lockFilePath"`
	DownloadDir  string             `json:"downloadDir"`
	FreeBytes    uint64             `json:"freeBytes"`
	HistoryPath  string             `json:"historyPath,omitempty"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// LogsResponse carries daemon log lines and the offset to resume from.
type LogsResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
