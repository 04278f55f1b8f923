package api

import (
	"time"

	"github.com/rafaeljuniorvip/downyoutube/internal/deps"
	"github.com/rafaeljuniorvip/downyoutube/internal/history"
	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
	"github.com/rafaeljuniorvip/downyoutube/internal/workflow"
)

// FromTask converts a task snapshot to its API representation.
func FromTask(task tasks.Task) Task {
	dto := Task{
		ID:             task.ID,
		ParentID:       task.ParentID,
		URL:            task.URL,
		Type:           string(task.Kind),
		Status:         string(task.Status),
		Progress:       task.Progress,
		Title:          task.Title,
		Error:          task.Error,
		Result:         task.Result,
		AddedAt:        formatTime(task.AddedAt),
		CompletedAt:    formatTime(task.CompletedAt),
		Total:          task.Total,
		CompletedCount: task.CompletedCount,
		CurrentIndex:   task.CurrentIndex,
		CurrentTitle:   task.CurrentTitle,
	}
	if len(task.Entries) > 0 {
		dto.Entries = make([]EntryOutcome, 0, len(task.Entries))
		for _, entry := range task.Entries {
			dto.Entries = append(dto.Entries, EntryOutcome{
				TaskID:   entry.TaskID,
				Title:    entry.Title,
				Status:   string(entry.Status),
				Filename: entry.Filename,
				Error:    entry.Error,
			})
		}
	}
	return dto
}

// FromQueueView converts the workflow queue listing.
func FromQueueView(view workflow.QueueView) QueueListResponse {
	resp := QueueListResponse{
		QueueSize:  view.Pending,
		TotalItems: view.Total,
		Items:      make([]QueueItem, 0, len(view.Items)),
	}
	for _, item := range view.Items {
		entry := item.Entry
		dto := QueueItem{
			TaskID:      entry.TaskID,
			URL:         entry.URL,
			Type:        string(entry.Kind),
			Title:       entry.Title,
			QueueStatus: string(entry.Status),
			Status:      string(entry.Status),
			AddedAt:     formatTime(entry.AddedAt),
			CompletedAt: formatTime(entry.CompletedAt),
		}
		if task := item.Task; task.ID != "" {
			dto.Status = string(task.Status)
			dto.Progress = task.Progress
			dto.CurrentTitle = task.CurrentTitle
			dto.CurrentIndex = task.CurrentIndex
			dto.Total = task.Total
			dto.Error = task.Error
			if task.Title != "" {
				dto.Title = task.Title
			}
		}
		resp.Items = append(resp.Items, dto)
	}
	return resp
}

// FromBatchItems converts the result of an enqueue.
func FromBatchItems(items []workflow.BatchItem) []BatchItem {
	out := make([]BatchItem, 0, len(items))
	for _, item := range items {
		out = append(out, BatchItem{TaskID: item.TaskID, URL: item.URL, Type: string(item.Kind), Title: item.Title})
	}
	return out
}

// FromMetadata converts resolved metadata into a preview.
func FromMetadata(meta *media.Metadata) InfoResponse {
	if meta == nil {
		return InfoResponse{}
	}
	resp := InfoResponse{
		Type:      "video",
		Title:     meta.Title,
		Duration:  meta.Duration.Seconds(),
		Thumbnail: meta.Thumbnail,
		Channel:   meta.Channel,
	}
	if meta.IsPlaylist {
		resp.Type = "playlist"
		resp.Count = len(meta.Entries)
		resp.Videos = make([]InfoVideo, 0, len(meta.Entries))
		for _, entry := range meta.Entries {
			resp.Videos = append(resp.Videos, InfoVideo{ID: entry.ID, Title: entry.Title, Duration: entry.Duration.Seconds()})
		}
	}
	return resp
}

// FromDownloads converts a download directory listing.
func FromDownloads(files []workflow.DownloadFile) DownloadListResponse {
	resp := DownloadListResponse{Files: make([]DownloadFile, 0, len(files))}
	for _, file := range files {
		resp.Files = append(resp.Files, DownloadFile{Name: file.Name, Size: file.Size, Modified: formatTime(file.Modified)})
	}
	return resp
}

// FromHistory converts persisted history records.
func FromHistory(records []history.Record) HistoryResponse {
	resp := HistoryResponse{Records: make([]HistoryRecord, 0, len(records))}
	for _, rec := range records {
		resp.Records = append(resp.Records, HistoryRecord{
			TaskID:      rec.TaskID,
			ParentID:    rec.ParentID,
			URL:         rec.URL,
			Title:       rec.Title,
			Type:        rec.Kind,
			Status:      rec.Status,
			Filename:    rec.Filename,
			SizeBytes:   rec.SizeBytes,
			Error:       rec.Error,
			Duration:    rec.Duration.Seconds(),
			BitRate:     rec.BitRate,
			Codec:       rec.Codec,
			CompletedAt: formatTime(rec.CompletedAt),
		})
	}
	return resp
}

// FromStatusSummary converts workflow status.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	return WorkflowStatus{
		Running:         summary.Running,
		WorkerRunning:   summary.WorkerRunning,
		Pending:         summary.Pending,
		QueueEntries:    summary.QueueEntries,
		ActiveImmediate: summary.ActiveImmediate,
		Tasks:           summary.Tasks,
		LastError:       summary.LastError,
		LastTaskID:      summary.LastTaskID,
	}
}

// FromDependencies converts dependency checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(dateTimeFormat)
}

// ParseTime parses a timestamp produced by the API. Invalid input yields the zero time.
func ParseTime(value string) time.Time {
	ts, err := time.Parse(dateTimeFormat, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
