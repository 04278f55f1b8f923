package api

import (
	"testing"
	"time"

	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/queue"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
	"github.com/rafaeljuniorvip/downyoutube/internal/workflow"
)

func TestFromTaskPlaylistFields(t *testing.T) {
	added := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task := tasks.Task{
		ID:             "p1",
		URL:            "https://www.youtube.com/playlist?list=PL1",
		Kind:           tasks.KindPlaylist,
		Status:         tasks.StatusCompleted,
		Progress:       100,
		Title:          "Mix",
		AddedAt:        added,
		CompletedAt:    added.Add(time.Minute),
		Total:          2,
		CompletedCount: 1,
		CurrentIndex:   2,
		Entries: []tasks.EntryOutcome{
			{TaskID: "e1", Title: "One", Status: tasks.StatusCompleted, Filename: "One.mp3"},
			{TaskID: "e2", Title: "Two", Status: tasks.StatusError, Error: "unavailable"},
		},
	}
	dto := FromTask(task)
	if dto.Type != "playlist" || dto.Status != "completed" {
		t.Fatalf("unexpected type/status %q/%q", dto.Type, dto.Status)
	}
	if dto.AddedAt != "2026-03-01T12:00:00.000Z" {
		t.Fatalf("unexpected addedAt %q", dto.AddedAt)
	}
	if len(dto.Entries) != 2 || dto.Entries[1].Error != "unavailable" || dto.Entries[0].Filename != "One.mp3" {
		t.Fatalf("unexpected entries %+v", dto.Entries)
	}
	if !ParseTime(dto.CompletedAt).Equal(added.Add(time.Minute)) {
		t.Fatalf("completedAt did not round trip: %q", dto.CompletedAt)
	}
}

func TestFromTaskOmitsZeroTimes(t *testing.T) {
	dto := FromTask(tasks.Task{ID: "x", Status: tasks.StatusQueued})
	if dto.AddedAt != "" || dto.CompletedAt != "" || dto.Entries != nil {
		t.Fatalf("expected empty optional fields, got %+v", dto)
	}
}

func TestFromQueueViewPrefersLiveTask(t *testing.T) {
	view := workflow.QueueView{
		Pending: 1,
		Total:   2,
		Items: []workflow.QueueItem{
			{
				Entry: queue.Entry{TaskID: "a", URL: "u1", Kind: tasks.KindPlaylist, Title: "u1", Status: queue.StatusProcessing},
				Task:  tasks.Task{ID: "a", Status: tasks.StatusDownloading, Progress: 40, Title: "Resolved", CurrentTitle: "Song", CurrentIndex: 2, Total: 5},
			},
			{Entry: queue.Entry{TaskID: "b", URL: "u2", Kind: tasks.KindSingle, Title: "u2", Status: queue.StatusQueued}},
		},
	}
	resp := FromQueueView(view)
	if resp.QueueSize != 1 || resp.TotalItems != 2 || len(resp.Items) != 2 {
		t.Fatalf("unexpected envelope %+v", resp)
	}
	first := resp.Items[0]
	if first.Status != "downloading" || first.QueueStatus != "processing" || first.Title != "Resolved" || first.CurrentIndex != 2 {
		t.Fatalf("unexpected first item %+v", first)
	}
	if second := resp.Items[1]; second.Status != "queued" || second.Progress != 0 {
		t.Fatalf("unexpected second item %+v", second)
	}
}

func TestFromMetadata(t *testing.T) {
	video := FromMetadata(&media.Metadata{Title: "Song", Channel: "Artist", Duration: 90 * time.Second})
	if video.Type != "video" || video.Duration != 90 || video.Count != 0 || video.Videos != nil {
		t.Fatalf("unexpected video preview %+v", video)
	}
	playlist := FromMetadata(&media.Metadata{
		Title:      "Mix",
		IsPlaylist: true,
		Entries:    []media.PlaylistEntry{{ID: "a", Title: "A", Duration: time.Second}, {ID: "b", Title: "B"}},
	})
	if playlist.Type != "playlist" || playlist.Count != 2 || playlist.Videos[0].ID != "a" || playlist.Videos[0].Duration != 1 {
		t.Fatalf("unexpected playlist preview %+v", playlist)
	}
	if empty := FromMetadata(nil); empty.Type != "" {
		t.Fatalf("expected empty preview for nil metadata, got %+v", empty)
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		bind string
		want string
	}{
		{"127.0.0.1:5000", "http://127.0.0.1:5000"},
		{":5000", "http://127.0.0.1:5000"},
		{"0.0.0.0:8080", "http://127.0.0.1:8080"},
		{"https://music.example.com", "https://music.example.com"},
	}
	for _, tt := range tests {
		if got := BaseURL(tt.bind); got != tt.want {
			t.Fatalf("BaseURL(%q) = %q, want %q", tt.bind, got, tt.want)
		}
	}
}
