package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/rafaeljuniorvip/downyoutube/internal/logging"
	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/media/probe"
	"github.com/rafaeljuniorvip/downyoutube/internal/queue"
	"github.com/rafaeljuniorvip/downyoutube/internal/services"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
)

// expandPlaylist resolves the playlist entries and runs one entry task per
// entry in source order. Entry failures are recorded on the parent and do not
// stop the loop; the parent completes once every entry has been attempted.
func (m *Manager) expandPlaylist(ctx context.Context, desc queue.Descriptor) error {
	parentID := desc.TaskID
	logger := logging.WithContext(ctx, m.logger)
	m.tasks.Update(parentID, func(t *tasks.Task) { t.Status = tasks.StatusStarting })

	meta, err := m.fetcher.ResolveMetadata(ctx, desc.URL, desc.Credentials)
	if err != nil {
		m.failTask(parentID, err)
		m.recordHistory(ctx, parentID, probe.AudioInfo{})
		return err
	}
	if meta == nil || meta.Entries == nil {
		err := services.Wrap(services.ErrValidation, "playlist", "expand", "not a valid playlist", nil)
		m.failTask(parentID, err)
		m.recordHistory(ctx, parentID, probe.AudioInfo{})
		return err
	}

	entries := meta.Entries
	total := len(entries)
	m.tasks.Update(parentID, func(t *tasks.Task) {
		t.Total = total
		if title := strings.TrimSpace(meta.Title); title != "" {
			t.Title = title
		}
		if total > 0 {
			t.Status = tasks.StatusDownloading
		}
	})
	logger.Info("playlist expanded",
		logging.String(logging.FieldEventType, "playlist_expanded"),
		logging.Int("entries", total),
	)

	for i, entry := range entries {
		index := i + 1
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			title = fmt.Sprintf("Video %d", index)
		}
		link := entry.URL
		if link == "" {
			link = media.EntryURL(entry.ID)
		}
		m.tasks.Update(parentID, func(t *tasks.Task) {
			t.CurrentIndex = index
			t.CurrentTitle = title
		})

		outcome := m.runEntry(ctx, parentID, link, title, desc.Credentials)
		m.tasks.Update(parentID, func(t *tasks.Task) {
			t.Entries = append(t.Entries, outcome)
			if outcome.Status == tasks.StatusCompleted {
				t.CompletedCount++
			}
			t.Progress = float64(index) / float64(total) * 100
		})
		logger.Info("playlist entry finished",
			logging.String(logging.FieldEventType, "playlist_entry_finished"),
			logging.Int("index", index),
			logging.Int("total", total),
			logging.String("entry_status", string(outcome.Status)),
		)
	}

	m.tasks.Update(parentID, func(t *tasks.Task) {
		t.Status = tasks.StatusCompleted
		t.Progress = 100
	})
	m.recordHistory(ctx, parentID, probe.AudioInfo{})
	return nil
}

// runEntry registers an entry task under parentID and downloads it.
func (m *Manager) runEntry(ctx context.Context, parentID, link, title string, creds media.Credentials) tasks.EntryOutcome {
	entryID := m.newID()
	if _, err := m.tasks.Create(tasks.Task{
		ID:       entryID,
		ParentID: parentID,
		URL:      link,
		Kind:     tasks.KindSingle,
		Status:   tasks.StatusStarting,
		Title:    title,
	}); err != nil {
		return tasks.EntryOutcome{Title: title, Status: tasks.StatusError, Error: services.Message(err)}
	}
	runErr := m.runSingle(ctx, entryID, link, creds)

	outcome := tasks.EntryOutcome{TaskID: entryID, Title: title, Status: tasks.StatusError}
	entry, err := m.tasks.Get(entryID)
	switch {
	case err != nil:
		outcome.Error = services.Message(err)
	case entry.Status == tasks.StatusCompleted:
		outcome.Status = tasks.StatusCompleted
		outcome.Filename = entry.Result
	default:
		outcome.Error = entry.Error
		if outcome.Error == "" && runErr != nil {
			outcome.Error = services.Message(runErr)
		}
	}
	return outcome
}
