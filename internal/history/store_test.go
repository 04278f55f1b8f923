package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rafaeljuniorvip/downyoutube/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []history.Record{
		{TaskID: "a", URL: "https://example.com/a", Title: "A", Kind: "single", Status: "completed", Filename: "A.mp3", SizeBytes: 4096, Duration: 90 * time.Second, BitRate: 192000, Codec: "mp3", CompletedAt: base},
		{TaskID: "b", ParentID: "p", URL: "https://example.com/b", Kind: "single", Status: "error", Error: "video unavailable", CompletedAt: base.Add(time.Minute)},
	}
	for _, rec := range records {
		if err := store.Add(ctx, rec); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	got, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].TaskID != "b" || got[0].Error != "video unavailable" || got[0].ParentID != "p" {
		t.Fatalf("unexpected newest record %+v", got[0])
	}
	if got[1].Duration != 90*time.Second || got[1].Codec != "mp3" || got[1].Filename != "A.mp3" || got[1].SizeBytes != 4096 {
		t.Fatalf("unexpected oldest record %+v", got[1])
	}
	if !got[1].CompletedAt.Equal(base) {
		t.Fatalf("unexpected completion time %v", got[1].CompletedAt)
	}

	limited, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 record, got %d", len(limited))
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Add(context.Background(), history.Record{TaskID: "x", URL: "u", Kind: "single", Status: "completed"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	_ = store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Recent(context.Background(), 10)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected persisted record, got %d err=%v", len(got), err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Exec(context.Background(), "UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
