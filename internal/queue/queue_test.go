package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/queue"
	"github.com/rafaeljuniorvip/downyoutube/internal/services"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
)

func enqueue(t *testing.T, q *queue.Queue, id string) {
	t.Helper()
	if _, err := q.Enqueue(queue.Descriptor{TaskID: id, URL: "https://example.com/" + id, Kind: tasks.KindSingle}); err != nil {
		t.Fatalf("Enqueue %s: %v", id, err)
	}
}

func TestNextIsFIFO(t *testing.T) {
	q := queue.New()
	for _, id := range []string{"a", "b", "c"} {
		enqueue(t, q, id)
	}
	ctx := context.Background()
	for _, want := range []string{"a", "b", "c"} {
		desc, ok := q.Next(ctx, 10*time.Millisecond)
		if !ok || desc.TaskID != want {
			t.Fatalf("expected %s, got %q ok=%v", want, desc.TaskID, ok)
		}
		entry, _ := q.Get(want)
		if entry.Status != queue.StatusProcessing {
			t.Fatalf("expected processing, got %s", entry.Status)
		}
	}
	if _, ok := q.Next(ctx, 10*time.Millisecond); ok {
		t.Fatal("expected empty queue to time out")
	}
}

func TestNextWakesOnEnqueue(t *testing.T) {
	q := queue.New()
	done := make(chan queue.Descriptor, 1)
	go func() {
		desc, _ := q.Next(context.Background(), 5*time.Second)
		done <- desc
	}()
	time.Sleep(20 * time.Millisecond)
	enqueue(t, q, "late")
	select {
	case desc := <-done:
		if desc.TaskID != "late" {
			t.Fatalf("unexpected descriptor %q", desc.TaskID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not wake on enqueue")
	}
}

func TestNextStopsOnContextCancel(t *testing.T) {
	q := queue.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if _, ok := q.Next(ctx, 5*time.Second); ok {
		t.Fatal("expected no descriptor")
	}
	if time.Since(start) > time.Second {
		t.Fatal("Next ignored cancelled context")
	}
}

func TestCancel(t *testing.T) {
	q := queue.New()
	enqueue(t, q, "a")
	enqueue(t, q, "b")

	if _, err := q.Cancel("missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, ok := q.Next(context.Background(), time.Millisecond); !ok {
		t.Fatal("expected a descriptor")
	}
	if _, err := q.Cancel("a"); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict for processing item, got %v", err)
	}
	entry, err := q.Cancel("b")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if entry.Status != queue.StatusCancelled || entry.CompletedAt.IsZero() {
		t.Fatalf("unexpected cancelled entry %+v", entry)
	}
	if q.Pending() != 0 {
		t.Fatalf("expected cancelled descriptor removed, pending=%d", q.Pending())
	}
	if _, ok := q.Next(context.Background(), time.Millisecond); ok {
		t.Fatal("cancelled descriptor was dequeued")
	}
	if _, err := q.Cancel("b"); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict for cancelled item, got %v", err)
	}
}

func TestListOrdering(t *testing.T) {
	q := queue.New()
	for _, id := range []string{"done", "failed", "running", "waiting-1", "waiting-2"} {
		enqueue(t, q, id)
	}
	ctx := context.Background()
	for range 3 {
		if _, ok := q.Next(ctx, time.Millisecond); !ok {
			t.Fatal("expected descriptor")
		}
	}
	q.Finish("done", queue.StatusCompleted)
	q.Finish("failed", queue.StatusError)

	got := q.List()
	want := []string{"running", "waiting-1", "waiting-2", "done", "failed"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].TaskID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].TaskID)
		}
	}
}

func TestPurgeKeepsActiveEntries(t *testing.T) {
	q := queue.New()
	enqueue(t, q, "a")
	enqueue(t, q, "b")
	enqueue(t, q, "c")
	_, _ = q.Next(context.Background(), time.Millisecond)
	q.Finish("a", queue.StatusCompleted)
	if _, err := q.Cancel("b"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	removed := q.Purge()
	if len(removed) != 2 || removed[0] != "a" || removed[1] != "b" {
		t.Fatalf("unexpected purge result %v", removed)
	}
	if q.Len() != 1 {
		t.Fatalf("expected queued entry kept, len=%d", q.Len())
	}
}

func TestEnqueueRejectsDuplicates(t *testing.T) {
	q := queue.New()
	enqueue(t, q, "a")
	if _, err := q.Enqueue(queue.Descriptor{TaskID: "a"}); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := q.Enqueue(queue.Descriptor{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCredentialsTravelWithDescriptor(t *testing.T) {
	q := queue.New()
	creds := media.Credentials{Cookies: "cookie-body"}
	if _, err := q.Enqueue(queue.Descriptor{TaskID: "a", Credentials: creds}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	desc, ok := q.Next(context.Background(), time.Millisecond)
	if !ok || desc.Credentials != creds {
		t.Fatalf("credentials lost: %+v", desc)
	}
}

func TestStatusFromTask(t *testing.T) {
	if queue.StatusFromTask(tasks.StatusCompleted) != queue.StatusCompleted {
		t.Fatal("completed mapping")
	}
	if queue.StatusFromTask(tasks.StatusError) != queue.StatusError {
		t.Fatal("error mapping")
	}
	if queue.StatusFromTask(tasks.StatusCancelled) != queue.StatusCancelled {
		t.Fatal("cancelled mapping")
	}
}
