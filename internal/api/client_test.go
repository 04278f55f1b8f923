package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSubmitSendsTokenAndBody(t *testing.T) {
	var got SubmitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/download" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SubmitResponse{TaskID: "t-1"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", 0)
	id, err := client.Submit(context.Background(), SubmitRequest{URL: "https://youtu.be/abc", Type: "single"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "t-1" {
		t.Fatalf("expected t-1, got %q", id)
	}
	if got.URL != "https://youtu.be/abc" || got.Type != "single" {
		t.Fatalf("unexpected request body %+v", got)
	}
}

func TestClientDecodesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "task not found"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 0).Task(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404 api error, got %v", err)
	}
	if err.Error() != "task not found (HTTP 404)" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestClientStreamsFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/download-file/t-9" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="Song Title.mp3"`)
		_, _ = w.Write([]byte("ID3data"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	name, err := NewClient(srv.URL, "", 0).FetchTaskFile(context.Background(), "t-9", &buf)
	if err != nil {
		t.Fatalf("FetchTaskFile: %v", err)
	}
	if name != "Song Title.mp3" || buf.String() != "ID3data" {
		t.Fatalf("unexpected download %q / %q", name, buf.String())
	}
}
