package ytdlp

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	ytdlp "github.com/lrstanley/go-ytdlp"

	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/services"
	"github.com/rafaeljuniorvip/downyoutube/internal/testsupport"
)

func TestParseMetadataVideo(t *testing.T) {
	payload := []byte(`{"id":"abc","_type":"video","title":"Song","uploader":"Artist","thumbnail":"https://i.ytimg.com/vi/abc/hq.jpg","duration":212.4}`)
	meta, err := parseMetadata(payload)
	if err != nil {
		t.Fatalf("parseMetadata: %v", err)
	}
	if meta.IsPlaylist {
		t.Fatal("expected single video")
	}
	if meta.Entries != nil {
		t.Fatal("expected nil entries for single video")
	}
	if meta.Channel != "Artist" {
		t.Fatalf("expected uploader fallback, got %q", meta.Channel)
	}
	if meta.Duration != 212400*time.Millisecond {
		t.Fatalf("unexpected duration %v", meta.Duration)
	}
}

func TestParseMetadataPlaylist(t *testing.T) {
	payload := []byte(`{
  "id": "PL1", "_type": "playlist", "title": "Mix", "channel": "Curator",
  "entries": [
    {"id": "v1", "title": "First", "duration": 60},
    null,
    {"id": "", "title": "Second", "url": "https://example.com/watch/2"}
  ]
}`)
	meta, err := parseMetadata(payload)
	if err != nil {
		t.Fatalf("parseMetadata: %v", err)
	}
	if !meta.IsPlaylist {
		t.Fatal("expected playlist")
	}
	if len(meta.Entries) != 2 {
		t.Fatalf("expected null entries skipped, got %d", len(meta.Entries))
	}
	if meta.Entries[0].URL != "https://www.youtube.com/watch?v=v1" {
		t.Fatalf("unexpected entry url %q", meta.Entries[0].URL)
	}
	if meta.Entries[1].URL != "https://example.com/watch/2" {
		t.Fatalf("unexpected fallback url %q", meta.Entries[1].URL)
	}
}

func TestParseMetadataEmptyPlaylist(t *testing.T) {
	meta, err := parseMetadata([]byte(`{"_type":"playlist","title":"Empty","entries":[]}`))
	if err != nil {
		t.Fatalf("parseMetadata: %v", err)
	}
	if meta.Entries == nil || len(meta.Entries) != 0 {
		t.Fatalf("expected empty non-nil entries, got %#v", meta.Entries)
	}
}

func TestProgressEvent(t *testing.T) {
	ev, ok := progressEvent(ytdlp.ProgressUpdate{Status: "downloading", DownloadedBytes: 50, TotalBytes: 200})
	if !ok || ev.Phase != media.PhaseDownloading || ev.DownloadedBytes != 50 || ev.TotalBytes != 200 {
		t.Fatalf("unexpected event %+v ok=%v", ev, ok)
	}
	ev, ok = progressEvent(ytdlp.ProgressUpdate{Status: "finished"})
	if !ok || ev.Phase != media.PhaseFinished {
		t.Fatalf("unexpected event %+v ok=%v", ev, ok)
	}
	if _, ok := progressEvent(ytdlp.ProgressUpdate{Status: "post_processing"}); ok {
		t.Fatal("expected unrelated status to be ignored")
	}
}

func TestLastErrorLine(t *testing.T) {
	stderr := "WARNING: something\nERROR: [youtube] abc: Video unavailable\n"
	if got := lastErrorLine(stderr); got != "[youtube] abc: Video unavailable" {
		t.Fatalf("unexpected error line %q", got)
	}
	if got := lastErrorLine("WARNING: only"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestConvertedPath(t *testing.T) {
	if got := convertedPath("/music/Song.webm", "mp3"); got != "/music/Song.mp3" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestResolveOutputRejectsNilResult(t *testing.T) {
	c := New(Options{}, nil)
	if _, err := c.resolveOutput(nil); err == nil {
		t.Fatal("expected error for nil result")
	}
}

func TestFetchRequiresOutputDir(t *testing.T) {
	c := New(Options{Binary: filepath.Join(t.TempDir(), "missing-yt-dlp")}, nil)
	if _, err := c.FetchAndConvert(t.Context(), media.Request{URL: "https://example.com"}, nil); err == nil {
		t.Fatal("expected validation error")
	}
}

// fakeYtdlp writes Song.mp3 next to the --output template and reports the
// pre-conversion file name only when --print-json is requested.
const fakeYtdlp = `out=""
json=0
prev=""
for arg in "$@"; do
  if [ "$prev" = "--output" ]; then out="$arg"; fi
  if [ "$arg" = "--print-json" ]; then json=1; fi
  prev="$arg"
done
dir=$(dirname "$out")
printf 'audio' > "$dir/Song.mp3"
echo 'progress:{"info":{"id":"abc","_type":"video"},"progress":{"status":"downloading","downloaded_bytes":50,"total_bytes":100}}'
if [ "$json" = 1 ]; then
  echo "{\"_type\":\"video\",\"id\":\"abc\",\"title\":\"Song\",\"filename\":\"$dir/Song.webm\"}"
fi
`

func TestFetchAndConvertReturnsConvertedFile(t *testing.T) {
	binary := testsupport.WriteScript(t, t.TempDir(), "yt-dlp", fakeYtdlp)
	outDir := t.TempDir()

	var (
		mu     sync.Mutex
		events []media.ProgressEvent
	)
	sink := media.ProgressFunc(func(taskID string, ev media.ProgressEvent) {
		if taskID != "task-1" {
			t.Errorf("unexpected task id %q", taskID)
		}
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	c := New(Options{Binary: binary}, nil)
	path, err := c.FetchAndConvert(t.Context(), media.Request{
		TaskID:    "task-1",
		URL:       "https://www.youtube.com/watch?v=abc",
		OutputDir: outDir,
	}, sink)
	if err != nil {
		t.Fatalf("FetchAndConvert: %v", err)
	}
	if want := filepath.Join(outDir, "Song.mp3"); path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 || events[0].Phase != media.PhaseDownloading || events[0].DownloadedBytes != 50 || events[0].TotalBytes != 100 {
		t.Fatalf("unexpected progress events %+v", events)
	}
}

func TestFetchAndConvertReportsToolFailure(t *testing.T) {
	binary := testsupport.WriteScript(t, t.TempDir(), "yt-dlp", "echo 'ERROR: [youtube] abc: Video unavailable' >&2\nexit 1\n")

	c := New(Options{Binary: binary}, nil)
	_, err := c.FetchAndConvert(t.Context(), media.Request{URL: "https://www.youtube.com/watch?v=abc", OutputDir: t.TempDir()}, nil)
	if err == nil {
		t.Fatal("expected error from failing yt-dlp")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Video unavailable") {
		t.Fatalf("expected yt-dlp message in error, got %v", err)
	}
}
