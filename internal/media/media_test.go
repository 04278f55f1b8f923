package media_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rafaeljuniorvip/downyoutube/internal/media"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.youtube.com/playlist?list=PL123", true},
		{"https://www.youtube.com/watch?v=abc&list=PL123", true},
		{"https://www.youtube.com/watch?v=abc", false},
		{"https://youtu.be/abc", false},
		{"not a url list=PL", true},
	}
	for _, tt := range tests {
		if got := media.DetectKind(tt.url); got != tt.want {
			t.Fatalf("DetectKind(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestEntryURL(t *testing.T) {
	if got := media.EntryURL("dQw4w9WgXcQ"); got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Fatalf("unexpected entry url %q", got)
	}
}

func TestProgressEventPercent(t *testing.T) {
	if _, ok := (media.ProgressEvent{DownloadedBytes: 10}).Percent(); ok {
		t.Fatal("expected unknown percent without total")
	}
	pct, ok := media.ProgressEvent{DownloadedBytes: 25, TotalBytes: 100}.Percent()
	if !ok || pct != 25 {
		t.Fatalf("expected 25%%, got %v (%v)", pct, ok)
	}
	pct, _ = media.ProgressEvent{DownloadedBytes: 150, TotalBytes: 100}.Percent()
	if pct != 100 {
		t.Fatalf("expected clamp to 100, got %v", pct)
	}
}

func TestCredentialsStringRedacts(t *testing.T) {
	creds := media.Credentials{Cookies: "secret-session-value"}
	if strings.Contains(creds.String(), "secret") {
		t.Fatalf("credentials leaked: %s", creds.String())
	}
}

func TestWithCookieFileRemovesFile(t *testing.T) {
	dir := t.TempDir()
	var seen string
	err := media.WithCookieFile(dir, media.Credentials{Cookies: "# Netscape HTTP Cookie File\n"}, func(path string) error {
		seen = path
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read cookie file: %v", err)
		}
		if !strings.HasPrefix(string(data), "# Netscape") {
			t.Fatalf("unexpected cookie contents %q", data)
		}
		if !strings.HasPrefix(filepath.Base(path), "cookies_") {
			t.Fatalf("unexpected cookie file name %q", path)
		}
		return errors.New("fetch failed")
	})
	if err == nil || err.Error() != "fetch failed" {
		t.Fatalf("expected callback error, got %v", err)
	}
	if _, statErr := os.Stat(seen); !os.IsNotExist(statErr) {
		t.Fatalf("cookie file still present: %v", statErr)
	}
}

func TestWithCookieFileRemovesFileOnPanic(t *testing.T) {
	dir := t.TempDir()
	func() {
		defer func() { _ = recover() }()
		_ = media.WithCookieFile(dir, media.Credentials{Cookies: "x"}, func(string) error {
			panic("boom")
		})
	}()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no leftover cookie files, found %d", len(entries))
	}
}

func TestWithCookieFileWithoutCredentials(t *testing.T) {
	called := false
	err := media.WithCookieFile(t.TempDir(), media.Credentials{}, func(path string) error {
		called = true
		if path != "" {
			t.Fatalf("expected empty path, got %q", path)
		}
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected callback without error, called=%v err=%v", called, err)
	}
}
