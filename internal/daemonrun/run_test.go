package daemonrun

import (
	"testing"

	"github.com/rafaeljuniorvip/downyoutube/internal/config"
	"github.com/rafaeljuniorvip/downyoutube/internal/logging"
	"github.com/rafaeljuniorvip/downyoutube/internal/media/ytdlp"
	"github.com/rafaeljuniorvip/downyoutube/internal/testsupport"
)

func TestNewFetcherSelectsBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	if _, ok := NewFetcher(cfg, logging.NewNop()).(*ytdlp.Client); !ok {
		t.Fatal("expected the yt-dlp client for the default backend")
	}

	cfg.Fetcher.MetadataBackend = config.MetadataBackendNative
	if _, ok := NewFetcher(cfg, logging.NewNop()).(*ytdlp.Client); ok {
		t.Fatal("expected a composed fetcher for the native backend")
	}
}

func TestPreflightKey(t *testing.T) {
	tests := map[string]string{
		"Download directory": "download_directory_ok",
		"yt-dlp":             "yt_dlp_ok",
		"ffprobe":            "ffprobe_ok",
	}
	for in, want := range tests {
		if got := preflightKey(in); got != want {
			t.Fatalf("preflightKey(%q) = %q, want %q", in, got, want)
		}
	}
}
