package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rafaeljuniorvip/downyoutube/internal/config"
	"github.com/rafaeljuniorvip/downyoutube/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("expected missing dir failure, got %+v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected pass with 1 byte minimum, got %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, ^uint64(0)); result.Passed {
		t.Fatal("expected failure with impossible minimum")
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckYtdlpVersion(t *testing.T) {
	stub := testsupport.WriteScript(t, t.TempDir(), "yt-dlp", "echo 2026.03.17\n")
	result := CheckYtdlpVersion(context.Background(), stub)
	if !result.Passed || result.Detail != "2026.03.17" {
		t.Fatalf("unexpected result %+v", result)
	}
	if missing := CheckYtdlpVersion(context.Background(), filepath.Join(t.TempDir(), "absent")); missing.Passed {
		t.Fatal("expected failure for missing binary")
	}
}

func TestRunAllReportsMissingTools(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DownloadDir = t.TempDir()
	cfg.Paths.StateDir = filepath.Join(t.TempDir(), "absent")
	cfg.Fetcher.YtdlpBinary = "definitely-not-yt-dlp"
	t.Setenv("PATH", "")

	results := RunAll(&cfg)
	failed := Failed(results)
	names := make([]string, 0, len(failed))
	for _, r := range failed {
		names = append(names, r.Name)
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"State directory", "yt-dlp", "ffmpeg"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %s to fail, got %v", want, names)
		}
	}
	if strings.Contains(joined, "ffprobe") {
		t.Fatalf("ffprobe is optional, got %v", names)
	}
}

func TestRunAllPassesWithStubbedTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	for _, r := range Failed(RunAll(cfg)) {
		// free space depends on the machine running the tests
		if r.Name == "Download free space" {
			continue
		}
		t.Fatalf("unexpected failure %s: %s", r.Name, r.Detail)
	}

	version := CheckYtdlpVersion(context.Background(), cfg.Fetcher.YtdlpBinary)
	if !version.Passed || version.Detail != "2025.06.30" {
		t.Fatalf("unexpected version check %+v", version)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[uint64]string{
		512:     "512 B",
		2048:    "2.0 KiB",
		5 << 30: "5.0 GiB",
	}
	for in, want := range tests {
		if got := FormatBytes(in); got != want {
			t.Fatalf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
