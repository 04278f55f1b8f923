package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rafaeljuniorvip/downyoutube/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig returns a config rooted in a per-test temp directory with the
// download, log and state directories created. The HTTP listener is off and
// the queue poll interval is short enough for tests to wait on.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.APIBind = ""
	cfg.Workflow.QueuePollIntervalMS = 10
	cfg.Workflow.ResolveBatchTitles = false

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfg}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return builder.cfg
}

// WithAPIToken requires bearer authentication on the daemon API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithBatchTitles toggles metadata lookups for batch submissions.
func WithBatchTitles(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.ResolveBatchTitles = enabled
	}
}

// WithStubbedBinaries writes stub executables and prepends their directory
// to PATH. With no names it stubs yt-dlp, ffmpeg and ffprobe; the yt-dlp stub
// answers --version.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			script := "exit 0\n"
			if name == "yt-dlp" {
				script = "echo 2025.06.30\n"
			}
			WriteScript(b.t, binDir, name, script)
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
		b.cfg.Fetcher.YtdlpBinary = "yt-dlp"
	}
}

// BaseDir returns the temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
