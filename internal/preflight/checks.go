package preflight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/rafaeljuniorvip/downyoutube/internal/config"
	"github.com/rafaeljuniorvip/downyoutube/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// FreeBytes returns the space available to unprivileged users on the
// filesystem holding path.
func FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// CheckFreeSpace fails when the filesystem holding path has less than minBytes free.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s free", FormatBytes(free))
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need %s)", detail, FormatBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckYtdlpVersion runs the configured yt-dlp binary and reports its version.
func CheckYtdlpVersion(ctx context.Context, binary string) Result {
	const name = "yt-dlp version"
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	output, err := exec.CommandContext(checkCtx, binary, "--version").Output()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s --version failed (%v)", binary, err)}
	}
	version := strings.TrimSpace(string(output))
	if version == "" {
		return Result{Name: name, Detail: "empty version output"}
	}
	return Result{Name: name, Passed: true, Detail: version}
}

// CheckSystemDeps evaluates the external executables for the given config.
// The daemon status endpoint and the CLI both use it.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries([]deps.Requirement{{
		Name:        "yt-dlp",
		Command:     cfg.Fetcher.YtdlpBinary,
		Description: "Required for metadata and downloads",
	}})
	statuses = append(statuses,
		deps.CheckToolBesideYtdlp(cfg.Fetcher.YtdlpBinary, cfg.FFmpegBinary(), "Required for audio extraction"),
		deps.CheckToolBesideYtdlp(cfg.Fetcher.YtdlpBinary, cfg.FFprobeBinary(), "Used to verify converted audio"),
	)
	statuses[2].Optional = true
	return statuses
}

// FormatBytes renders n with binary unit prefixes.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
