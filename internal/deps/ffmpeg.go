package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckToolBesideYtdlp reports the ffmpeg-family binary yt-dlp will run.
//
// yt-dlp prefers an executable that sits in the same directory as itself
// (standalone bundles ship ffmpeg and ffprobe there) and falls back to PATH.
// name is "ffmpeg" or "ffprobe".
func CheckToolBesideYtdlp(ytdlpCommand, name, description string) Status {
	result := Status{Name: name, Description: description}

	if ytdlp := strings.TrimSpace(ytdlpCommand); ytdlp != "" {
		if resolved, err := exec.LookPath(ytdlp); err == nil {
			candidate := filepath.Join(filepath.Dir(resolved), executableName(name))
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				result.Command = candidate
				result.Available = true
				return result
			}
		}
	}

	if path, err := exec.LookPath(name); err == nil {
		result.Command = path
		result.Available = true
		return result
	}
	result.Command = name
	result.Detail = fmt.Sprintf("binary %q not found", name)
	return result
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
