// Package deps resolves the external executables downyoutube depends on:
// yt-dlp for fetching and the ffmpeg/ffprobe pair it uses for audio
// extraction. Results feed the daemon status report and the preflight checks.
package deps
