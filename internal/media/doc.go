// Package media defines the contracts between the workflow and the external
// fetch tooling: metadata resolution, download-and-convert, byte-level
// progress events and per-request credentials.
//
// Backends live in subpackages. ytdlp drives the yt-dlp binary and is the
// only downloader; youtube resolves metadata natively over HTTP. probe
// inspects produced files with ffprobe.
package media
