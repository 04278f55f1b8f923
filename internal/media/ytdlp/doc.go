// Package ytdlp implements the media fetch contracts on top of the yt-dlp
// binary via github.com/lrstanley/go-ytdlp.
//
// Metadata resolution uses a flat single-JSON dump so playlists are
// enumerated without touching their entries. Downloads extract the audio track
// and transcode it with ffmpeg into the configured format; byte progress is
// forwarded to a media.ProgressSink.
package ytdlp
