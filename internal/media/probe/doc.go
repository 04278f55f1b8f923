// Package probe inspects converted audio files with ffprobe so the workflow
// can confirm an audio stream was produced and record its properties.
package probe
