// Package fileutil stages streamed downloads on disk.
package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rafaeljuniorvip/downyoutube/internal/textutil"
)

// Saved describes a file written by WriteStaged.
type Saved struct {
	Path   string
	Size   int64
	SHA256 string
}

// FillFunc streams content into w and returns the file name announced by the
// source, which may be empty.
type FillFunc func(w io.Writer) (string, error)

// WriteStaged streams fill into a hidden .part file inside dir, checks that
// the bytes on disk match what was streamed, and renames it to the sanitized
// announced name (or fallback). The partial file is removed on any failure.
func WriteStaged(dir, fallback string, fill FillFunc) (Saved, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Saved{}, fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".downyoutube-*.part")
	if err != nil {
		return Saved{}, fmt.Errorf("create output file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	hasher := sha256.New()
	counter := &countingWriter{}
	name, fillErr := fill(io.MultiWriter(tmp, hasher, counter))
	if closeErr := tmp.Close(); fillErr == nil {
		fillErr = closeErr
	}
	if fillErr != nil {
		return Saved{}, fillErr
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	if err := verify(tmpPath, counter.n, sum); err != nil {
		return Saved{}, err
	}

	target := filepath.Join(dir, finalName(name, fallback))
	if err := os.Rename(tmpPath, target); err != nil {
		return Saved{}, fmt.Errorf("save %s: %w", filepath.Base(target), err)
	}
	return Saved{Path: target, Size: counter.n, SHA256: sum}, nil
}

// verify re-reads path and compares it with the streamed size and digest.
func verify(path string, size int64, sum string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reopen staged file: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	written, err := io.Copy(hasher, f)
	if err != nil {
		return fmt.Errorf("read staged file: %w", err)
	}
	if written != size {
		return fmt.Errorf("staged size mismatch: streamed %d bytes, found %d bytes", size, written)
	}
	if hex.EncodeToString(hasher.Sum(nil)) != sum {
		return fmt.Errorf("staged hash mismatch: file corrupted while writing")
	}
	return nil
}

func finalName(announced, fallback string) string {
	if name := textutil.SanitizeFileName(filepath.Base(announced)); name != "" {
		return name
	}
	if name := textutil.SanitizeFileName(filepath.Base(fallback)); name != "" {
		return name
	}
	return "download"
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}
