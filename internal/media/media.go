package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Credentials carries opaque authentication material for a fetch. Cookies is
// a Netscape-format cookie file body; it is never logged or persisted.
type Credentials struct {
	Cookies string
}

// Empty reports whether no credentials were supplied.
func (c Credentials) Empty() bool {
	return strings.TrimSpace(c.Cookies) == ""
}

// String redacts the cookie payload.
func (c Credentials) String() string {
	if c.Empty() {
		return "credentials(none)"
	}
	return "credentials(cookies=redacted)"
}

// PlaylistEntry is one enumerable item of a playlist.
type PlaylistEntry struct {
	ID       string
	Title    string
	URL      string
	Duration time.Duration
}

// Metadata describes a resolved media URL.
type Metadata struct {
	ID         string
	Title      string
	Channel    string
	Thumbnail  string
	Duration   time.Duration
	IsPlaylist bool
	// Entries is nil when the source does not expose an enumerable entry
	// list; an empty non-nil slice is a playlist with zero items.
	Entries []PlaylistEntry
}

// Phase is the fetch stage reported by a progress event.
type Phase string

const (
	PhaseDownloading Phase = "downloading"
	PhaseFinished    Phase = "finished"
)

// ProgressEvent is a raw byte-level progress notification from a fetcher.
type ProgressEvent struct {
	Phase           Phase
	DownloadedBytes int64
	TotalBytes      int64
}

// Percent returns the completed fraction as a 0-100 value and whether it is known.
func (e ProgressEvent) Percent() (float64, bool) {
	if e.TotalBytes <= 0 {
		return 0, false
	}
	pct := float64(e.DownloadedBytes) / float64(e.TotalBytes) * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct, true
}

// ProgressSink receives progress events for a task.
type ProgressSink interface {
	Report(taskID string, event ProgressEvent)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(taskID string, event ProgressEvent)

// Report implements ProgressSink.
func (f ProgressFunc) Report(taskID string, event ProgressEvent) {
	if f != nil {
		f(taskID, event)
	}
}

// Request describes one fetch-and-convert invocation.
type Request struct {
	TaskID      string
	URL         string
	OutputDir   string
	Credentials Credentials
}

// MetadataResolver resolves a URL to descriptive metadata without downloading media.
type MetadataResolver interface {
	ResolveMetadata(ctx context.Context, rawURL string, creds Credentials) (*Metadata, error)
}

// Downloader downloads the audio track of a URL and transcodes it into the
// configured format. It returns the path of the produced file.
type Downloader interface {
	FetchAndConvert(ctx context.Context, req Request, sink ProgressSink) (string, error)
}

// Fetcher is the full external fetch capability used by the workflow.
type Fetcher interface {
	MetadataResolver
	Downloader
}

type composite struct {
	MetadataResolver
	Downloader
}

// Compose pairs a metadata resolver with a downloader from another backend.
func Compose(resolver MetadataResolver, downloader Downloader) Fetcher {
	return composite{MetadataResolver: resolver, Downloader: downloader}
}

// DetectKind reports whether the URL points at a playlist.
func DetectKind(rawURL string) (playlist bool) {
	if parsed, err := url.Parse(strings.TrimSpace(rawURL)); err == nil && parsed.Query().Has("list") {
		return true
	}
	return strings.Contains(rawURL, "list=")
}

// EntryURL builds the canonical watch URL for a playlist entry id.
func EntryURL(id string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", url.QueryEscape(id))
}
