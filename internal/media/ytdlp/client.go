package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	ytdlp "github.com/lrstanley/go-ytdlp"

	"github.com/rafaeljuniorvip/downyoutube/internal/logging"
	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/services"
)

// Options configures the yt-dlp backend.
type Options struct {
	Binary           string
	AudioFormat      string
	AudioQuality     string
	ProgressInterval time.Duration
	// TempDir holds per-request cookie files; empty uses the OS default.
	TempDir string
}

// Client drives the yt-dlp binary through go-ytdlp.
type Client struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a yt-dlp client.
func New(opts Options, logger *slog.Logger) *Client {
	if opts.AudioFormat == "" {
		opts.AudioFormat = "mp3"
	}
	if opts.AudioQuality == "" {
		opts.AudioQuality = "192"
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{opts: opts, logger: logger.With(logging.String("component", "ytdlp"))}
}

func (c *Client) command() *ytdlp.Command {
	cmd := ytdlp.New().NoWarnings()
	if c.opts.Binary != "" {
		cmd.SetExecutable(c.opts.Binary)
	}
	return cmd
}

// ResolveMetadata fetches flat metadata without downloading media.
func (c *Client) ResolveMetadata(ctx context.Context, rawURL string, creds media.Credentials) (*media.Metadata, error) {
	var meta *media.Metadata
	err := media.WithCookieFile(c.opts.TempDir, creds, func(cookiePath string) error {
		cmd := c.command().FlatPlaylist().DumpSingleJSON().SkipDownload()
		if cookiePath != "" {
			cmd.Cookies(cookiePath)
		}
		result, err := cmd.Run(ctx, rawURL)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "metadata", "yt-dlp", "", toolError(result, err))
		}
		parsed, err := parseMetadata([]byte(result.Stdout))
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "metadata", "parse yt-dlp output", "", err)
		}
		meta = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// FetchAndConvert downloads the best audio for req.URL and transcodes it.
func (c *Client) FetchAndConvert(ctx context.Context, req media.Request, sink media.ProgressSink) (string, error) {
	if strings.TrimSpace(req.OutputDir) == "" {
		return "", services.Wrap(services.ErrValidation, "fetch", "yt-dlp", "output directory is required", nil)
	}
	var output string
	err := media.WithCookieFile(c.opts.TempDir, req.Credentials, func(cookiePath string) error {
		cmd := c.command().
			NoPlaylist().
			PrintJSON().
			ExtractAudio().
			AudioFormat(c.opts.AudioFormat).
			AudioQuality(c.opts.AudioQuality).
			Output(filepath.Join(req.OutputDir, "%(title)s.%(ext)s"))
		if cookiePath != "" {
			cmd.Cookies(cookiePath)
		}
		if sink != nil {
			cmd.ProgressFunc(c.opts.ProgressInterval, func(update ytdlp.ProgressUpdate) {
				if ev, ok := progressEvent(update); ok {
					sink.Report(req.TaskID, ev)
				}
			})
		}

		c.logger.Debug("yt-dlp fetch starting",
			logging.TaskID(req.TaskID),
			logging.URL(req.URL),
			logging.Bool("cookies", cookiePath != ""),
		)
		result, err := cmd.Run(ctx, req.URL)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "fetch", "yt-dlp", "", toolError(result, err))
		}
		path, err := c.resolveOutput(result)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "fetch", "locate output", "", err)
		}
		output = path
		return nil
	})
	if err != nil {
		return "", err
	}
	return output, nil
}

// resolveOutput maps the downloaded file name to the post-conversion file.
func (c *Client) resolveOutput(result *ytdlp.Result) (string, error) {
	if result == nil {
		return "", errors.New("yt-dlp returned no result")
	}
	infos, err := result.GetExtractedInfo()
	if err != nil {
		return "", err
	}
	for _, info := range infos {
		if info == nil || info.Filename == nil || *info.Filename == "" {
			continue
		}
		candidate := convertedPath(*info.Filename, c.opts.AudioFormat)
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate, nil
		}
		if _, statErr := os.Stat(*info.Filename); statErr == nil {
			return *info.Filename, nil
		}
	}
	return "", errors.New("converted file not found")
}

func convertedPath(downloaded, format string) string {
	ext := filepath.Ext(downloaded)
	return strings.TrimSuffix(downloaded, ext) + "." + strings.TrimPrefix(format, ".")
}

func toolError(result *ytdlp.Result, err error) error {
	if result == nil {
		return err
	}
	if detail := lastErrorLine(result.Stderr); detail != "" {
		return fmt.Errorf("%s: %w", detail, err)
	}
	return err
}

// lastErrorLine extracts the final "ERROR:" line from yt-dlp stderr.
func lastErrorLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if after, ok := strings.CutPrefix(line, "ERROR:"); ok {
			return strings.TrimSpace(after)
		}
	}
	return ""
}

func progressEvent(update ytdlp.ProgressUpdate) (media.ProgressEvent, bool) {
	switch string(update.Status) {
	case string(media.PhaseDownloading):
		return media.ProgressEvent{
			Phase:           media.PhaseDownloading,
			DownloadedBytes: int64(update.DownloadedBytes),
			TotalBytes:      int64(update.TotalBytes),
		}, true
	case string(media.PhaseFinished):
		return media.ProgressEvent{
			Phase:           media.PhaseFinished,
			DownloadedBytes: int64(update.DownloadedBytes),
			TotalBytes:      int64(update.TotalBytes),
		}, true
	default:
		return media.ProgressEvent{}, false
	}
}

type infoJSON struct {
	ID         string  `json:"id"`
	Type       string  `json:"_type"`
	Title      string  `json:"title"`
	Channel    string  `json:"channel"`
	Uploader   string  `json:"uploader"`
	Thumbnail  string  `json:"thumbnail"`
	Duration   float64 `json:"duration"`
	URL        string  `json:"url"`
	WebpageURL string  `json:"webpage_url"`
}

// parseMetadata decodes a --dump-single-json document.
func parseMetadata(payload []byte) (*media.Metadata, error) {
	var raw struct {
		infoJSON
		Entries *[]*infoJSON `json:"entries"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	meta := &media.Metadata{
		ID:        raw.ID,
		Title:     raw.Title,
		Channel:   firstNonEmpty(raw.Channel, raw.Uploader),
		Thumbnail: raw.Thumbnail,
		Duration:  seconds(raw.Duration),
	}
	if raw.Entries != nil || raw.Type == "playlist" {
		meta.IsPlaylist = true
	}
	if raw.Entries == nil {
		return meta, nil
	}
	meta.Entries = make([]media.PlaylistEntry, 0, len(*raw.Entries))
	for _, entry := range *raw.Entries {
		if entry == nil {
			continue
		}
		link := firstNonEmpty(entry.WebpageURL, entry.URL)
		if entry.ID != "" {
			link = media.EntryURL(entry.ID)
		}
		meta.Entries = append(meta.Entries, media.PlaylistEntry{
			ID:       entry.ID,
			Title:    entry.Title,
			URL:      link,
			Duration: seconds(entry.Duration),
		})
	}
	return meta, nil
}

func seconds(value float64) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value * float64(time.Second))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
