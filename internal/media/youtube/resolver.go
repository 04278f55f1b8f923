package youtube

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	yt "github.com/kkdai/youtube/v2"

	"github.com/rafaeljuniorvip/downyoutube/internal/logging"
	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/services"
)

// Resolver resolves YouTube metadata natively over HTTP without spawning yt-dlp.
type Resolver struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewResolver constructs a native metadata resolver.
func NewResolver(timeout time.Duration, logger *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{timeout: timeout, logger: logger.With(logging.String("component", "youtube-native"))}
}

func (r *Resolver) client(creds media.Credentials) (*yt.Client, error) {
	httpClient := &http.Client{Timeout: r.timeout}
	if !creds.Empty() {
		jar, err := CookieJar(creds.Cookies)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "metadata", "parse cookies", "", err)
		}
		httpClient.Jar = jar
	}
	return &yt.Client{HTTPClient: httpClient}, nil
}

// ResolveMetadata implements media.MetadataResolver.
func (r *Resolver) ResolveMetadata(ctx context.Context, rawURL string, creds media.Credentials) (*media.Metadata, error) {
	client, err := r.client(creds)
	if err != nil {
		return nil, err
	}
	if media.DetectKind(rawURL) {
		playlist, err := client.GetPlaylistContext(ctx, rawURL)
		if err == nil {
			return fromPlaylist(playlist), nil
		}
		if !errors.Is(err, yt.ErrInvalidPlaylist) {
			return nil, services.Wrap(services.ErrExternalTool, "metadata", "youtube playlist", "", err)
		}
		r.logger.Debug("playlist lookup rejected url; resolving as video", logging.URL(rawURL))
	}
	video, err := client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "metadata", "youtube video", "", err)
	}
	return fromVideo(video), nil
}

func fromVideo(video *yt.Video) *media.Metadata {
	meta := &media.Metadata{
		ID:       video.ID,
		Title:    video.Title,
		Channel:  video.Author,
		Duration: video.Duration,
	}
	meta.Thumbnail = largestThumbnail(video.Thumbnails)
	return meta
}

func fromPlaylist(playlist *yt.Playlist) *media.Metadata {
	meta := &media.Metadata{
		ID:         playlist.ID,
		Title:      playlist.Title,
		Channel:    playlist.Author,
		IsPlaylist: true,
		Entries:    make([]media.PlaylistEntry, 0, len(playlist.Videos)),
	}
	for _, entry := range playlist.Videos {
		if entry == nil {
			continue
		}
		meta.Entries = append(meta.Entries, media.PlaylistEntry{
			ID:       entry.ID,
			Title:    entry.Title,
			URL:      media.EntryURL(entry.ID),
			Duration: entry.Duration,
		})
		meta.Duration += entry.Duration
	}
	if len(playlist.Videos) > 0 && playlist.Videos[0] != nil {
		meta.Thumbnail = largestThumbnail(playlist.Videos[0].Thumbnails)
	}
	return meta
}

func largestThumbnail(thumbs yt.Thumbnails) string {
	best := ""
	var bestArea uint64
	for _, thumb := range thumbs {
		area := uint64(thumb.Width) * uint64(thumb.Height)
		if best == "" || area > bestArea {
			best = thumb.URL
			bestArea = area
		}
	}
	return best
}
