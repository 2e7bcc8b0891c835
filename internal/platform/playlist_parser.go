package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"

	"github.com/ytget/yt-splitter/internal/model"
)

// Timeout constants
const (
	DefaultPlaylistParseTimeout = 30 * time.Second
)

// URL parameters
const (
	PlaylistURLParam       = "list="
	PlaylistParamSeparator = "&"
)

// URL templates
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Default values
const (
	DefaultPlaylistTitle = "Untitled Playlist"
	PlaylistSuffix       = " Playlist"
	MinPrefixLength      = 10
	MaxTitleLength       = 50
	TitleTruncateSuffix  = "..."
)

// PlaylistItemsFunc lists the videos of a playlist by its ID
type PlaylistItemsFunc func(ctx context.Context, playlistID string) ([]*model.PlaylistVideo, error)

// PlaylistParserService handles parsing of YouTube playlists
type PlaylistParserService struct {
	timeout time.Duration
	items   PlaylistItemsFunc
}

// NewPlaylistParserService creates a playlist parser backed by ytdlp
func NewPlaylistParserService() *PlaylistParserService {
	return &PlaylistParserService{
		timeout: DefaultPlaylistParseTimeout,
		items:   ytdlpPlaylistItems,
	}
}

// ytdlpPlaylistItems fetches every playlist entry through the ytdlp library
func ytdlpPlaylistItems(ctx context.Context, playlistID string) ([]*model.PlaylistVideo, error) {
	items, err := ytdlp.New().GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}

	videos := make([]*model.PlaylistVideo, 0, len(items))
	for _, it := range items {
		videos = append(videos, &model.PlaylistVideo{
			ID:    it.VideoID,
			Title: it.Title,
			URL:   fmt.Sprintf(YouTubeVideoURLTemplate, it.VideoID),
		})
	}
	return videos, nil
}

// SetTimeout sets the timeout for playlist parsing
func (p *PlaylistParserService) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// ParsePlaylist parses a YouTube playlist URL and returns playlist information
func (p *PlaylistParserService) ParsePlaylist(ctx context.Context, url string) (*model.Playlist, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	playlistID, err := ExtractPlaylistID(url)
	if err != nil {
		return nil, model.NewError(model.KindInvalidResource, "parse playlist", err)
	}

	videos, err := p.items(ctx, playlistID)
	if err != nil {
		return nil, model.NewError(model.KindExtractionFailure, "parse playlist",
			fmt.Errorf("failed to get playlist items: %w", err))
	}

	playlist := model.NewPlaylist(url)
	playlist.ID = playlistID
	for _, video := range videos {
		if video == nil || video.ID == "" {
			continue
		}
		playlist.AddVideo(video)
	}
	playlist.Title = extractPlaylistTitle(playlist.Videos)

	return playlist, nil
}

// ExtractPlaylistID extracts the playlist ID from a YouTube playlist URL.
// Supported forms:
//   - https://www.youtube.com/watch?v=VIDEO_ID&list=PLAYLIST_ID&start_radio=1
//   - https://www.youtube.com/playlist?list=PLAYLIST_ID
func ExtractPlaylistID(url string) (string, error) {
	if !strings.Contains(url, PlaylistURLParam) {
		return "", fmt.Errorf("URL does not contain playlist parameter")
	}

	playlistID := strings.SplitN(url, PlaylistURLParam, 2)[1]
	if i := strings.Index(playlistID, PlaylistParamSeparator); i >= 0 {
		playlistID = playlistID[:i]
	}

	if playlistID == "" {
		return "", fmt.Errorf("empty playlist ID")
	}
	return playlistID, nil
}

// extractPlaylistTitle derives a title from the common prefix of the first
// two entries, else from the first entry.
func extractPlaylistTitle(videos []*model.PlaylistVideo) string {
	if len(videos) == 0 {
		return DefaultPlaylistTitle
	}
	if len(videos) > 1 {
		prefix := findCommonPrefix(videos[0].Title, videos[1].Title)
		if len(prefix) > MinPrefixLength {
			return strings.TrimSpace(prefix) + PlaylistSuffix
		}
	}

	title := videos[0].Title
	if len(title) > MaxTitleLength {
		title = title[:MaxTitleLength] + TitleTruncateSuffix
	}
	return title + PlaylistSuffix
}

func findCommonPrefix(s1, s2 string) string {
	n := min(len(s1), len(s2))
	for i := 0; i < n; i++ {
		if s1[i] != s2[i] {
			return s1[:i]
		}
	}
	return s1[:n]
}
