package server

import (
	"context"

	"github.com/ytget/yt-splitter/internal/model"
)

// Extractor fetches metadata and muxed media
type Extractor interface {
	Module() string
	FetchMetadata(ctx context.Context, url string) (*model.VideoMetadata, error)
	FetchAndMux(ctx context.Context, url, quality string) (*model.MediaFile, error)
}

// Splitter cuts a media file into segments stored in the output directory
type Splitter interface {
	Split(ctx context.Context, media *model.MediaFile, o model.Orientation) ([]model.Segment, error)
}

// PlaylistParser lists the videos of a playlist
type PlaylistParser interface {
	ParsePlaylist(ctx context.Context, url string) (*model.Playlist, error)
}
