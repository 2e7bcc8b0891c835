package extract

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-splitter/internal/model"
	"github.com/ytget/yt-splitter/internal/platform"
)

// Defaults
const (
	DefaultMetadataTimeout = 60 * time.Second
	DefaultDownloadTimeout = 30 * time.Minute
	ScopeDirPrefix         = "ytdl_"
)

// Options configures a Service
type Options struct {
	TempDir         string
	MetadataTimeout time.Duration
	DownloadTimeout time.Duration
	Logger          logrus.FieldLogger
}

// Service fetches metadata and muxed media through a Backend
type Service struct {
	backend         Backend
	tempDir         string
	metadataTimeout time.Duration
	downloadTimeout time.Duration
	log             logrus.FieldLogger
}

// NewService creates an extraction service
func NewService(backend Backend, opts Options) *Service {
	s := &Service{
		backend:         backend,
		tempDir:         opts.TempDir,
		metadataTimeout: opts.MetadataTimeout,
		downloadTimeout: opts.DownloadTimeout,
		log:             opts.Logger,
	}
	if s.metadataTimeout <= 0 {
		s.metadataTimeout = DefaultMetadataTimeout
	}
	if s.downloadTimeout <= 0 {
		s.downloadTimeout = DefaultDownloadTimeout
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

// Module returns the name of the active backend
func (s *Service) Module() string {
	return s.backend.Name()
}

// FetchMetadata looks up title, thumbnail and quality tiers without
// transferring media.
func (s *Service) FetchMetadata(ctx context.Context, url string) (*model.VideoMetadata, error) {
	const op = "fetch metadata"

	ctx, cancel := context.WithTimeout(ctx, s.metadataTimeout)
	defer cancel()

	info, err := s.backend.Info(ctx, url)
	if err != nil {
		return nil, model.NewError(model.KindExtractionFailure, op, err)
	}

	return &model.VideoMetadata{
		Title:        info.Title,
		ThumbnailURL: info.ThumbnailURL,
		Qualities:    QualityTiers(info.Heights),
		Module:       s.backend.Name(),
	}, nil
}

// FetchAndMux downloads the best streams at or below quality into a private
// temp directory. The caller owns the result and must call Cleanup.
func (s *Service) FetchAndMux(ctx context.Context, url, quality string) (*model.MediaFile, error) {
	const op = "fetch and mux"

	height, err := ParseQuality(quality)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(s.tempDir, ScopeDirPrefix+uuid.NewString()+"_")
	if err != nil {
		return nil, model.NewError(model.KindDownloadFailure, op, err)
	}

	media, err := s.download(ctx, url, height, dir)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			s.log.WithError(rmErr).WithField("dir", dir).Warn("failed to remove scope directory")
		}
		return nil, err
	}
	return media, nil
}

func (s *Service) download(ctx context.Context, url string, height int, dir string) (*model.MediaFile, error) {
	const op = "fetch and mux"

	ctx, cancel := context.WithTimeout(ctx, s.downloadTimeout)
	defer cancel()

	log := s.log.WithFields(logrus.Fields{"url": url, "height": height, "module": s.backend.Name()})
	started := time.Now()

	videoID, err := s.backend.Download(ctx, url, height, dir)
	if err != nil {
		return nil, model.NewError(model.KindDownloadFailure, op, err)
	}
	if videoID == "" {
		videoID, _ = platform.ParseVideoID(url)
	}

	expected := ""
	if videoID != "" {
		expected = videoID + OutputExtension
	}
	path, err := platform.FindOutputFile(dir, expected)
	if err != nil {
		return nil, err
	}
	size, err := platform.FileSize(path)
	if err != nil {
		return nil, model.NewError(model.KindOutputNotFound, op, err)
	}

	log.WithFields(logrus.Fields{
		"file":     path,
		"size":     size,
		"duration": time.Since(started).Round(time.Millisecond),
	}).Info("media ready")

	return &model.MediaFile{Path: path, Size: size, VideoID: videoID, ScopeDir: dir}, nil
}
