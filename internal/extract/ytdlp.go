package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lrstanley/go-ytdlp"
	"github.com/sirupsen/logrus"
)

// yt-dlp settings
const (
	YTDLPModuleName     = "yt-dlp"
	OutputTemplate      = "%(id)s.%(ext)s"
	MergeOutputFormat   = "mp4"
	ProgressInterval    = 500 * time.Millisecond
	progressLogInterval = 5 * time.Second
)

// YTDLPBackend drives the yt-dlp executable
type YTDLPBackend struct {
	log logrus.FieldLogger
}

// NewYTDLPBackend creates a yt-dlp backend
func NewYTDLPBackend(log logrus.FieldLogger) *YTDLPBackend {
	return &YTDLPBackend{log: log.WithField("backend", YTDLPModuleName)}
}

// Name returns the module name reported to clients
func (b *YTDLPBackend) Name() string {
	return YTDLPModuleName
}

// ytdlpInfo is the subset of --dump-single-json output we read
type ytdlpInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Formats   []struct {
		Height *float64 `json:"height"`
	} `json:"formats"`
}

// Info runs yt-dlp in metadata-only mode
func (b *YTDLPBackend) Info(ctx context.Context, url string) (*RawInfo, error) {
	dl := ytdlp.New().
		NoPlaylist().
		SkipDownload().
		DumpSingleJSON()

	result, err := dl.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata: %w", err)
	}
	return parseYTDLPInfo([]byte(result.Stdout))
}

// parseYTDLPInfo decodes a single-video JSON document
func parseYTDLPInfo(data []byte) (*RawInfo, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp output: %w", err)
	}

	raw := &RawInfo{
		ID:           info.ID,
		Title:        info.Title,
		ThumbnailURL: info.Thumbnail,
		Heights:      make([]int, 0, len(info.Formats)),
	}
	for _, f := range info.Formats {
		if f.Height != nil {
			raw.Heights = append(raw.Heights, int(*f.Height))
		}
	}
	return raw, nil
}

// Download fetches and merges the streams into dir as <id>.mp4
func (b *YTDLPBackend) Download(ctx context.Context, url string, height int, dir string) (string, error) {
	log := b.log.WithField("url", url)

	dl := ytdlp.New().
		NoPlaylist().
		ForceOverwrites().
		Format(FormatSelector(height)).
		MergeOutputFormat(MergeOutputFormat).
		Output(filepath.Join(dir, OutputTemplate))

	var (
		mu      sync.Mutex
		lastLog time.Time
	)
	dl.ProgressFunc(ProgressInterval, func(update ytdlp.ProgressUpdate) {
		mu.Lock()
		defer mu.Unlock()
		if time.Since(lastLog) < progressLogInterval {
			return
		}
		lastLog = time.Now()
		logProgress(log, &update)
	})

	result, err := dl.Run(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("yt-dlp download: %w", ctx.Err())
		}
		return "", fmt.Errorf("yt-dlp download: %w", err)
	}
	return videoIDFromResult(result), nil
}

// videoIDFromResult recovers the ID from the reported output filename, which
// follows OutputTemplate. It returns "" when yt-dlp did not report one.
func videoIDFromResult(result *ytdlp.Result) string {
	if result == nil {
		return ""
	}
	info, err := result.GetExtractedInfo()
	if err != nil || len(info) == 0 || info[0].Filename == nil {
		return ""
	}
	return strings.TrimSuffix(filepath.Base(*info[0].Filename), filepath.Ext(*info[0].Filename))
}

// logProgress reports transfer speed and ETA at debug level
func logProgress(log logrus.FieldLogger, update *ytdlp.ProgressUpdate) {
	fields := logrus.Fields{
		"downloaded": humanize.Bytes(uint64(update.DownloadedBytes)),
	}
	if update.TotalBytes > 0 {
		fields["total"] = humanize.Bytes(uint64(update.TotalBytes))
		fields["percent"] = fmt.Sprintf("%.1f", float64(update.DownloadedBytes)/float64(update.TotalBytes)*100)
	}
	if !update.Started.IsZero() {
		if elapsed := time.Since(update.Started); elapsed.Seconds() > 0 {
			fields["speed"] = humanize.Bytes(uint64(float64(update.DownloadedBytes)/elapsed.Seconds())) + "/s"
		}
	}
	if eta := update.ETA(); eta > 0 {
		fields["eta"] = eta.Round(time.Second).String()
	}
	if update.Info != nil && update.Info.Title != nil {
		fields["title"] = *update.Info.Title
	}
	log.WithFields(fields).Debug("download progress")
}
