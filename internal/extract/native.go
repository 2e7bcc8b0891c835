package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kkdai/youtube/v2"
	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-splitter/internal/transcode"
)

// Native backend settings
const (
	NativeModuleName = "kkdai/youtube"
	MimeVideoMP4     = "video/mp4"
	MimeAudioMP4     = "audio/mp4"
	PartialSuffix    = ".part"
	OutputExtension  = ".mp4"
	copyLogInterval  = 5 * time.Second
)

// ErrNoFormat is returned when a video offers nothing downloadable
var ErrNoFormat = errors.New("no downloadable format")

// videoClient is the part of youtube.Client the backend uses
type videoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// NativeBackend downloads streams in-process and muxes them with ffmpeg
type NativeBackend struct {
	client videoClient
	tc     transcode.Transcoder
	log    logrus.FieldLogger
}

// NewNativeBackend creates a pure Go backend. A nil client uses http.DefaultClient.
func NewNativeBackend(httpClient *http.Client, tc transcode.Transcoder, log logrus.FieldLogger) *NativeBackend {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &NativeBackend{
		client: &youtube.Client{HTTPClient: httpClient},
		tc:     tc,
		log:    log.WithField("backend", NativeModuleName),
	}
}

// Name returns the module name reported to clients
func (b *NativeBackend) Name() string {
	return NativeModuleName
}

// Info resolves the video page and lists its formats
func (b *NativeBackend) Info(ctx context.Context, url string) (*RawInfo, error) {
	video, err := b.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("youtube metadata: %w", err)
	}

	raw := &RawInfo{
		ID:           video.ID,
		Title:        video.Title,
		ThumbnailURL: bestThumbnail(video.Thumbnails),
		Heights:      make([]int, 0, len(video.Formats)),
	}
	for _, f := range video.Formats {
		raw.Heights = append(raw.Heights, f.Height)
	}
	return raw, nil
}

// bestThumbnail returns the widest thumbnail URL
func bestThumbnail(thumbs youtube.Thumbnails) string {
	best := ""
	var width uint
	for _, t := range thumbs {
		if best == "" || t.Width > width {
			best, width = t.URL, t.Width
		}
	}
	return best
}

// selection is the outcome of format picking: either a video+audio pair to
// mux, or a single progressive format.
type selection struct {
	video       *youtube.Format
	audio       *youtube.Format
	progressive *youtube.Format
}

// pickFormats mirrors "bestvideo[height<=H]+bestaudio/best": the tallest
// MP4 video-only stream within the cap plus the best MP4 audio stream,
// else the best progressive MP4 stream within the cap, else the lowest one.
func pickFormats(formats youtube.FormatList, height int) (selection, error) {
	videos := formats.Type(MimeVideoMP4).Select(func(f youtube.Format) bool {
		return f.AudioChannels == 0 && f.Height > 0 && f.Height <= height
	})
	audios := formats.Type(MimeAudioMP4).WithAudioChannels()

	if len(videos) > 0 && len(audios) > 0 {
		sortByHeightThenBitrate(videos)
		sort.SliceStable(audios, func(i, j int) bool { return audios[i].Bitrate > audios[j].Bitrate })
		return selection{video: &videos[0], audio: &audios[0]}, nil
	}

	progressive := formats.Type(MimeVideoMP4).WithAudioChannels().Select(func(f youtube.Format) bool {
		return f.Height > 0
	})
	if len(progressive) == 0 {
		return selection{}, ErrNoFormat
	}
	sortByHeightThenBitrate(progressive)
	for i := range progressive {
		if progressive[i].Height <= height {
			return selection{progressive: &progressive[i]}, nil
		}
	}
	return selection{progressive: &progressive[len(progressive)-1]}, nil
}

func sortByHeightThenBitrate(list youtube.FormatList) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Height != list[j].Height {
			return list[i].Height > list[j].Height
		}
		return list[i].Bitrate > list[j].Bitrate
	})
}

// Download streams the selected formats into dir and leaves <id>.mp4 behind
func (b *NativeBackend) Download(ctx context.Context, url string, height int, dir string) (string, error) {
	video, err := b.client.GetVideoContext(ctx, url)
	if err != nil {
		return "", fmt.Errorf("youtube metadata: %w", err)
	}

	sel, err := pickFormats(video.Formats, height)
	if err != nil {
		return "", fmt.Errorf("video %s: %w", video.ID, err)
	}

	log := b.log.WithField("video_id", video.ID)
	if sel.progressive != nil {
		f := sel.progressive
		log.WithFields(logrus.Fields{"itag": f.ItagNo, "quality": f.QualityLabel}).Info("downloading progressive stream")
		target := filepath.Join(dir, video.ID+OutputExtension)
		return video.ID, b.fetch(ctx, video, f, target, log)
	}

	log.WithFields(logrus.Fields{
		"video_itag": sel.video.ItagNo,
		"quality":    sel.video.QualityLabel,
		"audio_itag": sel.audio.ItagNo,
	}).Info("downloading separate streams")

	videoPath := filepath.Join(dir, fmt.Sprintf("%s.f%d%s", video.ID, sel.video.ItagNo, PartialSuffix))
	audioPath := filepath.Join(dir, fmt.Sprintf("%s.f%d%s", video.ID, sel.audio.ItagNo, PartialSuffix))
	defer os.Remove(videoPath)
	defer os.Remove(audioPath)

	if err := b.fetch(ctx, video, sel.video, videoPath, log); err != nil {
		return "", err
	}
	if err := b.fetch(ctx, video, sel.audio, audioPath, log); err != nil {
		return "", err
	}
	if err := b.tc.Mux(ctx, videoPath, audioPath, filepath.Join(dir, video.ID+OutputExtension)); err != nil {
		return "", err
	}
	return video.ID, nil
}

// fetch copies one stream to target
func (b *NativeBackend) fetch(ctx context.Context, video *youtube.Video, format *youtube.Format, target string, log logrus.FieldLogger) error {
	stream, size, err := b.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return fmt.Errorf("open stream itag %d: %w", format.ItagNo, err)
	}
	defer stream.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(target), err)
	}

	counter := &progressWriter{total: size, started: time.Now(), log: log.WithField("itag", format.ItagNo)}
	if _, err := io.Copy(out, io.TeeReader(stream, counter)); err != nil {
		out.Close()
		os.Remove(target)
		return fmt.Errorf("download itag %d: %w", format.ItagNo, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(target), err)
	}
	counter.report()
	return nil
}


// progressWriter counts bytes and logs throughput periodically
type progressWriter struct {
	written int64
	total   int64
	started time.Time
	lastLog time.Time
	log     logrus.FieldLogger
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if time.Since(p.lastLog) >= copyLogInterval {
		p.lastLog = time.Now()
		p.report()
	}
	return len(b), nil
}

func (p *progressWriter) report() {
	written := p.written
	fields := logrus.Fields{"downloaded": humanize.Bytes(uint64(written))}
	if p.total > 0 {
		fields["total"] = humanize.Bytes(uint64(p.total))
	}
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		fields["speed"] = humanize.Bytes(uint64(float64(written)/elapsed)) + "/s"
	}
	p.log.WithFields(fields).Debug("download progress")
}
