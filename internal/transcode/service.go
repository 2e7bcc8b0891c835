package transcode

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// FFmpeg and ffprobe constants
const (
	FFmpegCommand  = "ffmpeg"
	FFprobeCommand = "ffprobe"

	FFprobeLogLevel      = "error"
	FFprobeDuration      = "format=duration"
	FFprobeDurationFmt   = "default=noprint_wrappers=1:nokey=1"
	FFprobeFirstVideo    = "v:0"
	FFprobeDimensions    = "stream=width,height"
	FFprobeDimensionsFmt = "csv=p=0"

	SegmentPreset = "ultrafast"
	CopyCodec     = "copy"
	FastStartFlag = "+faststart"

	DefaultTimeout = 10 * time.Minute
)

// SegmentJob describes one ffmpeg cut of [Start, End] seconds from Input
type SegmentJob struct {
	Input  string
	Output string
	Start  int
	End    int
	Filter string
}

// Options configures a Service
type Options struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration // per invocation
	Runner      Runner
	Logger      logrus.FieldLogger
}

// Service drives ffmpeg and ffprobe
type Service struct {
	ffmpeg  string
	ffprobe string
	timeout time.Duration
	runner  Runner
	log     logrus.FieldLogger
}

// NewService creates a transcoding service, filling unset options with defaults
func NewService(opts Options) *Service {
	s := &Service{
		ffmpeg:  opts.FFmpegPath,
		ffprobe: opts.FFprobePath,
		timeout: opts.Timeout,
		runner:  opts.Runner,
		log:     opts.Logger,
	}
	if s.ffmpeg == "" {
		s.ffmpeg = FFmpegCommand
	}
	if s.ffprobe == "" {
		s.ffprobe = FFprobeCommand
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.runner == nil {
		s.runner = ExecRunner{}
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

// ProbeDuration returns the container duration in seconds
func (s *Service) ProbeDuration(ctx context.Context, path string) (float64, error) {
	out, err := s.run(ctx, s.ffprobe, BuildDurationProbeArgs(path)...)
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(out))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", durationStr, err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative duration %v", duration)
	}
	return duration, nil
}

// ProbeDimensions returns width and height of the first video stream
func (s *Service) ProbeDimensions(ctx context.Context, path string) (int, int, error) {
	out, err := s.run(ctx, s.ffprobe, BuildDimensionsProbeArgs(path)...)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}
	return parseDimensions(string(out))
}

// parseDimensions reads "W,H" from the first non-empty line
func parseDimensions(output string) (int, int, error) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(strings.TrimSuffix(line, ","), ",")
		if len(parts) < 2 {
			return 0, 0, fmt.Errorf("unexpected dimensions output %q", line)
		}
		w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0, 0, fmt.Errorf("failed to parse width: %w", err)
		}
		h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, fmt.Errorf("failed to parse height: %w", err)
		}
		if w <= 0 || h <= 0 {
			return 0, 0, fmt.Errorf("invalid dimensions %dx%d", w, h)
		}
		return w, h, nil
	}
	return 0, 0, fmt.Errorf("no video stream found")
}

// Segment cuts and filters one slice; a failed run leaves no output behind
func (s *Service) Segment(ctx context.Context, job SegmentJob) error {
	start := time.Now()
	if _, err := s.run(ctx, s.ffmpeg, BuildSegmentArgs(job)...); err != nil {
		os.Remove(job.Output)
		return fmt.Errorf("segment %d-%d: %w", job.Start, job.End, err)
	}

	s.log.WithFields(logrus.Fields{
		"output":   job.Output,
		"start":    job.Start,
		"end":      job.End,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("segment transcoded")
	return nil
}

// Mux combines a video-only and an audio-only stream into an MP4 without re-encoding
func (s *Service) Mux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	if _, err := s.run(ctx, s.ffmpeg, BuildMuxArgs(videoPath, audioPath, outputPath)...); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("mux: %w", err)
	}
	return nil
}

// run bounds one invocation by the configured timeout
func (s *Service) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.runner.Run(ctx, name, args...)
}

// BuildDurationProbeArgs builds the ffprobe arguments for the format duration
func BuildDurationProbeArgs(path string) []string {
	return []string{
		"-v", FFprobeLogLevel,
		"-show_entries", FFprobeDuration,
		"-of", FFprobeDurationFmt,
		path,
	}
}

// BuildDimensionsProbeArgs builds the ffprobe arguments for the first video stream size
func BuildDimensionsProbeArgs(path string) []string {
	return []string{
		"-v", FFprobeLogLevel,
		"-select_streams", FFprobeFirstVideo,
		"-show_entries", FFprobeDimensions,
		"-of", FFprobeDimensionsFmt,
		path,
	}
}

// BuildSegmentArgs builds the ffmpeg arguments for one segment
func BuildSegmentArgs(job SegmentJob) []string {
	return []string{
		"-y", // Overwrite output file
		"-i", job.Input, // Input file
		"-ss", strconv.Itoa(job.Start), // Slice start
		"-to", strconv.Itoa(job.End), // Slice end
		"-vf", job.Filter, // Crop/rotate and scale
		"-preset", SegmentPreset, // Encoding preset
		"-c:a", CopyCodec, // Keep audio as is
		job.Output,
	}
}

// BuildMuxArgs builds the ffmpeg arguments for a stream-copy mux
func BuildMuxArgs(videoPath, audioPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c", CopyCodec,
		"-movflags", FastStartFlag,
		outputPath,
	}
}
