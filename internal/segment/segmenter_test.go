package segment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/yt-splitter/internal/model"
	"github.com/ytget/yt-splitter/internal/transcode"
)

// fakeTranscoder writes a small file for every job unless told to fail it
type fakeTranscoder struct {
	mu          sync.Mutex
	duration    float64
	durationErr error
	width       int
	height      int
	dimsErr     error
	failIndex   map[int]bool
	jobs        []transcode.SegmentJob
}

func (f *fakeTranscoder) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return f.duration, f.durationErr
}

func (f *fakeTranscoder) ProbeDimensions(ctx context.Context, path string) (int, int, error) {
	return f.width, f.height, f.dimsErr
}

func (f *fakeTranscoder) Segment(ctx context.Context, job transcode.SegmentJob) error {
	f.mu.Lock()
	index := len(f.jobs)
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()

	if f.failIndex[index] {
		return errors.New("ffmpeg exited with status 1")
	}
	return os.WriteFile(job.Output, []byte(job.Filter), 0o644)
}

func (f *fakeTranscoder) Mux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	return nil
}

func newMedia(t *testing.T) *model.MediaFile {
	t.Helper()
	scope := t.TempDir()
	path := filepath.Join(scope, "dQw4w9WgXcQ.mp4")
	require.NoError(t, os.WriteFile(path, []byte("source"), 0o644))
	return &model.MediaFile{Path: path, Size: 6, VideoID: "dQw4w9WgXcQ", ScopeDir: scope}
}

func TestSplit_AllSegmentsSucceed(t *testing.T) {
	out := t.TempDir()
	tc := &fakeTranscoder{duration: 125, width: 1920, height: 1080}
	logger, _ := test.NewNullLogger()
	s := NewSegmenter(tc, out, 60, logger)

	segments, err := s.Split(context.Background(), newMedia(t), model.OrientationVertical)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	namePattern := regexp.MustCompile(`^dQw4w9WgXcQ_[0-9a-f]{8}_\d+_\d+\.mp4$`)
	bounds := [][2]int{{0, 42}, {42, 83}, {83, 125}}
	for i, seg := range segments {
		assert.Equal(t, i, seg.Index)
		assert.Equal(t, bounds[i][0], seg.Start)
		assert.Equal(t, bounds[i][1], seg.End)
		assert.Equal(t, model.SegmentStatusCompleted, seg.Status)
		assert.Regexp(t, namePattern, seg.Name)
		assert.Equal(t, filepath.Join(out, seg.Name), seg.Path)
		assert.FileExists(t, seg.Path)
	}

	require.Len(t, tc.jobs, 3)
	assert.Equal(t, "crop=607:1080:656:0,scale=720:1280", tc.jobs[0].Filter)
}

func TestSplit_ProbeFailuresUseFallbacks(t *testing.T) {
	tc := &fakeTranscoder{durationErr: errors.New("no ffprobe"), dimsErr: errors.New("no ffprobe")}
	logger, hook := test.NewNullLogger()
	s := NewSegmenter(tc, t.TempDir(), 60, logger)

	segments, err := s.Split(context.Background(), newMedia(t), model.OrientationVertical)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, 0, segments[0].Start)
	assert.Equal(t, 0, segments[0].End)
	assert.Equal(t, "crop=405:720:437:0,scale=720:1280", tc.jobs[0].Filter)

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level.String() == "warning" {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestSplit_PartialFailure(t *testing.T) {
	tc := &fakeTranscoder{duration: 125, width: 1280, height: 720, failIndex: map[int]bool{1: true}}
	logger, _ := test.NewNullLogger()
	s := NewSegmenter(tc, t.TempDir(), 60, logger)

	segments, err := s.Split(context.Background(), newMedia(t), model.OrientationHorizontal)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	assert.Equal(t, model.SegmentStatusCompleted, segments[0].Status)
	assert.Equal(t, model.SegmentStatusFailed, segments[1].Status)
	assert.Contains(t, segments[1].Error, "ffmpeg")
	assert.Empty(t, segments[1].Path)
	assert.Equal(t, model.SegmentStatusCompleted, segments[2].Status)
}

func TestSplit_AllSegmentsFail(t *testing.T) {
	tc := &fakeTranscoder{duration: 90, width: 1280, height: 720, failIndex: map[int]bool{0: true, 1: true}}
	logger, _ := test.NewNullLogger()
	s := NewSegmenter(tc, t.TempDir(), 60, logger)

	segments, err := s.Split(context.Background(), newMedia(t), model.OrientationVertical)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindTranscodeFailure))
	assert.Len(t, segments, 2)
}

func TestSplit_NamesAreUniquePerCall(t *testing.T) {
	tc := &fakeTranscoder{duration: 30, width: 1280, height: 720}
	logger, _ := test.NewNullLogger()
	s := NewSegmenter(tc, t.TempDir(), 60, logger)

	first, err := s.Split(context.Background(), newMedia(t), model.OrientationVertical)
	require.NoError(t, err)
	second, err := s.Split(context.Background(), newMedia(t), model.OrientationVertical)
	require.NoError(t, err)

	assert.NotEqual(t, first[0].Name, second[0].Name)
}

func TestSplit_NoMedia(t *testing.T) {
	s := NewSegmenter(&fakeTranscoder{}, t.TempDir(), 60, nil)

	_, err := s.Split(context.Background(), nil, model.OrientationVertical)
	assert.True(t, model.IsKind(err, model.KindOutputNotFound))
}
