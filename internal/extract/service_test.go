package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/yt-splitter/internal/model"
)

// fakeBackend writes the configured files into the download directory
type fakeBackend struct {
	info        *RawInfo
	infoErr     error
	files       map[string]string
	returnID    string
	downloadErr error
	gotHeight   int
	gotDir      string
	deadline    bool
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Info(ctx context.Context, url string) (*RawInfo, error) {
	_, f.deadline = ctx.Deadline()
	return f.info, f.infoErr
}

func (f *fakeBackend) Download(ctx context.Context, url string, height int, dir string) (string, error) {
	_, f.deadline = ctx.Deadline()
	f.gotHeight = height
	f.gotDir = dir
	for name, content := range f.files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return "", err
		}
	}
	return f.returnID, f.downloadErr
}

func newTestService(b Backend, tempDir string) *Service {
	return NewService(b, Options{TempDir: tempDir, Logger: testLogger()})
}

func TestFetchMetadata(t *testing.T) {
	b := &fakeBackend{info: &RawInfo{
		ID:           "dQw4w9WgXcQ",
		Title:        "A title",
		ThumbnailURL: "https://i.ytimg.com/x.jpg",
		Heights:      []int{720, 480, 720, 1080, 0},
	}}

	meta, err := newTestService(b, t.TempDir()).FetchMetadata(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "A title", meta.Title)
	assert.Equal(t, "https://i.ytimg.com/x.jpg", meta.ThumbnailURL)
	assert.Equal(t, []string{"480p", "720p", "1080p"}, meta.Qualities)
	assert.Equal(t, "fake", meta.Module)
	assert.True(t, b.deadline, "metadata lookups must be bounded")
}

func TestFetchMetadata_EmptyFields(t *testing.T) {
	b := &fakeBackend{info: &RawInfo{}}

	meta, err := newTestService(b, t.TempDir()).FetchMetadata(context.Background(), "u")
	require.NoError(t, err)
	assert.Empty(t, meta.Title)
	assert.Empty(t, meta.ThumbnailURL)
	assert.Empty(t, meta.Qualities)
}

func TestFetchMetadata_BackendFailure(t *testing.T) {
	b := &fakeBackend{infoErr: errors.New("video unavailable")}

	_, err := newTestService(b, t.TempDir()).FetchMetadata(context.Background(), "u")
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindExtractionFailure))
	assert.Contains(t, err.Error(), "video unavailable")
}

func TestFetchAndMux(t *testing.T) {
	tmp := t.TempDir()
	b := &fakeBackend{files: map[string]string{"dQw4w9WgXcQ.mp4": "muxed-bytes"}}

	media, err := newTestService(b, tmp).FetchAndMux(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "720p")
	require.NoError(t, err)

	assert.Equal(t, 720, b.gotHeight)
	assert.True(t, b.deadline)
	assert.Equal(t, "dQw4w9WgXcQ", media.VideoID)
	assert.Equal(t, filepath.Join(media.ScopeDir, "dQw4w9WgXcQ.mp4"), media.Path)
	assert.Equal(t, int64(len("muxed-bytes")), media.Size)
	assert.Equal(t, tmp, filepath.Dir(media.ScopeDir))
	assert.True(t, strings.HasPrefix(filepath.Base(media.ScopeDir), ScopeDirPrefix))

	require.NoError(t, media.Cleanup())
	assert.NoDirExists(t, media.ScopeDir)
}

func TestFetchAndMux_FallsBackToSoleFile(t *testing.T) {
	b := &fakeBackend{
		returnID: "dQw4w9WgXcQ",
		files:    map[string]string{"dQw4w9WgXcQ.mkv": "data", "dQw4w9WgXcQ.f137.mp4.part": "x"},
	}

	media, err := newTestService(b, t.TempDir()).FetchAndMux(context.Background(), "u", "1080")
	require.NoError(t, err)
	defer media.Cleanup()
	assert.Equal(t, "dQw4w9WgXcQ.mkv", filepath.Base(media.Path))
}

func TestFetchAndMux_Errors(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
		quality string
		kind    model.ErrorKind
	}{
		{name: "bad quality", backend: &fakeBackend{}, quality: "best", kind: model.KindInvalidResource},
		{name: "backend failure", backend: &fakeBackend{downloadErr: errors.New("HTTP 403")}, quality: "720p", kind: model.KindDownloadFailure},
		{name: "no output", backend: &fakeBackend{}, quality: "720p", kind: model.KindOutputNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmp := t.TempDir()
			_, err := newTestService(tt.backend, tmp).FetchAndMux(context.Background(), "https://youtu.be/dQw4w9WgXcQ", tt.quality)
			require.Error(t, err)
			assert.Equal(t, tt.kind, model.KindOf(err))

			entries, err := os.ReadDir(tmp)
			require.NoError(t, err)
			assert.Empty(t, entries, "scope directory must be removed on failure")
		})
	}
}

func TestNewService_Defaults(t *testing.T) {
	s := NewService(&fakeBackend{}, Options{})
	assert.Equal(t, DefaultMetadataTimeout, s.metadataTimeout)
	assert.Equal(t, DefaultDownloadTimeout, s.downloadTimeout)
	assert.Equal(t, "fake", s.Module())

	s = NewService(&fakeBackend{}, Options{MetadataTimeout: time.Second})
	assert.Equal(t, time.Second, s.metadataTimeout)
}
