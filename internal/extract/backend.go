package extract

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-splitter/internal/transcode"
)

// Backend names accepted by SelectBackend
const (
	BackendAuto   = "auto"
	BackendYTDLP  = "ytdlp"
	BackendNative = "native"
)

// YTDLPExecutable is looked up on PATH when the backend is "auto"
const YTDLPExecutable = "yt-dlp"

// RawInfo is the backend-neutral metadata of a single video
type RawInfo struct {
	ID           string
	Title        string
	ThumbnailURL string
	Heights      []int // one entry per available format, zero when unknown
}

// Backend is an extraction collaborator
type Backend interface {
	// Name identifies the backend in API responses
	Name() string

	// Info looks up metadata without transferring media
	Info(ctx context.Context, url string) (*RawInfo, error)

	// Download fetches the best streams at or below height and muxes them
	// into dir as <id>.mp4. It returns the video ID when known, else "".
	Download(ctx context.Context, url string, height int, dir string) (string, error)
}

// lookPath is swapped in tests
var lookPath = exec.LookPath

// SelectBackend builds the backend named by name. "auto" prefers yt-dlp
// when its executable is on PATH.
func SelectBackend(name string, tc transcode.Transcoder, client *http.Client, log logrus.FieldLogger) (Backend, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendAuto:
		if _, err := lookPath(YTDLPExecutable); err == nil {
			return NewYTDLPBackend(log), nil
		}
		log.Infof("%s not found on PATH, using the native backend", YTDLPExecutable)
		return NewNativeBackend(client, tc, log), nil
	case BackendYTDLP:
		return NewYTDLPBackend(log), nil
	case BackendNative:
		return NewNativeBackend(client, tc, log), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}
