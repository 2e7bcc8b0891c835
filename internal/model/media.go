package model

import (
	"fmt"
	"os"
	"strings"
)

// VideoMetadata describes a remote video without transferring media
type VideoMetadata struct {
	Title        string   `json:"title"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Qualities    []string `json:"qualities"`
	Module       string   `json:"module"` // extraction backend that served the request
}

// MediaFile is a muxed container on local storage owned by one request.
// ScopeDir is the request's private temp directory and holds Path.
type MediaFile struct {
	Path     string
	Size     int64
	VideoID  string
	ScopeDir string
}

// Cleanup removes the file and its scope directory
func (m *MediaFile) Cleanup() error {
	if m == nil || m.ScopeDir == "" {
		return nil
	}
	return os.RemoveAll(m.ScopeDir)
}

// Orientation selects the geometric transform applied to segments
type Orientation string

const (
	// OrientationVertical center-crops to 9:16 and scales to 720x1280
	OrientationVertical Orientation = "vertical"

	// OrientationHorizontal rotates 90 degrees and scales to 1280x720
	OrientationHorizontal Orientation = "horizontal"
)

// DefaultOrientation is used when the client does not pick one
const DefaultOrientation = OrientationVertical

// ParseOrientation maps a query value to an Orientation; empty means default
func ParseOrientation(value string) (Orientation, error) {
	switch Orientation(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		return DefaultOrientation, nil
	case OrientationVertical:
		return OrientationVertical, nil
	case OrientationHorizontal:
		return OrientationHorizontal, nil
	default:
		return "", Errorf(KindInvalidResource, "orientation", "unsupported orientation: %q", value)
	}
}

// String returns the string representation of Orientation
func (o Orientation) String() string {
	return string(o)
}

// QualityTag formats a frame height as a quality tier label, e.g. "720p"
func QualityTag(height int) string {
	return fmt.Sprintf("%dp", height)
}
