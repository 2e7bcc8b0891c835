package platform

import (
	"fmt"
	"regexp"

	"github.com/ytget/yt-splitter/internal/model"
)

// VideoIDLength is the length of a YouTube video identifier
const VideoIDLength = 11

// videoIDChars matches one identifier
var videoIDChars = fmt.Sprintf(`([0-9A-Za-z_-]{%d})`, VideoIDLength)

// Patterns are tried in order; the first match wins.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`v=` + videoIDChars),
	regexp.MustCompile(`youtu\.be/` + videoIDChars),
	regexp.MustCompile(`embed/` + videoIDChars),
}

// ParseVideoID extracts the 11-character video identifier from a watch,
// short or embed URL.
func ParseVideoID(raw string) (string, error) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(raw); len(m) == 2 {
			return m[1], nil
		}
	}
	return "", model.Errorf(model.KindInvalidResource, "parse video id", "could not find a video id in %q", raw)
}
