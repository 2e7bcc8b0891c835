package extract

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ytget/yt-splitter/internal/model"
)

// QualityTiers turns format heights into distinct "<h>p" tags sorted by
// ascending height. Non-positive heights are skipped.
func QualityTiers(heights []int) []string {
	seen := make(map[int]struct{}, len(heights))
	unique := make([]int, 0, len(heights))
	for _, h := range heights {
		if h <= 0 {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		unique = append(unique, h)
	}
	sort.Ints(unique)

	tiers := make([]string, 0, len(unique))
	for _, h := range unique {
		tiers = append(tiers, model.QualityTag(h))
	}
	return tiers
}

// ParseQuality reads the height out of a tag such as "720p" or "720"
func ParseQuality(tag string) (int, error) {
	value := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(tag)), "p")
	height, err := strconv.Atoi(value)
	if err != nil || height <= 0 {
		return 0, model.Errorf(model.KindInvalidResource, "parse quality", "invalid resolution %q", tag)
	}
	return height, nil
}

// FormatSelector builds the yt-dlp format expression for a height cap
func FormatSelector(height int) string {
	return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best", height)
}
