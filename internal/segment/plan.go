package segment

import (
	"fmt"
	"math"

	"github.com/ytget/yt-splitter/internal/model"
)

// Plan defaults
const (
	DefaultMaxSeconds = 60
	DefaultWidth      = 1280
	DefaultHeight     = 720
)

// Output geometry
const (
	VerticalWidth    = 720
	VerticalHeight   = 1280
	HorizontalWidth  = 1280
	HorizontalHeight = 720
)

// NewPlan partitions duration seconds into max(1, ceil(duration/maxSeconds))
// equal segments.
func NewPlan(duration float64, width, height int, o model.Orientation, maxSeconds int) model.SegmentPlan {
	if maxSeconds <= 0 {
		maxSeconds = DefaultMaxSeconds
	}
	if duration < 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		duration = 0
	}
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}

	count := int(math.Ceil(duration / float64(maxSeconds)))
	if count < 1 {
		count = 1
	}

	return model.SegmentPlan{
		Duration:    duration,
		Count:       count,
		Length:      duration / float64(count),
		Width:       width,
		Height:      height,
		Orientation: o,
	}
}

// Ranges returns the rounded [start, end] pairs of the plan in index order.
// Consecutive ranges share their boundary, so the set covers [0, round(D)].
func Ranges(plan model.SegmentPlan) []model.TimeRange {
	ranges := make([]model.TimeRange, 0, plan.Count)
	for i := 0; i < plan.Count; i++ {
		start := float64(i) * plan.Length
		end := math.Min(float64(i+1)*plan.Length, plan.Duration)
		ranges = append(ranges, model.TimeRange{
			Index: i,
			Start: int(math.Round(start)),
			End:   int(math.Round(end)),
		})
	}
	return ranges
}

// Filter returns the ffmpeg video filter for the plan's orientation.
//
// Vertical takes a centered 9:16 window at full source height and scales it
// to 720x1280. Sources already narrower than 9:16 keep their width and are
// cropped vertically instead. Horizontal rotates 90 degrees clockwise and
// scales to 1280x720.
func Filter(plan model.SegmentPlan) string {
	if plan.Orientation == model.OrientationHorizontal {
		return fmt.Sprintf("transpose=1,scale=%d:%d", HorizontalWidth, HorizontalHeight)
	}

	w, h := plan.Width, plan.Height
	cropW, cropH := h*9/16, h
	x, y := (w-cropW)/2, 0
	if cropW > w {
		cropW, cropH = w, w*16/9
		x, y = 0, (h-cropH)/2
	}
	return fmt.Sprintf("crop=%d:%d:%d:%d,scale=%d:%d", cropW, cropH, x, y, VerticalWidth, VerticalHeight)
}
