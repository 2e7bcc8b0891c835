package model

// SegmentPlan is the even partition of a media file into bounded segments
type SegmentPlan struct {
	Duration    float64 // seconds
	Count       int
	Length      float64 // seconds per segment
	Width       int
	Height      int
	Orientation Orientation
}

// TimeRange is a rounded [Start, End) slice of the source in whole seconds
type TimeRange struct {
	Index int
	Start int
	End   int
}

// Segment is one transcoded slice of the source
type Segment struct {
	Index  int           `json:"index"`
	Start  int           `json:"start"`
	End    int           `json:"end"`
	Name   string        `json:"name"`
	Path   string        `json:"-"`
	Status SegmentStatus `json:"status"`
	Error  string        `json:"error,omitempty"`
}

// SplitItem is one entry of the /split response. URL is set only for
// segments that can be downloaded.
type SplitItem struct {
	Name   string        `json:"name"`
	URL    string        `json:"url,omitempty"`
	Start  int           `json:"start"`
	End    int           `json:"end"`
	Status SegmentStatus `json:"status"`
	Error  string        `json:"error,omitempty"`
}
