package model

// SegmentStatus represents the outcome of transcoding a single segment
type SegmentStatus string

const (
	// SegmentStatusPending means the segment is planned but not transcoded yet
	SegmentStatusPending SegmentStatus = "pending"

	// SegmentStatusCompleted means the segment was transcoded and relocated
	SegmentStatusCompleted SegmentStatus = "completed"

	// SegmentStatusFailed means the transcoder or the relocation failed
	SegmentStatusFailed SegmentStatus = "failed"
)

// String returns the string representation of SegmentStatus
func (s SegmentStatus) String() string {
	return string(s)
}

// IsSuccessful returns true if the segment file is available for download
func (s SegmentStatus) IsSuccessful() bool {
	return s == SegmentStatusCompleted
}
