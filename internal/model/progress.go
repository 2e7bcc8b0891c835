package model

import (
	"fmt"
	"time"
)

// ProgressSample is a client-side snapshot of a streamed download
type ProgressSample struct {
	Transferred int64
	Total       int64 // from Content-Length, 0 if unknown
	Elapsed     time.Duration
}

// Percent returns completion in 0..100, or 0 if the total is unknown
func (p ProgressSample) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	percent := float64(p.Transferred) / float64(p.Total) * 100
	if percent > 100 {
		percent = 100
	}
	return percent
}

// BytesPerSecond returns the average throughput since the stream started
func (p ProgressSample) BytesPerSecond() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Transferred) / p.Elapsed.Seconds()
}

// ETA estimates the remaining time as elapsed*(total/received-1); -1 if unknown
func (p ProgressSample) ETA() time.Duration {
	if p.Total <= 0 || p.Transferred <= 0 || p.Elapsed <= 0 {
		return -1
	}
	if p.Transferred >= p.Total {
		return 0
	}
	remaining := p.Elapsed.Seconds() * (float64(p.Total)/float64(p.Transferred) - 1)
	return time.Duration(remaining * float64(time.Second))
}

// Done reports whether the whole announced body was received
func (p ProgressSample) Done() bool {
	return p.Total > 0 && p.Transferred >= p.Total
}

// ETAString returns the ETA formatted as hh:mm:ss or mm:ss, or "—" if unknown
func (p ProgressSample) ETAString() string {
	eta := p.ETA()
	if eta < 0 {
		return "—"
	}

	secs := int(eta.Seconds())
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	seconds := secs % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
