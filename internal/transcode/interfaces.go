package transcode

import "context"

// Runner executes an external tool and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Transcoder is the ffmpeg/ffprobe surface used by the segmenter and the
// native extraction backend.
type Transcoder interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ProbeDimensions(ctx context.Context, path string) (width, height int, err error)
	Segment(ctx context.Context, job SegmentJob) error
	Mux(ctx context.Context, videoPath, audioPath, outputPath string) error
}
