package segment

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-splitter/internal/model"
	"github.com/ytget/yt-splitter/internal/platform"
	"github.com/ytget/yt-splitter/internal/transcode"
)

// SegmentExtension is the container of every produced clip
const SegmentExtension = ".mp4"

// scopeTokenLength is the number of uuid characters used in clip names
const scopeTokenLength = 8

// Segmenter splits media files into clips stored in an output directory
type Segmenter struct {
	tc         transcode.Transcoder
	outputDir  string
	maxSeconds int
	log        logrus.FieldLogger
}

// NewSegmenter creates a segmenter writing finished clips to outputDir
func NewSegmenter(tc transcode.Transcoder, outputDir string, maxSeconds int, log logrus.FieldLogger) *Segmenter {
	if maxSeconds <= 0 {
		maxSeconds = DefaultMaxSeconds
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Segmenter{tc: tc, outputDir: outputDir, maxSeconds: maxSeconds, log: log}
}

// Split probes media, plans the clips and transcodes each one. Every planned
// range is reported; the call fails only when no clip was produced.
func (s *Segmenter) Split(ctx context.Context, media *model.MediaFile, o model.Orientation) ([]model.Segment, error) {
	const op = "split"
	if media == nil || media.Path == "" {
		return nil, model.Errorf(model.KindOutputNotFound, op, "no media to split")
	}

	log := s.log.WithField("source", filepath.Base(media.Path))

	duration, err := s.tc.ProbeDuration(ctx, media.Path)
	if err != nil {
		log.WithError(err).Warn("duration probe failed, assuming 0")
		duration = 0
	}
	width, height, err := s.tc.ProbeDimensions(ctx, media.Path)
	if err != nil {
		log.WithError(err).Warnf("dimension probe failed, assuming %dx%d", DefaultWidth, DefaultHeight)
		width, height = DefaultWidth, DefaultHeight
	}

	plan := NewPlan(duration, width, height, o, s.maxSeconds)
	filter := Filter(plan)
	log.WithFields(logrus.Fields{
		"duration":    plan.Duration,
		"segments":    plan.Count,
		"length":      plan.Length,
		"orientation": plan.Orientation,
		"filter":      filter,
	}).Info("segment plan")

	workDir := media.ScopeDir
	if workDir == "" {
		workDir = filepath.Dir(media.Path)
	}
	base := strings.TrimSuffix(filepath.Base(media.Path), filepath.Ext(media.Path))
	scope := newScopeToken()

	segments := make([]model.Segment, 0, plan.Count)
	succeeded := 0
	for _, r := range Ranges(plan) {
		seg := model.Segment{
			Index:  r.Index,
			Start:  r.Start,
			End:    r.End,
			Name:   SegmentName(base, scope, r.Start, r.End),
			Status: model.SegmentStatusPending,
		}

		if err := s.produce(ctx, media.Path, workDir, filter, &seg); err != nil {
			seg.Status = model.SegmentStatusFailed
			seg.Error = err.Error()
			log.WithError(err).WithField("segment", seg.Name).Warn("segment failed")
		} else {
			seg.Status = model.SegmentStatusCompleted
			succeeded++
			log.WithField("segment", seg.Name).Info("segment ready")
		}
		segments = append(segments, seg)

		if ctx.Err() != nil {
			break
		}
	}

	if succeeded == 0 {
		return segments, model.Errorf(model.KindTranscodeFailure, op, "none of %d segments could be produced", plan.Count)
	}
	return segments, nil
}

// produce transcodes one range into workDir and relocates it to the output directory
func (s *Segmenter) produce(ctx context.Context, src, workDir, filter string, seg *model.Segment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp := filepath.Join(workDir, seg.Name)
	job := transcode.SegmentJob{Input: src, Output: tmp, Start: seg.Start, End: seg.End, Filter: filter}
	if err := s.tc.Segment(ctx, job); err != nil {
		return err
	}

	dst := filepath.Join(s.outputDir, seg.Name)
	if err := platform.MoveFile(tmp, dst); err != nil {
		return err
	}
	seg.Path = dst
	return nil
}

// SegmentName formats a clip name as <base>_<scope>_<start>_<end>.mp4
func SegmentName(base, scope string, start, end int) string {
	return fmt.Sprintf("%s_%s_%d_%d%s", base, scope, start, end, SegmentExtension)
}

func newScopeToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:scopeTokenLength]
}
