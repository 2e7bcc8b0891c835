package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so the HTTP layer can map them to a status code
type ErrorKind string

const (
	// KindInvalidResource means the URL or a request parameter is malformed
	KindInvalidResource ErrorKind = "invalid_resource"

	// KindExtractionFailure means the metadata lookup failed
	KindExtractionFailure ErrorKind = "extraction_failure"

	// KindDownloadFailure means fetching or muxing the media failed
	KindDownloadFailure ErrorKind = "download_failure"

	// KindOutputNotFound means the download finished but no file materialized
	KindOutputNotFound ErrorKind = "output_not_found"

	// KindTranscodeFailure means no segment could be produced
	KindTranscodeFailure ErrorKind = "transcode_failure"

	// KindNotFound means an unknown route, token, or missing file
	KindNotFound ErrorKind = "not_found"

	// KindRateLimited means the caller exceeded the request budget
	KindRateLimited ErrorKind = "rate_limited"
)

// Error is a classified error. Op names the operation that failed.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError wraps err with a kind and an operation name
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string
func Errorf(kind ErrorKind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the kind from err; it returns "" when err is not classified
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
