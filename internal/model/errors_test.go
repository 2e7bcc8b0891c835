package model

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{"op and cause", NewError(KindDownloadFailure, "download", errors.New("boom")), "download: boom"},
		{"cause only", NewError(KindNotFound, "", errors.New("missing")), "missing"},
		{"op only", NewError(KindOutputNotFound, "locate", nil), "locate: output_not_found"},
		{"kind only", &Error{Kind: KindRateLimited}, "rate_limited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	base := Errorf(KindInvalidResource, "parse", "bad url %q", "x")
	wrapped := fmt.Errorf("handler: %w", base)

	assert.Equal(t, KindInvalidResource, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindInvalidResource))
	assert.False(t, IsKind(wrapped, KindNotFound))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindNotFound))
}

func TestError_Unwrap(t *testing.T) {
	err := NewError(KindNotFound, "open", os.ErrNotExist)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
