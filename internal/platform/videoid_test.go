package platform

import (
	"testing"

	"github.com/ytget/yt-splitter/internal/model"
)

func TestParseVideoID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short URL", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed URL", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch URL with extra params", "https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"id with dash and underscore", "https://youtu.be/a-b_c-d_e-f?si=x", "a-b_c-d_e-f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseVideoID(tt.url)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, id)
			}
			if len(id) != VideoIDLength {
				t.Errorf("expected %d characters, got %d", VideoIDLength, len(id))
			}
		})
	}
}

func TestParseVideoID_Invalid(t *testing.T) {
	for _, raw := range []string{"not a url", "", "https://youtu.be/short", "https://example.com/watch?x=dQw4w9WgXcQ"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseVideoID(raw)
			if !model.IsKind(err, model.KindInvalidResource) {
				t.Errorf("expected invalid resource error for %q, got %v", raw, err)
			}
		})
	}
}
