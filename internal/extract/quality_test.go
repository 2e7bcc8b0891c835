package extract

import (
	"reflect"
	"testing"

	"github.com/ytget/yt-splitter/internal/model"
)

func TestQualityTiers(t *testing.T) {
	tests := []struct {
		name     string
		heights  []int
		expected []string
	}{
		{"dedup and sort", []int{720, 480, 720, 1080}, []string{"480p", "720p", "1080p"}},
		{"numeric not lexical", []int{1080, 144, 2160, 360}, []string{"144p", "360p", "1080p", "2160p"}},
		{"zero heights skipped", []int{0, 0, 360, -1}, []string{"360p"}},
		{"empty", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QualityTiers(tt.heights)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("QualityTiers(%v) = %v, expected %v", tt.heights, got, tt.expected)
			}
		})
	}
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		tag         string
		expected    int
		expectError bool
	}{
		{"720p", 720, false},
		{"1080", 1080, false},
		{" 480P ", 480, false},
		{"", 0, true},
		{"hd", 0, true},
		{"0p", 0, true},
		{"-720p", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseQuality(tt.tag)
		if tt.expectError {
			if !model.IsKind(err, model.KindInvalidResource) {
				t.Errorf("ParseQuality(%q) expected invalid resource error, got %v", tt.tag, err)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("ParseQuality(%q) = %d, %v; expected %d", tt.tag, got, err, tt.expected)
		}
	}
}

func TestFormatSelector(t *testing.T) {
	if got := FormatSelector(720); got != "bestvideo[height<=720]+bestaudio/best" {
		t.Errorf("unexpected selector %s", got)
	}
}
