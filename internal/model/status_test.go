package model

import "testing"

func TestSegmentStatus_IsSuccessful(t *testing.T) {
	tests := []struct {
		status   SegmentStatus
		expected bool
	}{
		{SegmentStatusPending, false},
		{SegmentStatusCompleted, true},
		{SegmentStatusFailed, false},
	}

	for _, test := range tests {
		result := test.status.IsSuccessful()
		if result != test.expected {
			t.Errorf("SegmentStatus(%s).IsSuccessful() = %v, expected %v", test.status, result, test.expected)
		}
	}
}

func TestSegmentStatus_String(t *testing.T) {
	status := SegmentStatusCompleted
	expected := "completed"
	result := status.String()

	if result != expected {
		t.Errorf("SegmentStatus.String() = %s, expected %s", result, expected)
	}
}
