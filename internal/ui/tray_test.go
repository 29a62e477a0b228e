package ui

import "testing"

func TestStatusTitle(t *testing.T) {
	tests := []struct {
		active, total int
		want          string
	}{
		{0, 0, "Status: Idle (0 jobs)"},
		{0, 3, "Status: Idle (3 jobs)"},
		{2, 5, "Status: Splitting 2 of 5 jobs"},
	}
	for _, tt := range tests {
		if got := statusTitle(tt.active, tt.total); got != tt.want {
			t.Errorf("statusTitle(%d, %d) = %q, want %q", tt.active, tt.total, got, tt.want)
		}
	}
}
