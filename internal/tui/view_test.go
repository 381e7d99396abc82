package tui

import "testing"

func TestViewport(t *testing.T) {
	tests := []struct {
		name               string
		cursor, n, height  int
		wantStart, wantEnd int
	}{
		{"fits entirely", 0, 5, 10, 0, 5},
		{"cursor at top", 0, 100, 10, 0, 10},
		{"cursor centered", 50, 100, 10, 45, 55},
		{"cursor at bottom", 99, 100, 10, 90, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := viewport(tt.cursor, tt.n, tt.height)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("viewport(%d, %d, %d) = [%d, %d), want [%d, %d)",
					tt.cursor, tt.n, tt.height, start, end, tt.wantStart, tt.wantEnd)
			}
			if tt.cursor < start || tt.cursor >= end {
				t.Errorf("cursor %d outside viewport [%d, %d)", tt.cursor, start, end)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"much-too-long-for-the-column", 10, "much-to..."},
		{"tiny", 3, "tiny"},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0B"},
		{512, "512B"},
		{1024, "1.0K"},
		{1536, "1.5K"},
		{5 << 20, "5.0M"},
		{3 << 30, "3.0G"},
	}

	for _, tt := range tests {
		if got := formatSize(tt.n); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTransferSummary(t *testing.T) {
	if got := transferSummary(1); got != "1 transfer complete" {
		t.Errorf("transferSummary(1) = %q", got)
	}
	if got := transferSummary(3); got != "3 transfers complete" {
		t.Errorf("transferSummary(3) = %q", got)
	}
}
