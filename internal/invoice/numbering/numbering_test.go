package numbering

import (
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		prefix  string
		year    int
		counter int64
		want    string
	}{
		{"INV", 2026, 1, "INV202600001"},
		{"INV", 2026, 42, "INV202600042"},
		{"EXP", 2024, 99999, "EXP202499999"},
		// Counters past the padded width extend rather than truncate.
		{"INV", 2026, 123456, "INV2026123456"},
	}
	for _, tc := range cases {
		if got := Format(tc.prefix, tc.year, tc.counter); got != tc.want {
			t.Errorf("Format(%q, %d, %d) = %q, want %q", tc.prefix, tc.year, tc.counter, got, tc.want)
		}
	}
}

func TestFormatAtUsesIssueYear(t *testing.T) {
	issued := time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC)
	if got := FormatAt("INV", issued, 7); got != "INV202500007" {
		t.Fatalf("got %q", got)
	}
}
