// Package numbering renders document numbers. The textual shape
// PREFIX + 4-digit year + zero-padded counter is a compatibility contract
// with downstream filing systems and must not change.
package numbering

import (
	"fmt"
	"time"
)

// CounterWidth keeps numbers the same length across a year of normal
// volume; counters wider than this simply extend the number.
const CounterWidth = 5

// Format renders a document number, e.g. Format("INV", 2026, 42) =
// "INV202600042".
//
// This function is PURE:
// - No side effects
// - No DB access
// - Fully deterministic
func Format(prefix string, year int, counter int64) string {
	return fmt.Sprintf("%s%04d%0*d", prefix, year, CounterWidth, counter)
}

// FormatAt renders a document number for the year of the given issue date.
func FormatAt(prefix string, issuedAt time.Time, counter int64) string {
	return Format(prefix, issuedAt.UTC().Year(), counter)
}
