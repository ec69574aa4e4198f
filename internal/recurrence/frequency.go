package recurrence

import (
	"errors"
	"strings"
)

// Frequency is the closed set of supported recurrence intervals. Unknown
// values are rejected at schedule creation, never silently defaulted.
type Frequency string

const (
	FrequencyWeek     Frequency = "WEEK"
	FrequencyMonth    Frequency = "MONTH"
	FrequencyQuarter  Frequency = "QUARTER"
	FrequencyHalfYear Frequency = "HALF_YEAR"
	FrequencyYear     Frequency = "YEAR"
)

var ErrInvalidFrequency = errors.New("invalid_frequency")

// ParseFrequency validates a raw frequency value. SIX_MONTH is accepted as
// a legacy alias for HALF_YEAR.
func ParseFrequency(raw string) (Frequency, error) {
	switch Frequency(strings.ToUpper(strings.TrimSpace(raw))) {
	case FrequencyWeek:
		return FrequencyWeek, nil
	case FrequencyMonth:
		return FrequencyMonth, nil
	case FrequencyQuarter:
		return FrequencyQuarter, nil
	case FrequencyHalfYear, Frequency("SIX_MONTH"):
		return FrequencyHalfYear, nil
	case FrequencyYear:
		return FrequencyYear, nil
	default:
		return "", ErrInvalidFrequency
	}
}
