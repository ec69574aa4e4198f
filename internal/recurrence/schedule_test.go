package recurrence

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddIntervalAdvancesPastBase(t *testing.T) {
	base := date(2024, time.January, 15)
	for _, f := range []Frequency{FrequencyWeek, FrequencyMonth, FrequencyQuarter, FrequencyHalfYear, FrequencyYear} {
		next := AddInterval(base, f)
		if !next.After(base) {
			t.Errorf("AddInterval(%v, %s) = %v, not after base", base, f, next)
		}
		if next != StartOfDay(next) {
			t.Errorf("AddInterval(%v, %s) = %v, not normalized to start of day", base, f, next)
		}
	}
}

func TestAddIntervalCalendarMath(t *testing.T) {
	cases := []struct {
		base time.Time
		f    Frequency
		want time.Time
	}{
		{date(2024, time.January, 15), FrequencyMonth, date(2024, time.February, 15)},
		{date(2024, time.February, 15), FrequencyMonth, date(2024, time.March, 15)},
		{date(2024, time.January, 15), FrequencyWeek, date(2024, time.January, 22)},
		{date(2024, time.January, 15), FrequencyQuarter, date(2024, time.April, 15)},
		{date(2024, time.January, 15), FrequencyHalfYear, date(2024, time.July, 15)},
		{date(2024, time.February, 29), FrequencyYear, date(2025, time.March, 1)},
		// Month-end rollover is preserved, not clamped.
		{date(2024, time.January, 31), FrequencyMonth, date(2024, time.March, 2)},
	}
	for _, tc := range cases {
		if got := AddInterval(tc.base, tc.f); !got.Equal(tc.want) {
			t.Errorf("AddInterval(%v, %s) = %v, want %v", tc.base, tc.f, got, tc.want)
		}
	}
}

func TestParseFrequency(t *testing.T) {
	valid := map[string]Frequency{
		"WEEK":      FrequencyWeek,
		"month":     FrequencyMonth,
		"Quarter":   FrequencyQuarter,
		"HALF_YEAR": FrequencyHalfYear,
		"SIX_MONTH": FrequencyHalfYear,
		"year":      FrequencyYear,
	}
	for raw, want := range valid {
		got, err := ParseFrequency(raw)
		if err != nil {
			t.Errorf("ParseFrequency(%q): %v", raw, err)
		}
		if got != want {
			t.Errorf("ParseFrequency(%q) = %s, want %s", raw, got, want)
		}
	}

	for _, raw := range []string{"", "DAILY", "FORTNIGHT", "MONTHLY"} {
		if _, err := ParseFrequency(raw); err != ErrInvalidFrequency {
			t.Errorf("ParseFrequency(%q) err = %v, want ErrInvalidFrequency", raw, err)
		}
	}
}

func TestScheduleExpiry(t *testing.T) {
	endsOn := date(2024, time.January, 1)

	expired := Schedule{EndsOn: &endsOn}
	if !expired.Expired(date(2024, time.February, 1)) {
		t.Error("schedule past endsOn should be expired")
	}
	if expired.Expired(date(2024, time.January, 1)) {
		t.Error("schedule is not expired on its end date")
	}

	eternal := Schedule{EndsOn: &endsOn, NeverExpires: true}
	if eternal.Expired(date(2030, time.January, 1)) {
		t.Error("never-expiring schedule must not expire")
	}

	open := Schedule{}
	if open.Expired(date(2030, time.January, 1)) {
		t.Error("schedule without endsOn must not expire")
	}
}

func TestScheduleDue(t *testing.T) {
	s := Schedule{IsActive: true, NextOccurrence: date(2024, time.February, 15)}

	if s.Due(date(2024, time.February, 14)) {
		t.Error("not due before nextOccurrence")
	}
	if !s.Due(date(2024, time.February, 15)) {
		t.Error("due on nextOccurrence")
	}
	if !s.Due(date(2024, time.March, 1)) {
		t.Error("due after nextOccurrence")
	}

	s.IsActive = false
	if s.Due(date(2024, time.March, 1)) {
		t.Error("inactive schedule is never due")
	}
}
