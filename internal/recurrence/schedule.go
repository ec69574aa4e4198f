// Package recurrence holds recurring-schedule state and the calendar
// arithmetic that advances it.
package recurrence

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DocumentKind selects which document table a schedule's base template
// lives in.
type DocumentKind string

const (
	DocumentKindInvoice DocumentKind = "INVOICE"
	DocumentKindExpense DocumentKind = "EXPENSE"
)

// Schedule is a recurring template attached to a base document. The base
// itself is never counted as a generated occurrence.
type Schedule struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID        snowflake.ID `gorm:"not null;index" json:"owner_id"`
	DocumentKind   DocumentKind `gorm:"type:text;not null" json:"document_kind"`
	BaseDocumentID snowflake.ID `gorm:"not null;index" json:"base_document_id"`
	Frequency      Frequency    `gorm:"type:text;not null" json:"frequency"`
	StartOn        time.Time    `gorm:"not null" json:"start_on"`
	EndsOn         *time.Time   `json:"ends_on,omitempty"`
	NeverExpires   bool         `gorm:"not null;default:false" json:"never_expires"`
	NextOccurrence time.Time    `gorm:"not null;index" json:"next_occurrence"`
	LastOccurrence *time.Time   `json:"last_occurrence,omitempty"`
	IsActive       bool         `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Schedule) TableName() string { return "recurring_schedules" }

// Expired reports whether the schedule's end date has passed. A schedule
// marked never-expiring cannot expire regardless of endsOn.
func (s *Schedule) Expired(ref time.Time) bool {
	if s.NeverExpires {
		return false
	}
	return s.EndsOn != nil && StartOfDay(ref).After(StartOfDay(*s.EndsOn))
}

// Due reports whether the schedule should fire at the reference date.
func (s *Schedule) Due(ref time.Time) bool {
	return s.IsActive && !s.NextOccurrence.After(StartOfDay(ref))
}

// AddInterval computes the next occurrence after base for the given
// frequency, normalized to the start of a calendar day (UTC). Month-based
// intervals use calendar arithmetic: adding a month to a day the target
// month does not have rolls over into the following month (Jan 31 + 1
// month = Mar 2/3), matching the stored schedule semantics.
func AddInterval(base time.Time, f Frequency) time.Time {
	base = StartOfDay(base)
	switch f {
	case FrequencyWeek:
		return base.AddDate(0, 0, 7)
	case FrequencyMonth:
		return base.AddDate(0, 1, 0)
	case FrequencyQuarter:
		return base.AddDate(0, 3, 0)
	case FrequencyHalfYear:
		return base.AddDate(0, 6, 0)
	case FrequencyYear:
		return base.AddDate(1, 0, 0)
	default:
		return base
	}
}

// StartOfDay truncates a time to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
