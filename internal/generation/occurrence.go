// Package generation materializes documents from recurring schedules. Each
// run is idempotent: an occurrence guard row keyed by (schedule, date)
// commits in the same transaction as the generated document, so a retried
// tick can never produce a duplicate.
package generation

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ledgerline/internal/recurrence"
)

// Occurrence is the idempotency guard for one generated document.
type Occurrence struct {
	ID             snowflake.ID            `gorm:"primaryKey" json:"id"`
	ScheduleID     snowflake.ID            `gorm:"not null;uniqueIndex:ux_generation_occurrences" json:"schedule_id"`
	OccurrenceDate time.Time               `gorm:"not null;uniqueIndex:ux_generation_occurrences" json:"occurrence_date"`
	DocumentKind   recurrence.DocumentKind `gorm:"type:text;not null" json:"document_kind"`
	DocumentID     snowflake.ID            `gorm:"not null" json:"document_id"`
	CreatedAt      time.Time               `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Occurrence) TableName() string { return "generation_occurrences" }
