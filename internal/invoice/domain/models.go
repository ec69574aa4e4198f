// Package domain contains persistence models for invoicing.
package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ledgerline/internal/money"
)

// Invoice represents a receivable document. Templates (bases for recurring
// schedules) carry IsTemplate=true and are excluded from totals without
// scanning schedules.
type Invoice struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID       snowflake.ID `gorm:"not null;index;uniqueIndex:ux_invoices_owner_number" json:"owner_id"`
	Number        string       `gorm:"type:text;not null;uniqueIndex:ux_invoices_owner_number" json:"number"`
	Sequence      int64        `gorm:"not null;default:0" json:"-"`
	SequenceYear  int          `gorm:"not null;default:0;index" json:"-"`
	CustomerName  string       `gorm:"type:text;not null" json:"customer_name"`
	CustomerEmail string       `gorm:"type:text" json:"customer_email"`

	Currency string `gorm:"type:text;not null" json:"currency"`
	// ExchangeRate and ReportingEquivalent are conversion hints captured at
	// creation; see money.ConversionHint for their precedence.
	ExchangeRate        *float64 `json:"exchange_rate,omitempty"`
	ReportingEquivalent *float64 `json:"reporting_equivalent,omitempty"`

	TotalAmount float64      `gorm:"not null;default:0" json:"total_amount"`
	PaidAmount  float64      `gorm:"not null;default:0" json:"paid_amount"`
	DueAmount   float64      `gorm:"not null;default:0" json:"due_amount"`
	Status      money.Status `gorm:"type:text;not null;default:'UNPAID'" json:"status"`

	PaymentTerms string     `gorm:"type:text" json:"payment_terms"`
	IssueDate    time.Time  `gorm:"not null" json:"issue_date"`
	DueDate      *time.Time `json:"due_date,omitempty"`

	IsTemplate bool `gorm:"not null;default:false;index" json:"is_template"`

	// Back-references to the derived records upserted when the invoice is
	// paid; at most one of each per invoice.
	RevenueEntryID  *snowflake.ID `json:"revenue_entry_id,omitempty"`
	PaymentRecordID *snowflake.ID `json:"payment_record_id,omitempty"`

	NotifiedAt *time.Time `json:"notified_at,omitempty"`
	Notes      string     `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Hint assembles the invoice's conversion hint for the converter.
func (i *Invoice) Hint() money.ConversionHint {
	return money.ConversionHint{
		ExchangeRate:        i.ExchangeRate,
		ReportingEquivalent: i.ReportingEquivalent,
		DocumentTotal:       i.TotalAmount,
	}
}

// ParseTermsDays extracts the day count from a payment-terms string:
// "Net 30", "NET30" and "30" all yield 30. Unparsable terms yield 0
// (due on issue).
func ParseTermsDays(terms string) int {
	digits := strings.Builder{}
	for _, r := range terms {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	days, err := strconv.Atoi(digits.String())
	if err != nil || days < 0 {
		return 0
	}
	return days
}
