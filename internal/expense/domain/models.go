// Package domain contains persistence models for expenses.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ledgerline/internal/money"
)

// Expense represents a payable document. The unique index over
// (owner, vendor, category, date, amount, department) is the idempotency
// key for manual submissions: a duplicate insert resolves to the existing
// row instead of an error.
type Expense struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID      snowflake.ID `gorm:"not null;index;uniqueIndex:ux_expenses_submission;uniqueIndex:ux_expenses_owner_number" json:"owner_id"`
	Number       string       `gorm:"type:text;not null;uniqueIndex:ux_expenses_owner_number" json:"number"`
	Sequence     int64        `gorm:"not null;default:0" json:"-"`
	SequenceYear int          `gorm:"not null;default:0;index" json:"-"`

	Vendor     string    `gorm:"type:text;not null;uniqueIndex:ux_expenses_submission" json:"vendor"`
	Category   string    `gorm:"type:text;not null;uniqueIndex:ux_expenses_submission" json:"category"`
	Department string    `gorm:"type:text;not null;default:'';uniqueIndex:ux_expenses_submission" json:"department"`
	ExpenseDate time.Time `gorm:"not null;uniqueIndex:ux_expenses_submission" json:"expense_date"`

	Currency            string   `gorm:"type:text;not null" json:"currency"`
	ExchangeRate        *float64 `json:"exchange_rate,omitempty"`
	ReportingEquivalent *float64 `json:"reporting_equivalent,omitempty"`

	TotalAmount float64      `gorm:"not null;default:0;uniqueIndex:ux_expenses_submission" json:"total_amount"`
	PaidAmount  float64      `gorm:"not null;default:0" json:"paid_amount"`
	DueAmount   float64      `gorm:"not null;default:0" json:"due_amount"`
	Status      money.Status `gorm:"type:text;not null;default:'UNPAID'" json:"status"`

	IsTemplate bool   `gorm:"not null;default:false;index" json:"is_template"`
	Notes      string `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Expense) TableName() string { return "expenses" }

// Hint assembles the expense's conversion hint for the converter.
func (e *Expense) Hint() money.ConversionHint {
	return money.ConversionHint{
		ExchangeRate:        e.ExchangeRate,
		ReportingEquivalent: e.ReportingEquivalent,
		DocumentTotal:       e.TotalAmount,
	}
}
