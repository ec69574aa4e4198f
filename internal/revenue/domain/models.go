// Package domain contains the derived ledger records written when an
// invoice reaches PAID. All monetary fields are stored in the reporting
// currency.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RevenueEntry is the single revenue row for a paid invoice, upserted via
// the invoice's stored back-reference.
type RevenueEntry struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID    snowflake.ID `gorm:"not null;index" json:"owner_id"`
	InvoiceID  snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Amount     float64      `gorm:"not null;default:0" json:"amount"`
	Currency   string       `gorm:"type:text;not null" json:"currency"`
	Source     string       `gorm:"type:text;not null;default:'invoice'" json:"source"`
	ReceivedOn time.Time    `gorm:"not null" json:"received_on"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (RevenueEntry) TableName() string { return "revenue_entries" }

// PaymentRecord is the single payment row for a paid invoice, present only
// when payment details were supplied with the transition.
type PaymentRecord struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID   snowflake.ID `gorm:"not null;index" json:"owner_id"`
	InvoiceID snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Amount    float64      `gorm:"not null;default:0" json:"amount"`
	Currency  string       `gorm:"type:text;not null" json:"currency"`
	Method    string       `gorm:"type:text;not null" json:"method"`
	Reference string       `gorm:"type:text;not null" json:"reference"`
	PaidOn    time.Time    `gorm:"not null" json:"paid_on"`
	Notes     string       `gorm:"type:text" json:"notes"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (PaymentRecord) TableName() string { return "payment_records" }
