package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateInvoiceRequest struct {
	OwnerID             snowflake.ID
	CustomerName        string
	CustomerEmail       string
	Currency            string
	ExchangeRate        *float64
	ReportingEquivalent *float64
	TotalAmount         float64
	PaidAmount          float64
	PaymentTerms        string
	IssueDate           time.Time
	IsTemplate          bool
	Notes               string
}

type UpdateAmountsRequest struct {
	OwnerID     snowflake.ID
	InvoiceID   snowflake.ID
	TotalAmount *float64
	PaidAmount  *float64
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	GetByID(ctx context.Context, ownerID, id snowflake.ID) (Invoice, error)
	List(ctx context.Context, ownerID snowflake.ID) ([]Invoice, error)
	UpdateAmounts(ctx context.Context, req UpdateAmountsRequest) (Invoice, error)
	Cancel(ctx context.Context, ownerID, id snowflake.ID) (Invoice, error)
	Delete(ctx context.Context, ownerID, id snowflake.ID) error
}

var (
	ErrInvoiceNotFound = errors.New("invoice_not_found")
	ErrMissingCustomer = errors.New("customer_name_is_required")
	ErrMissingCurrency = errors.New("currency_is_required")
)
