package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateExpenseRequest struct {
	OwnerID             snowflake.ID
	Vendor              string
	Category            string
	Department          string
	ExpenseDate         time.Time
	Currency            string
	ExchangeRate        *float64
	ReportingEquivalent *float64
	TotalAmount         float64
	PaidAmount          float64
	IsTemplate          bool
	Notes               string
}

type UpdateAmountsRequest struct {
	OwnerID     snowflake.ID
	ExpenseID   snowflake.ID
	TotalAmount *float64
	PaidAmount  *float64
}

type Service interface {
	// Create persists a new expense. A submission matching an existing
	// (vendor, category, date, amount, department) row returns that row.
	Create(ctx context.Context, req CreateExpenseRequest) (Expense, error)
	GetByID(ctx context.Context, ownerID, id snowflake.ID) (Expense, error)
	List(ctx context.Context, ownerID snowflake.ID) ([]Expense, error)
	UpdateAmounts(ctx context.Context, req UpdateAmountsRequest) (Expense, error)
	Delete(ctx context.Context, ownerID, id snowflake.ID) error
}

var (
	ErrExpenseNotFound = errors.New("expense_not_found")
	ErrMissingVendor   = errors.New("vendor_is_required")
	ErrMissingCategory = errors.New("category_is_required")
	ErrMissingCurrency = errors.New("currency_is_required")
)
