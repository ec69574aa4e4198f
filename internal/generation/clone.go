package generation

import (
	"time"

	"github.com/bwmarrin/snowflake"
	expensedomain "github.com/smallbiznis/ledgerline/internal/expense/domain"
	invoicedomain "github.com/smallbiznis/ledgerline/internal/invoice/domain"
	"github.com/smallbiznis/ledgerline/internal/money"
)

// newInvoiceFromBase clones the business fields of a template invoice into
// a fresh unpaid document. Identity, numbering, payment state, delivery
// state and the derived-record back-references are deliberately not
// copied; they belong to each generated document alone.
func newInvoiceFromBase(base invoicedomain.Invoice, id snowflake.ID, occurrence, now time.Time) invoicedomain.Invoice {
	normalized := money.Normalize(base.TotalAmount, 0)

	clone := invoicedomain.Invoice{
		ID:                  id,
		OwnerID:             base.OwnerID,
		CustomerName:        base.CustomerName,
		CustomerEmail:       base.CustomerEmail,
		Currency:            base.Currency,
		ExchangeRate:        base.ExchangeRate,
		ReportingEquivalent: base.ReportingEquivalent,
		TotalAmount:         normalized.Total,
		PaidAmount:          normalized.Paid,
		DueAmount:           normalized.Due,
		Status:              normalized.Status,
		PaymentTerms:        base.PaymentTerms,
		IssueDate:           occurrence,
		IsTemplate:          false,
		Notes:               base.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if days := invoicedomain.ParseTermsDays(base.PaymentTerms); days > 0 {
		dueDate := occurrence.AddDate(0, 0, days)
		clone.DueDate = &dueDate
	}
	return clone
}

// newExpenseFromBase clones a template expense. The expense date becomes
// the occurrence date so each generated expense has its own submission key.
func newExpenseFromBase(base expensedomain.Expense, id snowflake.ID, occurrence, now time.Time) expensedomain.Expense {
	normalized := money.Normalize(base.TotalAmount, 0)

	return expensedomain.Expense{
		ID:                  id,
		OwnerID:             base.OwnerID,
		Vendor:              base.Vendor,
		Category:            base.Category,
		Department:          base.Department,
		ExpenseDate:         occurrence,
		Currency:            base.Currency,
		ExchangeRate:        base.ExchangeRate,
		ReportingEquivalent: base.ReportingEquivalent,
		TotalAmount:         normalized.Total,
		PaidAmount:          normalized.Paid,
		DueAmount:           normalized.Due,
		Status:              normalized.Status,
		IsTemplate:          false,
		Notes:               base.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}
