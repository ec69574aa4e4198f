package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ledgerline/internal/clock"
	invoicedomain "github.com/smallbiznis/ledgerline/internal/invoice/domain"
	"github.com/smallbiznis/ledgerline/internal/money"
	revenuedomain "github.com/smallbiznis/ledgerline/internal/revenue/domain"
	dbpkg "github.com/smallbiznis/ledgerline/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	if err := db.AutoMigrate(
		&invoicedomain.Invoice{},
		&revenuedomain.RevenueEntry{},
		&revenuedomain.PaymentRecord{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create id generator: %v", err)
	}

	svc := NewService(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Converter: money.NewConverter(money.DefaultRateTable()),
		Clock:     clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)),
	})
	return svc, db, node
}

func seedInvoice(t *testing.T, db *gorm.DB, node *snowflake.Node, mutate func(*invoicedomain.Invoice)) invoicedomain.Invoice {
	t.Helper()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	invoice := invoicedomain.Invoice{
		ID:           node.Generate(),
		OwnerID:      node.Generate(),
		Number:       "INV202600001",
		Sequence:     1,
		SequenceYear: 2026,
		CustomerName: "Acme Pty",
		Currency:     "INR",
		TotalAmount:  1000,
		DueAmount:    1000,
		Status:       money.StatusUnpaid,
		IssueDate:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if mutate != nil {
		mutate(&invoice)
	}
	if err := db.Create(&invoice).Error; err != nil {
		t.Fatalf("failed to seed invoice: %v", err)
	}
	return invoice
}

func floatPtr(v float64) *float64 { return &v }

func statusPtr(s money.Status) *money.Status { return &s }

func TestTransitionPartialPayment(t *testing.T) {
	svc, db, node := newTestService(t)
	invoice := seedInvoice(t, db, node, nil)

	got, err := svc.Transition(context.Background(), TransitionRequest{
		OwnerID:        invoice.OwnerID,
		InvoiceID:      invoice.ID,
		ReceivedAmount: floatPtr(400),
	})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if got.Status != money.StatusPartial {
		t.Fatalf("expected PARTIAL, got %s", got.Status)
	}
	if got.DueAmount != 600 {
		t.Fatalf("expected due 600, got %v", got.DueAmount)
	}
	if got.RevenueEntryID != nil {
		t.Fatalf("partial payment must not create a revenue entry")
	}
}

func TestTransitionPaidCreatesDerivedRecords(t *testing.T) {
	svc, db, node := newTestService(t)
	invoice := seedInvoice(t, db, node, func(inv *invoicedomain.Invoice) {
		inv.Currency = "USD"
	})

	got, err := svc.Transition(context.Background(), TransitionRequest{
		OwnerID:        invoice.OwnerID,
		InvoiceID:      invoice.ID,
		ReceivedAmount: floatPtr(1000),
		Payment:        &PaymentInput{Method: "bank_transfer"},
	})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if got.Status != money.StatusPaid {
		t.Fatalf("expected PAID, got %s", got.Status)
	}
	if got.RevenueEntryID == nil || got.PaymentRecordID == nil {
		t.Fatalf("expected back-references to derived records")
	}

	var entry revenuedomain.RevenueEntry
	if err := db.First(&entry, "id = ?", *got.RevenueEntryID).Error; err != nil {
		t.Fatalf("failed to load revenue entry: %v", err)
	}
	// USD falls back to the static default table: 1000 * 83.
	if entry.Amount != 83000 {
		t.Fatalf("expected converted amount 83000, got %v", entry.Amount)
	}
	if entry.Currency != "INR" {
		t.Fatalf("expected reporting currency INR, got %s", entry.Currency)
	}

	var record revenuedomain.PaymentRecord
	if err := db.First(&record, "id = ?", *got.PaymentRecordID).Error; err != nil {
		t.Fatalf("failed to load payment record: %v", err)
	}
	if record.Method != "bank_transfer" {
		t.Fatalf("expected method bank_transfer, got %s", record.Method)
	}
	if record.Reference == "" {
		t.Fatalf("expected a generated reference")
	}
}

func TestTransitionRepeatedPaidReusesRecords(t *testing.T) {
	svc, db, node := newTestService(t)
	invoice := seedInvoice(t, db, node, nil)

	first, err := svc.Transition(context.Background(), TransitionRequest{
		OwnerID:      invoice.OwnerID,
		InvoiceID:    invoice.ID,
		TargetStatus: statusPtr(money.StatusPaid),
		Payment:      &PaymentInput{Method: "cash"},
	})
	if err != nil {
		t.Fatalf("first transition failed: %v", err)
	}

	second, err := svc.Transition(context.Background(), TransitionRequest{
		OwnerID:      invoice.OwnerID,
		InvoiceID:    invoice.ID,
		TargetStatus: statusPtr(money.StatusPaid),
		Payment:      &PaymentInput{Method: "cash"},
	})
	if err != nil {
		t.Fatalf("second transition failed: %v", err)
	}

	if *first.RevenueEntryID != *second.RevenueEntryID {
		t.Fatalf("expected the same revenue entry to be reused")
	}

	var entryCount, recordCount int64
	if err := db.Model(&revenuedomain.RevenueEntry{}).Count(&entryCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if err := db.Model(&revenuedomain.PaymentRecord{}).Count(&recordCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if entryCount != 1 || recordCount != 1 {
		t.Fatalf("expected 1 entry and 1 record, got %d and %d", entryCount, recordCount)
	}
}

func TestTransitionPaidWithoutAmountSettlesInFull(t *testing.T) {
	svc, db, node := newTestService(t)
	invoice := seedInvoice(t, db, node, nil)

	got, err := svc.Transition(context.Background(), TransitionRequest{
		OwnerID:      invoice.OwnerID,
		InvoiceID:    invoice.ID,
		TargetStatus: statusPtr(money.StatusPaid),
	})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if got.PaidAmount != invoice.TotalAmount {
		t.Fatalf("expected paid %v, got %v", invoice.TotalAmount, got.PaidAmount)
	}
	if got.DueAmount != 0 {
		t.Fatalf("expected due 0, got %v", got.DueAmount)
	}
}

func TestTransitionRejectsPaidDowngrade(t *testing.T) {
	svc, db, node := newTestService(t)
	invoice := seedInvoice(t, db, node, func(inv *invoicedomain.Invoice) {
		inv.PaidAmount = 1000
		inv.DueAmount = 0
		inv.Status = money.StatusPaid
	})

	_, err := svc.Transition(context.Background(), TransitionRequest{
		OwnerID:      invoice.OwnerID,
		InvoiceID:    invoice.ID,
		TargetStatus: statusPtr(money.StatusUnpaid),
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTransitionRejectsDerivedPaidDowngrade(t *testing.T) {
	svc, db, node := newTestService(t)
	invoice := seedInvoice(t, db, node, func(inv *invoicedomain.Invoice) {
		inv.PaidAmount = 1000
		inv.DueAmount = 0
		inv.Status = money.StatusPaid
	})

	// A lower amount with no explicit target would derive PARTIAL.
	_, err := svc.Transition(context.Background(), TransitionRequest{
		OwnerID:        invoice.OwnerID,
		InvoiceID:      invoice.ID,
		ReceivedAmount: floatPtr(100),
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	var reloaded invoicedomain.Invoice
	if err := db.First(&reloaded, "id = ?", invoice.ID).Error; err != nil {
		t.Fatalf("failed to reload invoice: %v", err)
	}
	if reloaded.Status != money.StatusPaid || reloaded.PaidAmount != 1000 {
		t.Fatalf("expected invoice untouched, got status %s paid %v", reloaded.Status, reloaded.PaidAmount)
	}
}

func TestTransitionNotFound(t *testing.T) {
	svc, _, node := newTestService(t)

	_, err := svc.Transition(context.Background(), TransitionRequest{
		OwnerID:   node.Generate(),
		InvoiceID: node.Generate(),
	})
	if !errors.Is(err, invoicedomain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func TestTransitionRollsBackOnDerivedFailure(t *testing.T) {
	svc, db, node := newTestService(t)
	invoice := seedInvoice(t, db, node, nil)

	// Make the revenue insert fail mid-transaction.
	if err := db.Migrator().DropTable(&revenuedomain.RevenueEntry{}); err != nil {
		t.Fatalf("failed to drop table: %v", err)
	}

	_, err := svc.Transition(context.Background(), TransitionRequest{
		OwnerID:      invoice.OwnerID,
		InvoiceID:    invoice.ID,
		TargetStatus: statusPtr(money.StatusPaid),
	})
	if err == nil {
		t.Fatalf("expected the transition to fail")
	}

	var reloaded invoicedomain.Invoice
	if err := db.First(&reloaded, "id = ?", invoice.ID).Error; err != nil {
		t.Fatalf("failed to reload invoice: %v", err)
	}
	if reloaded.Status != money.StatusUnpaid {
		t.Fatalf("expected the invoice to stay UNPAID, got %s", reloaded.Status)
	}
	if reloaded.PaidAmount != 0 {
		t.Fatalf("expected paid amount unchanged, got %v", reloaded.PaidAmount)
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	if _, err := ParseStatus("SETTLED"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if got, err := ParseStatus(" paid "); err != nil || got != money.StatusPaid {
		t.Fatalf("expected PAID, got %v %v", got, err)
	}
}
