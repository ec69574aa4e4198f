package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ledgerline/internal/config"
	expensedomain "github.com/smallbiznis/ledgerline/internal/expense/domain"
	"github.com/smallbiznis/ledgerline/internal/money"
	"github.com/smallbiznis/ledgerline/internal/recurrence"
	dbpkg "github.com/smallbiznis/ledgerline/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (expensedomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	if err := db.AutoMigrate(&expensedomain.Expense{}, &recurrence.Schedule{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create id generator: %v", err)
	}

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Cfg:   config.Config{ExpenseNumberPrefix: "EXP"},
	})
	return svc, db, node
}

func TestCreateClampsOverpayment(t *testing.T) {
	svc, _, node := newTestService(t)

	expense, err := svc.Create(context.Background(), expensedomain.CreateExpenseRequest{
		OwnerID:     node.Generate(),
		Vendor:      "CloudHost",
		Category:    "Hosting",
		Currency:    "INR",
		TotalAmount: 500,
		PaidAmount:  750,
		ExpenseDate: time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if expense.PaidAmount != 500 {
		t.Fatalf("expected paid clamped to 500, got %v", expense.PaidAmount)
	}
	if expense.DueAmount != 0 {
		t.Fatalf("expected due 0, got %v", expense.DueAmount)
	}
	if expense.Status != money.StatusPaid {
		t.Fatalf("expected PAID, got %s", expense.Status)
	}
	if expense.Number != "EXP202600001" {
		t.Fatalf("expected number EXP202600001, got %s", expense.Number)
	}
	wantDate := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	if !expense.ExpenseDate.Equal(wantDate) {
		t.Fatalf("expected date normalized to %v, got %v", wantDate, expense.ExpenseDate)
	}
}

func TestCreateDuplicateSubmissionReturnsExisting(t *testing.T) {
	svc, db, node := newTestService(t)

	req := expensedomain.CreateExpenseRequest{
		OwnerID:     node.Generate(),
		Vendor:      "CloudHost",
		Category:    "Hosting",
		Department:  "Engineering",
		Currency:    "INR",
		TotalAmount: 250,
		ExpenseDate: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
	}

	first, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	second, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected duplicate submission to resolve to the existing expense")
	}

	var count int64
	if err := db.Model(&expensedomain.Expense{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 expense, got %d", count)
	}
}

func TestExpenseNumberUniquePerOwner(t *testing.T) {
	svc, db, node := newTestService(t)

	expense, err := svc.Create(context.Background(), expensedomain.CreateExpenseRequest{
		OwnerID:     node.Generate(),
		Vendor:      "CloudHost",
		Category:    "Hosting",
		Currency:    "INR",
		TotalAmount: 250,
		ExpenseDate: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A racing writer minting the same number must collide on the unique
	// index so the counter retry can see it.
	clash := expensedomain.Expense{
		ID:           node.Generate(),
		OwnerID:      expense.OwnerID,
		Number:       expense.Number,
		Sequence:     expense.Sequence,
		SequenceYear: expense.SequenceYear,
		Vendor:       "OtherVendor",
		Category:     "Other",
		ExpenseDate:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Currency:     "INR",
		TotalAmount:  10,
		DueAmount:    10,
		Status:       money.StatusUnpaid,
		CreatedAt:    expense.CreatedAt,
		UpdatedAt:    expense.UpdatedAt,
	}
	err = db.Create(&clash).Error
	if !dbpkg.IsDuplicateKeyErr(err) {
		t.Fatalf("expected a duplicate key error, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, node := newTestService(t)

	_, err := svc.Create(context.Background(), expensedomain.CreateExpenseRequest{
		OwnerID:  node.Generate(),
		Category: "Hosting",
		Currency: "INR",
	})
	if !errors.Is(err, expensedomain.ErrMissingVendor) {
		t.Fatalf("expected ErrMissingVendor, got %v", err)
	}

	_, err = svc.Create(context.Background(), expensedomain.CreateExpenseRequest{
		OwnerID: node.Generate(),
		Vendor:  "CloudHost",
	})
	if !errors.Is(err, expensedomain.ErrMissingCategory) {
		t.Fatalf("expected ErrMissingCategory, got %v", err)
	}
}

func TestUpdateAmountsKeepsCancelSticky(t *testing.T) {
	svc, db, node := newTestService(t)

	expense, err := svc.Create(context.Background(), expensedomain.CreateExpenseRequest{
		OwnerID:     node.Generate(),
		Vendor:      "CloudHost",
		Category:    "Hosting",
		Currency:    "INR",
		TotalAmount: 300,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := db.Model(&expensedomain.Expense{}).
		Where("id = ?", expense.ID).
		Update("status", money.StatusCancel).Error; err != nil {
		t.Fatalf("failed to cancel expense: %v", err)
	}

	paid := 300.0
	updated, err := svc.UpdateAmounts(context.Background(), expensedomain.UpdateAmountsRequest{
		OwnerID:    expense.OwnerID,
		ExpenseID:  expense.ID,
		PaidAmount: &paid,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != money.StatusCancel {
		t.Fatalf("expected CANCEL to stay sticky, got %s", updated.Status)
	}
}

func TestDeleteCascadesSchedules(t *testing.T) {
	svc, db, node := newTestService(t)

	expense, err := svc.Create(context.Background(), expensedomain.CreateExpenseRequest{
		OwnerID:     node.Generate(),
		Vendor:      "CloudHost",
		Category:    "Hosting",
		Currency:    "INR",
		TotalAmount: 100,
		IsTemplate:  true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	schedule := recurrence.Schedule{
		ID:             node.Generate(),
		OwnerID:        expense.OwnerID,
		DocumentKind:   recurrence.DocumentKindExpense,
		BaseDocumentID: expense.ID,
		Frequency:      recurrence.FrequencyMonth,
		StartOn:        start,
		NeverExpires:   true,
		NextOccurrence: start.AddDate(0, 1, 0),
		IsActive:       true,
		CreatedAt:      start,
		UpdatedAt:      start,
	}
	if err := db.Create(&schedule).Error; err != nil {
		t.Fatalf("failed to seed schedule: %v", err)
	}

	if err := svc.Delete(context.Background(), expense.OwnerID, expense.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var count int64
	if err := db.Model(&recurrence.Schedule{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected schedules to cascade, got %d", count)
	}
}
