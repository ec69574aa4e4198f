package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ledgerline/internal/config"
	expensedomain "github.com/smallbiznis/ledgerline/internal/expense/domain"
	"github.com/smallbiznis/ledgerline/internal/invoice/numbering"
	"github.com/smallbiznis/ledgerline/internal/money"
	"github.com/smallbiznis/ledgerline/internal/recurrence"
	"github.com/smallbiznis/ledgerline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const numberRetries = 3

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Cfg   config.Config
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	prefix string
}

func NewService(p Params) expensedomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("expense.service"),
		genID:  p.GenID,
		prefix: p.Cfg.ExpenseNumberPrefix,
	}
}

func (s *Service) Create(ctx context.Context, req expensedomain.CreateExpenseRequest) (expensedomain.Expense, error) {
	if strings.TrimSpace(req.Vendor) == "" {
		return expensedomain.Expense{}, expensedomain.ErrMissingVendor
	}
	if strings.TrimSpace(req.Category) == "" {
		return expensedomain.Expense{}, expensedomain.ErrMissingCategory
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		return expensedomain.Expense{}, expensedomain.ErrMissingCurrency
	}

	expenseDate := req.ExpenseDate
	if expenseDate.IsZero() {
		expenseDate = time.Now().UTC()
	}
	expenseDate = recurrence.StartOfDay(expenseDate)

	normalized := money.Normalize(req.TotalAmount, req.PaidAmount)
	now := time.Now().UTC()

	expense := expensedomain.Expense{
		ID:                  s.genID.Generate(),
		OwnerID:             req.OwnerID,
		Vendor:              strings.TrimSpace(req.Vendor),
		Category:            strings.TrimSpace(req.Category),
		Department:          strings.TrimSpace(req.Department),
		ExpenseDate:         expenseDate,
		Currency:            currency,
		ExchangeRate:        req.ExchangeRate,
		ReportingEquivalent: req.ReportingEquivalent,
		TotalAmount:         normalized.Total,
		PaidAmount:          normalized.Paid,
		DueAmount:           normalized.Due,
		Status:              normalized.Status,
		IsTemplate:          req.IsTemplate,
		Notes:               req.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lastErr error
		for attempt := 0; attempt < numberRetries; attempt++ {
			counter, err := s.nextCounter(ctx, tx, expense.OwnerID, expenseDate.Year())
			if err != nil {
				return err
			}
			expense.Sequence = counter
			expense.SequenceYear = expenseDate.Year()
			expense.Number = numbering.Format(s.prefix, expenseDate.Year(), counter)

			lastErr = tx.WithContext(ctx).Create(&expense).Error
			if lastErr == nil {
				return nil
			}
			if !db.IsDuplicateKeyErr(lastErr) {
				return lastErr
			}
			// The submission key may have collided rather than the number;
			// resolve to the existing row if so.
			existing, found, err := s.findBySubmissionKey(ctx, tx, expense)
			if err != nil {
				return err
			}
			if found {
				expense = existing
				return nil
			}
		}
		return lastErr
	})
	if err != nil {
		return expensedomain.Expense{}, err
	}
	return expense, nil
}

func (s *Service) GetByID(ctx context.Context, ownerID, id snowflake.ID) (expensedomain.Expense, error) {
	var expense expensedomain.Expense
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&expense).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return expensedomain.Expense{}, expensedomain.ErrExpenseNotFound
	}
	if err != nil {
		return expensedomain.Expense{}, err
	}
	return expense, nil
}

func (s *Service) List(ctx context.Context, ownerID snowflake.ID) ([]expensedomain.Expense, error) {
	var expenses []expensedomain.Expense
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Service) UpdateAmounts(ctx context.Context, req expensedomain.UpdateAmountsRequest) (expensedomain.Expense, error) {
	var updated expensedomain.Expense
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var expense expensedomain.Expense
		err := tx.WithContext(ctx).
			Where("id = ? AND owner_id = ?", req.ExpenseID, req.OwnerID).
			First(&expense).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return expensedomain.ErrExpenseNotFound
		}
		if err != nil {
			return err
		}

		total := expense.TotalAmount
		if req.TotalAmount != nil {
			total = *req.TotalAmount
		}
		paid := expense.PaidAmount
		if req.PaidAmount != nil {
			paid = *req.PaidAmount
		}

		normalized := money.Resolve(expense.Status, total, paid)
		expense.TotalAmount = normalized.Total
		expense.PaidAmount = normalized.Paid
		expense.DueAmount = normalized.Due
		expense.Status = normalized.Status
		expense.UpdatedAt = time.Now().UTC()

		if err := tx.WithContext(ctx).Save(&expense).Error; err != nil {
			return err
		}
		updated = expense
		return nil
	})
	if err != nil {
		return expensedomain.Expense{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).
			Where("id = ? AND owner_id = ?", id, ownerID).
			Delete(&expensedomain.Expense{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return expensedomain.ErrExpenseNotFound
		}
		return tx.WithContext(ctx).
			Where("document_kind = ? AND base_document_id = ?", recurrence.DocumentKindExpense, id).
			Delete(&recurrence.Schedule{}).Error
	})
}

func (s *Service) findBySubmissionKey(ctx context.Context, tx *gorm.DB, probe expensedomain.Expense) (expensedomain.Expense, bool, error) {
	var existing expensedomain.Expense
	err := tx.WithContext(ctx).
		Where("owner_id = ? AND vendor = ? AND category = ? AND department = ? AND expense_date = ? AND total_amount = ?",
			probe.OwnerID, probe.Vendor, probe.Category, probe.Department, probe.ExpenseDate, probe.TotalAmount).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return expensedomain.Expense{}, false, nil
	}
	if err != nil {
		return expensedomain.Expense{}, false, err
	}
	return existing, true, nil
}

func (s *Service) nextCounter(ctx context.Context, tx *gorm.DB, ownerID snowflake.ID, year int) (int64, error) {
	var next int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(sequence), 0) + 1
		 FROM expenses
		 WHERE owner_id = ? AND sequence_year = ?`,
		ownerID,
		year,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}
