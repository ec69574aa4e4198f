package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ledgerline/internal/config"
	invoicedomain "github.com/smallbiznis/ledgerline/internal/invoice/domain"
	"github.com/smallbiznis/ledgerline/internal/invoice/numbering"
	"github.com/smallbiznis/ledgerline/internal/money"
	"github.com/smallbiznis/ledgerline/internal/recurrence"
	"github.com/smallbiznis/ledgerline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// numberRetries bounds the duplicate-key retry loop when two writers race
// for the same counter.
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

func NewService(p Params) invoicedomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("invoice.service"),
		genID:  p.GenID,
		prefix: p.Cfg.InvoiceNumberPrefix,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return invoicedomain.Invoice{}, invoicedomain.ErrMissingCustomer
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		return invoicedomain.Invoice{}, invoicedomain.ErrMissingCurrency
	}

	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = time.Now().UTC()
	}
	issueDate = recurrence.StartOfDay(issueDate)

	normalized := money.Normalize(req.TotalAmount, req.PaidAmount)
	now := time.Now().UTC()

	invoice := invoicedomain.Invoice{
		ID:                  s.genID.Generate(),
		OwnerID:             req.OwnerID,
		CustomerName:        strings.TrimSpace(req.CustomerName),
		CustomerEmail:       strings.TrimSpace(req.CustomerEmail),
		Currency:            currency,
		ExchangeRate:        req.ExchangeRate,
		ReportingEquivalent: req.ReportingEquivalent,
		TotalAmount:         normalized.Total,
		PaidAmount:          normalized.Paid,
		DueAmount:           normalized.Due,
		Status:              normalized.Status,
		PaymentTerms:        strings.TrimSpace(req.PaymentTerms),
		IssueDate:           issueDate,
		IsTemplate:          req.IsTemplate,
		Notes:               req.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if days := invoicedomain.ParseTermsDays(invoice.PaymentTerms); days > 0 {
		dueDate := issueDate.AddDate(0, 0, days)
		invoice.DueDate = &dueDate
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lastErr error
		for attempt := 0; attempt < numberRetries; attempt++ {
			counter, err := s.nextCounter(ctx, tx, invoice.OwnerID, issueDate.Year())
			if err != nil {
				return err
			}
			invoice.Sequence = counter
			invoice.SequenceYear = issueDate.Year()
			invoice.Number = numbering.Format(s.prefix, issueDate.Year(), counter)

			lastErr = tx.WithContext(ctx).Create(&invoice).Error
			if lastErr == nil {
				return nil
			}
			if !db.IsDuplicateKeyErr(lastErr) {
				return lastErr
			}
		}
		return lastErr
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return invoice, nil
}

func (s *Service) GetByID(ctx context.Context, ownerID, id snowflake.ID) (invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
	}
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return invoice, nil
}

func (s *Service) List(ctx context.Context, ownerID snowflake.ID) ([]invoicedomain.Invoice, error) {
	var invoices []invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// UpdateAmounts rewrites an invoice's totals; the status is re-derived
// through the shared normalizer so no caller can bypass the thresholds.
func (s *Service) UpdateAmounts(ctx context.Context, req invoicedomain.UpdateAmountsRequest) (invoicedomain.Invoice, error) {
	var updated invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice invoicedomain.Invoice
		err := tx.WithContext(ctx).
			Where("id = ? AND owner_id = ?", req.InvoiceID, req.OwnerID).
			First(&invoice).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invoicedomain.ErrInvoiceNotFound
		}
		if err != nil {
			return err
		}

		total := invoice.TotalAmount
		if req.TotalAmount != nil {
			total = *req.TotalAmount
		}
		paid := invoice.PaidAmount
		if req.PaidAmount != nil {
			paid = *req.PaidAmount
		}

		normalized := money.Resolve(invoice.Status, total, paid)
		invoice.TotalAmount = normalized.Total
		invoice.PaidAmount = normalized.Paid
		invoice.DueAmount = normalized.Due
		invoice.Status = normalized.Status
		invoice.UpdatedAt = time.Now().UTC()

		if err := tx.WithContext(ctx).Save(&invoice).Error; err != nil {
			return err
		}
		updated = invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return updated, nil
}

func (s *Service) Cancel(ctx context.Context, ownerID, id snowflake.ID) (invoicedomain.Invoice, error) {
	invoice, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	invoice.Status = money.StatusCancel
	invoice.UpdatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Save(&invoice).Error; err != nil {
		return invoicedomain.Invoice{}, err
	}
	return invoice, nil
}

// Delete removes an invoice and cascades to any schedules using it as a
// base document.
func (s *Service) Delete(ctx context.Context, ownerID, id snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).
			Where("id = ? AND owner_id = ?", id, ownerID).
			Delete(&invoicedomain.Invoice{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return invoicedomain.ErrInvoiceNotFound
		}
		return tx.WithContext(ctx).
			Where("document_kind = ? AND base_document_id = ?", recurrence.DocumentKindInvoice, id).
			Delete(&recurrence.Schedule{}).Error
	})
}

func (s *Service) nextCounter(ctx context.Context, tx *gorm.DB, ownerID snowflake.ID, year int) (int64, error) {
	var next int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(sequence), 0) + 1
		 FROM invoices
		 WHERE owner_id = ? AND sequence_year = ?`,
		ownerID,
		year,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}
