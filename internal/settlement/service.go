// Package settlement performs the atomic paid-status transition: the
// invoice update and its derived revenue/payment upserts commit together
// or not at all.
package settlement

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/ledgerline/internal/audit"
	"github.com/smallbiznis/ledgerline/internal/clock"
	invoicedomain "github.com/smallbiznis/ledgerline/internal/invoice/domain"
	"github.com/smallbiznis/ledgerline/internal/money"
	revenuedomain "github.com/smallbiznis/ledgerline/internal/revenue/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrInvalidTransition rejects downgrading a PAID invoice. Reopening a
	// paid invoice is a distinct operation, not a transition.
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrInvalidStatus     = errors.New("invalid_status")
)

// PaymentInput carries the optional payment details accompanying a
// transition.
type PaymentInput struct {
	Method    string
	Reference string
	PaidOn    time.Time
	Notes     string
}

// TransitionRequest describes one status transition.
type TransitionRequest struct {
	OwnerID        snowflake.ID
	InvoiceID      snowflake.ID
	TargetStatus   *money.Status
	ReceivedAmount *float64
	Payment        *PaymentInput
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Converter *money.Converter
	Clock     clock.Clock
	AuditSvc  audit.Service `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	converter *money.Converter
	clock     clock.Clock
	auditSvc  audit.Service
}

func NewService(p Params) *Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("settlement.service"),
		genID:     p.GenID,
		converter: p.Converter,
		clock:     p.Clock,
		auditSvc:  p.AuditSvc,
	}
}

// Transition moves an invoice to a new payment status and keeps its
// derived records consistent, all inside a single transaction.
func (s *Service) Transition(ctx context.Context, req TransitionRequest) (invoicedomain.Invoice, error) {
	if req.TargetStatus != nil {
		if _, err := parseStatus(string(*req.TargetStatus)); err != nil {
			return invoicedomain.Invoice{}, err
		}
	}

	var result invoicedomain.Invoice
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

		paid := invoice.PaidAmount
		if req.ReceivedAmount != nil {
			paid = *req.ReceivedAmount
		}
		// An explicit PAID target without an amount settles in full.
		if req.TargetStatus != nil && *req.TargetStatus == money.StatusPaid && req.ReceivedAmount == nil {
			paid = invoice.TotalAmount
		}

		normalized := money.Resolve(invoice.Status, invoice.TotalAmount, paid)
		status := normalized.Status
		if req.TargetStatus != nil {
			status = *req.TargetStatus
		}

		// PAID is terminal here whether the downgrade is requested
		// explicitly or derived from a lower received amount.
		if invoice.Status == money.StatusPaid && status != money.StatusPaid {
			return ErrInvalidTransition
		}

		now := s.clock.Now()
		invoice.TotalAmount = normalized.Total
		invoice.PaidAmount = normalized.Paid
		invoice.DueAmount = normalized.Due
		invoice.Status = status
		invoice.UpdatedAt = now

		if status == money.StatusPaid {
			if err := s.upsertRevenueEntry(ctx, tx, &invoice, now); err != nil {
				return err
			}
			if req.Payment != nil {
				if err := s.upsertPaymentRecord(ctx, tx, &invoice, *req.Payment, now); err != nil {
					return err
				}
			}
		}

		if err := tx.WithContext(ctx).Save(&invoice).Error; err != nil {
			return err
		}
		result = invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	if result.Status == money.StatusPaid && s.auditSvc != nil {
		_ = s.auditSvc.Record(ctx, audit.Event{
			OwnerID:    result.OwnerID,
			ActorType:  audit.ActorTypeUser,
			Action:     "invoice.paid",
			TargetType: "invoice",
			TargetID:   result.ID.String(),
			Metadata: map[string]any{
				"number":      result.Number,
				"paid_amount": result.PaidAmount,
				"currency":    result.Currency,
			},
		})
	}
	return result, nil
}

// upsertRevenueEntry updates the row the invoice's back-reference points
// at, creating it (and storing the back-reference) on first payment.
func (s *Service) upsertRevenueEntry(ctx context.Context, tx *gorm.DB, invoice *invoicedomain.Invoice, now time.Time) error {
	amount := s.converter.ToReporting(invoice.PaidAmount, invoice.Currency, invoice.Hint())

	if invoice.RevenueEntryID != nil {
		return tx.WithContext(ctx).
			Model(&revenuedomain.RevenueEntry{}).
			Where("id = ?", *invoice.RevenueEntryID).
			Updates(map[string]any{
				"amount":      amount,
				"currency":    s.converter.ReportingCurrency(),
				"received_on": now,
				"updated_at":  now,
			}).Error
	}

	entry := revenuedomain.RevenueEntry{
		ID:         s.genID.Generate(),
		OwnerID:    invoice.OwnerID,
		InvoiceID:  invoice.ID,
		Amount:     amount,
		Currency:   s.converter.ReportingCurrency(),
		Source:     "invoice",
		ReceivedOn: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}
	invoice.RevenueEntryID = &entry.ID
	return nil
}

func (s *Service) upsertPaymentRecord(ctx context.Context, tx *gorm.DB, invoice *invoicedomain.Invoice, input PaymentInput, now time.Time) error {
	amount := s.converter.ToReporting(invoice.PaidAmount, invoice.Currency, invoice.Hint())

	paidOn := input.PaidOn
	if paidOn.IsZero() {
		paidOn = now
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		reference = uuid.NewString()
	}

	if invoice.PaymentRecordID != nil {
		return tx.WithContext(ctx).
			Model(&revenuedomain.PaymentRecord{}).
			Where("id = ?", *invoice.PaymentRecordID).
			Updates(map[string]any{
				"amount":     amount,
				"currency":   s.converter.ReportingCurrency(),
				"method":     strings.TrimSpace(input.Method),
				"paid_on":    paidOn,
				"notes":      input.Notes,
				"updated_at": now,
			}).Error
	}

	record := revenuedomain.PaymentRecord{
		ID:        s.genID.Generate(),
		OwnerID:   invoice.OwnerID,
		InvoiceID: invoice.ID,
		Amount:    amount,
		Currency:  s.converter.ReportingCurrency(),
		Method:    strings.TrimSpace(input.Method),
		Reference: reference,
		PaidOn:    paidOn,
		Notes:     input.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}
	invoice.PaymentRecordID = &record.ID
	return nil
}

func parseStatus(raw string) (money.Status, error) {
	switch money.Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case money.StatusUnpaid:
		return money.StatusUnpaid, nil
	case money.StatusPartial:
		return money.StatusPartial, nil
	case money.StatusPaid:
		return money.StatusPaid, nil
	case money.StatusCancel:
		return money.StatusCancel, nil
	default:
		return "", ErrInvalidStatus
	}
}

// ParseStatus validates a raw status value from the API boundary.
func ParseStatus(raw string) (money.Status, error) { return parseStatus(raw) }

// Module wires the settlement service.
var Module = fx.Module("settlement.service",
	fx.Provide(NewService),
)
