package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ledgerline/internal/audit"
	"github.com/smallbiznis/ledgerline/internal/clock"
	"github.com/smallbiznis/ledgerline/internal/config"
	expensedomain "github.com/smallbiznis/ledgerline/internal/expense/domain"
	invoicedomain "github.com/smallbiznis/ledgerline/internal/invoice/domain"
	"github.com/smallbiznis/ledgerline/internal/invoice/numbering"
	"github.com/smallbiznis/ledgerline/internal/notification"
	"github.com/smallbiznis/ledgerline/internal/observability/metrics"
	"github.com/smallbiznis/ledgerline/internal/recurrence"
	"github.com/smallbiznis/ledgerline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Outcome values reported per schedule in a run.
const (
	OutcomeSuccess          = "success"
	OutcomeSkippedExpired   = "skipped:expired"
	OutcomeSkippedDuplicate = "skipped:already_generated"
	OutcomeFailedBase       = "failed:base_missing"
	OutcomeFailed           = "failed"
)

const numberRetries = 3

var (
	errAlreadyGenerated = errors.New("occurrence_already_generated")
)

// ScheduleResult reports what happened to one due schedule during a run.
type ScheduleResult struct {
	ScheduleID snowflake.ID `json:"schedule_id"`
	Outcome    string       `json:"outcome"`
	Detail     string       `json:"detail,omitempty"`
	DocumentID snowflake.ID `json:"document_id,omitempty"`
}

// Result summarizes one generation run.
type Result struct {
	Processed int              `json:"processed"`
	Schedules []ScheduleResult `json:"schedules"`
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Cfg      config.Config
	Clock    clock.Clock
	Notifier notification.Notifier
	Metrics  *metrics.Metrics `optional:"true"`
	AuditSvc audit.Service    `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	notifier      notification.Notifier
	metrics       *metrics.Metrics
	auditSvc      audit.Service
	invoicePrefix string
	expensePrefix string
}

func NewService(p Params) *Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("generation.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		notifier:      p.Notifier,
		metrics:       p.Metrics,
		auditSvc:      p.AuditSvc,
		invoicePrefix: p.Cfg.InvoiceNumberPrefix,
		expensePrefix: p.Cfg.ExpenseNumberPrefix,
	}
}

// RunOnce processes every schedule due at ref. One schedule's failure never
// blocks the rest; failures come back joined in the returned error and
// itemized in the result. A zero ref means "now".
func (s *Service) RunOnce(ctx context.Context, ref time.Time) (Result, error) {
	if ref.IsZero() {
		ref = s.clock.Now()
	}
	ref = recurrence.StartOfDay(ref)
	s.metrics.RecordGenerationRun(ctx)

	var due []recurrence.Schedule
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND next_occurrence <= ?", true, ref).
		Order("next_occurrence ASC").
		Find(&due).Error
	if err != nil {
		return Result{}, fmt.Errorf("load due schedules: %w", err)
	}

	result := Result{Schedules: make([]ScheduleResult, 0, len(due))}
	var errs error
	for _, schedule := range due {
		item := s.processSchedule(ctx, ref, schedule)
		result.Processed++
		result.Schedules = append(result.Schedules, item)
		s.metrics.RecordGenerationOutcome(ctx, string(schedule.DocumentKind), item.Outcome)
		if item.Outcome == OutcomeFailed || item.Outcome == OutcomeFailedBase {
			errs = errors.Join(errs, fmt.Errorf("schedule %s: %s", schedule.ID, item.Detail))
		}
	}

	s.log.Info("generation run complete",
		zap.Time("ref", ref),
		zap.Int("processed", result.Processed),
	)
	return result, errs
}

func (s *Service) processSchedule(ctx context.Context, ref time.Time, schedule recurrence.Schedule) ScheduleResult {
	item := ScheduleResult{ScheduleID: schedule.ID}

	if schedule.Expired(ref) {
		if err := s.deactivate(ctx, schedule); err != nil {
			item.Outcome = OutcomeFailed
			item.Detail = err.Error()
			return item
		}
		item.Outcome = OutcomeSkippedExpired
		return item
	}

	occurrence := recurrence.StartOfDay(schedule.NextOccurrence)
	now := s.clock.Now()
	docID := s.genID.Generate()
	var generated invoicedomain.Invoice
	notify := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		guard := Occurrence{
			ID:             s.genID.Generate(),
			ScheduleID:     schedule.ID,
			OccurrenceDate: occurrence,
			DocumentKind:   schedule.DocumentKind,
			DocumentID:     docID,
			CreatedAt:      now,
		}
		res := tx.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&guard)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAlreadyGenerated
		}

		switch schedule.DocumentKind {
		case recurrence.DocumentKindInvoice:
			invoice, err := s.generateInvoice(ctx, tx, schedule, docID, occurrence, now)
			if err != nil {
				return err
			}
			generated = invoice
			notify = true
		case recurrence.DocumentKindExpense:
			if err := s.generateExpense(ctx, tx, schedule, docID, occurrence, now); err != nil {
				return err
			}
		default:
			return recurrence.ErrInvalidDocumentKind
		}

		return s.advance(ctx, tx, &schedule, occurrence, now)
	})

	switch {
	case errors.Is(err, errAlreadyGenerated):
		item.Outcome = OutcomeSkippedDuplicate
		return item
	case errors.Is(err, recurrence.ErrBaseDocumentMissing):
		item.Outcome = OutcomeFailedBase
		item.Detail = err.Error()
		return item
	case err != nil:
		item.Outcome = OutcomeFailed
		item.Detail = err.Error()
		return item
	}

	item.Outcome = OutcomeSuccess
	item.DocumentID = docID

	if s.auditSvc != nil {
		_ = s.auditSvc.Record(ctx, audit.Event{
			OwnerID:    schedule.OwnerID,
			ActorType:  audit.ActorTypeSystem,
			Action:     "document.generated",
			TargetType: string(schedule.DocumentKind),
			TargetID:   docID.String(),
			Metadata: map[string]any{
				"schedule_id":     schedule.ID.String(),
				"occurrence_date": occurrence.Format("2006-01-02"),
			},
		})
	}

	if notify {
		if err := s.notify(ctx, generated); err != nil {
			item.Detail = fmt.Sprintf("notify_failed: %v", err)
		}
	}
	return item
}

func (s *Service) generateInvoice(ctx context.Context, tx *gorm.DB, schedule recurrence.Schedule, docID snowflake.ID, occurrence, now time.Time) (invoicedomain.Invoice, error) {
	var base invoicedomain.Invoice
	err := tx.WithContext(ctx).
		Where("id = ? AND owner_id = ?", schedule.BaseDocumentID, schedule.OwnerID).
		First(&base).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invoicedomain.Invoice{}, recurrence.ErrBaseDocumentMissing
	}
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	invoice := newInvoiceFromBase(base, docID, occurrence, now)

	var lastErr error
	for attempt := 0; attempt < numberRetries; attempt++ {
		counter, err := s.nextCounter(ctx, tx, "invoices", invoice.OwnerID, occurrence.Year())
		if err != nil {
			return invoicedomain.Invoice{}, err
		}
		invoice.Sequence = counter
		invoice.SequenceYear = occurrence.Year()
		invoice.Number = numbering.Format(s.invoicePrefix, occurrence.Year(), counter)

		lastErr = tx.WithContext(ctx).Create(&invoice).Error
		if lastErr == nil {
			return invoice, nil
		}
		if !db.IsDuplicateKeyErr(lastErr) {
			return invoicedomain.Invoice{}, lastErr
		}
	}
	return invoicedomain.Invoice{}, lastErr
}

func (s *Service) generateExpense(ctx context.Context, tx *gorm.DB, schedule recurrence.Schedule, docID snowflake.ID, occurrence, now time.Time) error {
	var base expensedomain.Expense
	err := tx.WithContext(ctx).
		Where("id = ? AND owner_id = ?", schedule.BaseDocumentID, schedule.OwnerID).
		First(&base).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return recurrence.ErrBaseDocumentMissing
	}
	if err != nil {
		return err
	}

	expense := newExpenseFromBase(base, docID, occurrence, now)

	var lastErr error
	for attempt := 0; attempt < numberRetries; attempt++ {
		counter, err := s.nextCounter(ctx, tx, "expenses", expense.OwnerID, occurrence.Year())
		if err != nil {
			return err
		}
		expense.Sequence = counter
		expense.SequenceYear = occurrence.Year()
		expense.Number = numbering.Format(s.expensePrefix, occurrence.Year(), counter)

		lastErr = tx.WithContext(ctx).Create(&expense).Error
		if lastErr == nil {
			return nil
		}
		if !db.IsDuplicateKeyErr(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// advance moves the schedule to its next occurrence. When the new date
// falls past the end date the schedule deactivates instead of leaving a
// tick that can never fire.
func (s *Service) advance(ctx context.Context, tx *gorm.DB, schedule *recurrence.Schedule, occurrence, now time.Time) error {
	next := recurrence.AddInterval(occurrence, schedule.Frequency)
	schedule.LastOccurrence = &occurrence
	schedule.NextOccurrence = next
	schedule.UpdatedAt = now
	if schedule.Expired(next) {
		schedule.IsActive = false
	}
	return tx.WithContext(ctx).Save(schedule).Error
}

func (s *Service) deactivate(ctx context.Context, schedule recurrence.Schedule) error {
	err := s.db.WithContext(ctx).
		Model(&recurrence.Schedule{}).
		Where("id = ?", schedule.ID).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": s.clock.Now(),
		}).Error
	if err != nil {
		return err
	}

	s.log.Info("schedule expired",
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("document_kind", string(schedule.DocumentKind)),
	)
	if s.auditSvc != nil {
		_ = s.auditSvc.Record(ctx, audit.Event{
			OwnerID:    schedule.OwnerID,
			ActorType:  audit.ActorTypeSystem,
			Action:     "schedule.expired",
			TargetType: "schedule",
			TargetID:   schedule.ID.String(),
		})
	}
	return nil
}

// notify delivers the generated invoice after commit. The returned error is
// informational only — it surfaces in the result detail and is never fatal:
// the document already exists.
func (s *Service) notify(ctx context.Context, invoice invoicedomain.Invoice) error {
	if err := s.notifier.NotifyInvoice(ctx, invoice); err != nil {
		s.metrics.RecordNotifyFailure(ctx)
		s.log.Warn("invoice notification failed",
			zap.String("number", invoice.Number),
			zap.Error(err),
		)
		return err
	}

	now := s.clock.Now()
	err := s.db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("id = ?", invoice.ID).
		Update("notified_at", now).Error
	if err != nil {
		s.log.Warn("failed to record notification time",
			zap.String("number", invoice.Number),
			zap.Error(err),
		)
	}
	return nil
}

func (s *Service) nextCounter(ctx context.Context, tx *gorm.DB, table string, ownerID snowflake.ID, year int) (int64, error) {
	var next int64
	err := tx.WithContext(ctx).Raw(
		fmt.Sprintf(`SELECT COALESCE(MAX(sequence), 0) + 1 FROM %s WHERE owner_id = ? AND sequence_year = ?`, table),
		ownerID,
		year,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}
