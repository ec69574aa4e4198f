package recurrence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ledgerline/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrScheduleNotFound    = errors.New("schedule_not_found")
	ErrBaseDocumentMissing = errors.New("base_document_missing")
	ErrExpiryConflict      = errors.New("ends_on_and_never_expires_are_mutually_exclusive")
	ErrMissingExpiry       = errors.New("either_ends_on_or_never_expires_is_required")
	ErrMissingStartOn      = errors.New("start_on_is_required")
	ErrInvalidDocumentKind = errors.New("invalid_document_kind")
)

type CreateScheduleRequest struct {
	OwnerID        snowflake.ID
	DocumentKind   string
	BaseDocumentID snowflake.ID
	Frequency      string
	StartOn        time.Time
	EndsOn         *time.Time
	NeverExpires   bool
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) *Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("recurrence.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

// Create validates and persists a new schedule. The first occurrence is
// one interval after startOn.
func (s *Service) Create(ctx context.Context, req CreateScheduleRequest) (Schedule, error) {
	frequency, err := ParseFrequency(req.Frequency)
	if err != nil {
		return Schedule{}, err
	}

	kind, err := parseDocumentKind(req.DocumentKind)
	if err != nil {
		return Schedule{}, err
	}

	if req.StartOn.IsZero() {
		return Schedule{}, ErrMissingStartOn
	}
	// Exactly one of "has a real end" or "never expires" applies.
	if req.NeverExpires && req.EndsOn != nil {
		return Schedule{}, ErrExpiryConflict
	}
	if !req.NeverExpires && req.EndsOn == nil {
		return Schedule{}, ErrMissingExpiry
	}

	exists, err := s.baseDocumentExists(ctx, kind, req.OwnerID, req.BaseDocumentID)
	if err != nil {
		return Schedule{}, err
	}
	if !exists {
		return Schedule{}, ErrBaseDocumentMissing
	}

	now := s.clock.Now()
	schedule := Schedule{
		ID:             s.genID.Generate(),
		OwnerID:        req.OwnerID,
		DocumentKind:   kind,
		BaseDocumentID: req.BaseDocumentID,
		Frequency:      frequency,
		StartOn:        StartOfDay(req.StartOn),
		NeverExpires:   req.NeverExpires,
		NextOccurrence: AddInterval(req.StartOn, frequency),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.EndsOn != nil {
		endsOn := StartOfDay(*req.EndsOn)
		schedule.EndsOn = &endsOn
	}

	if err := s.db.WithContext(ctx).Create(&schedule).Error; err != nil {
		return Schedule{}, err
	}
	return schedule, nil
}

func (s *Service) Get(ctx context.Context, ownerID, scheduleID snowflake.ID) (Schedule, error) {
	var schedule Schedule
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", scheduleID, ownerID).
		First(&schedule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Schedule{}, ErrScheduleNotFound
	}
	if err != nil {
		return Schedule{}, err
	}
	return schedule, nil
}

func (s *Service) List(ctx context.Context, ownerID snowflake.ID) ([]Schedule, error) {
	var schedules []Schedule
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

// Delete removes a schedule when its owner detaches it.
func (s *Service) Delete(ctx context.Context, ownerID, scheduleID snowflake.ID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", scheduleID, ownerID).
		Delete(&Schedule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// DeleteByBaseDocument cascades the removal of a base document to the
// schedules attached to it.
func (s *Service) DeleteByBaseDocument(ctx context.Context, kind DocumentKind, baseDocumentID snowflake.ID) error {
	return s.db.WithContext(ctx).
		Where("document_kind = ? AND base_document_id = ?", kind, baseDocumentID).
		Delete(&Schedule{}).Error
}

func (s *Service) baseDocumentExists(ctx context.Context, kind DocumentKind, ownerID, baseID snowflake.ID) (bool, error) {
	table := "invoices"
	if kind == DocumentKindExpense {
		table = "expenses"
	}
	var id snowflake.ID
	err := s.db.WithContext(ctx).
		Raw(`SELECT id FROM `+table+` WHERE id = ? AND owner_id = ?`, baseID, ownerID).
		Scan(&id).Error
	if err != nil {
		return false, err
	}
	return id != 0, nil
}

func parseDocumentKind(raw string) (DocumentKind, error) {
	switch DocumentKind(strings.ToUpper(strings.TrimSpace(raw))) {
	case DocumentKindInvoice:
		return DocumentKindInvoice, nil
	case DocumentKindExpense:
		return DocumentKindExpense, nil
	default:
		return "", ErrInvalidDocumentKind
	}
}
