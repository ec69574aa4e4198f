// Package audit records an append-only trail of system actions.
package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrInvalidAction = errors.New("invalid_action")

const (
	ActorTypeSystem = "system"
	ActorTypeUser   = "user"
)

// Entry is one persisted audit row.
type Entry struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	OwnerID    snowflake.ID      `gorm:"not null;index" json:"owner_id"`
	ActorType  string            `gorm:"type:text;not null" json:"actor_type"`
	Action     string            `gorm:"type:text;not null;index" json:"action"`
	TargetType string            `gorm:"type:text;not null" json:"target_type"`
	TargetID   string            `gorm:"type:text;not null" json:"target_id"`
	Metadata   datatypes.JSONMap `gorm:"not null" json:"metadata"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "audit_entries" }

// Event is the caller-facing shape of an audit record.
type Event struct {
	OwnerID    snowflake.ID
	ActorType  string
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

type Service interface {
	Record(ctx context.Context, event Event) error
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
	}
}

func (s *service) Record(ctx context.Context, event Event) error {
	action := strings.TrimSpace(event.Action)
	if action == "" {
		return ErrInvalidAction
	}

	actorType := strings.TrimSpace(event.ActorType)
	if actorType == "" {
		actorType = ActorTypeSystem
	}
	targetType := strings.TrimSpace(event.TargetType)
	if targetType == "" {
		targetType = "unknown"
	}

	metadata := datatypes.JSONMap{}
	for key, value := range event.Metadata {
		if key == "" {
			continue
		}
		metadata[key] = value
	}

	entry := Entry{
		ID:         s.genID.Generate(),
		OwnerID:    event.OwnerID,
		ActorType:  actorType,
		Action:     action,
		TargetType: targetType,
		TargetID:   event.TargetID,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Warn("audit record failed", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

// Module wires the audit service.
var Module = fx.Module("audit.service",
	fx.Provide(NewService),
)
