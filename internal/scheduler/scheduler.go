// Package scheduler drives periodic generation runs.
package scheduler

import (
	"context"
	"time"

	"github.com/smallbiznis/ledgerline/internal/clock"
	"github.com/smallbiznis/ledgerline/internal/generation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config controls the run loop.
type Config struct {
	RunInterval time.Duration
	RunTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Hour,
		RunTimeout:  10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	return c
}

type Params struct {
	fx.In

	Log           *zap.Logger
	GenerationSvc *generation.Service
	Clock         clock.Clock
	Config        Config `optional:"true"`
}

type Scheduler struct {
	log           *zap.Logger
	cfg           Config
	clock         clock.Clock
	generationSvc *generation.Service
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:           p.Log.Named("scheduler"),
		cfg:           p.Config.withDefaults(),
		clock:         p.Clock,
		generationSvc: p.GenerationSvc,
	}
}

// RunOnce triggers a single generation pass bounded by the run timeout.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.RunTimeout)
	defer cancel()

	result, err := s.generationSvc.RunOnce(ctx, s.clock.Now())
	if err != nil {
		s.log.Warn("generation run had failures",
			zap.Int("processed", result.Processed),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// RunForever runs generation on every tick until the context is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
