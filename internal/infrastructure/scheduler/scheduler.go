// Package scheduler runs the nightly recalculation sweep on a cron
// schedule. The sweep itself lives in the reward engine; this package only
// owns the trigger, the timeout around one run, and the completion event.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/learnpath-hub/reward-service/internal/application/engine"
	"github.com/learnpath-hub/reward-service/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Sweeper is the part of the reward engine the scheduler drives.
type Sweeper interface {
	RecalculateAll(ctx context.Context) (*engine.SweepStats, error)
}

// Config holds scheduler configuration.
type Config struct {
	// CronExpression is when the sweep runs, in standard five-field cron
	// syntax. Default is 03:00 every night.
	CronExpression string

	// SweepTimeout bounds one full sweep.
	SweepTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		CronExpression: "0 3 * * *",
		SweepTimeout:   2 * time.Hour,
	}
}

// Scheduler triggers the nightly recalculation sweep.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	publisher shared.EventPublisher
	config    Config
	logger    *slog.Logger
}

// New creates a scheduler. The publisher may be nil.
func New(sweeper Sweeper, publisher shared.EventPublisher, config Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.CronExpression == "" {
		config.CronExpression = DefaultConfig().CronExpression
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = DefaultConfig().SweepTimeout
	}

	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sweeper:   sweeper,
		publisher: publisher,
		config:    config,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start registers the sweep job and starts the scheduler in the background.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Cron(s.config.CronExpression).Do(s.runSweep); err != nil {
		return fmt.Errorf("scheduler: register sweep job: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "cron", s.config.CronExpression)
	return nil
}

// Stop terminates the scheduler. A sweep already in flight finishes on its
// own timeout.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("scheduler stopped")
}

// RunNow triggers one sweep immediately, outside the cron schedule.
func (s *Scheduler) RunNow() {
	s.runSweep()
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.SweepTimeout)
	defer cancel()

	s.logger.Info("nightly recalculation sweep starting")

	stats, err := s.sweeper.RecalculateAll(ctx)
	if err != nil {
		s.logger.Error("nightly recalculation sweep failed",
			"processed", stats.Processed,
			"total", stats.Total,
			"error", err,
		)
		return
	}

	s.logger.Info("nightly recalculation sweep finished",
		"processed", stats.Processed,
		"failed", stats.Failed(),
		"duration", stats.Duration,
	)

	if s.publisher != nil {
		event := shared.NewBaseEvent(shared.EventSweepCompleted, "")
		if err := s.publisher.Publish(event); err != nil {
			s.logger.Warn("failed to publish sweep completed event", "error", err)
		}
	}
}
