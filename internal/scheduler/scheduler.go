package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sportsedge/ratings/internal/models"
	"sportsedge/ratings/internal/recompute"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// RecomputeRunner runs a full recompute across sports
type RecomputeRunner interface {
	RunAll(ctx context.Context, sports []models.Sport) ([]recompute.SportResult, error)
}

// Config holds scheduler settings
type Config struct {
	Schedule   string
	Sports     []models.Sport
	Timeout    time.Duration
	InitialRun bool
}

// Scheduler triggers rating recomputes on a cron schedule
// - Full recompute of every configured sport on each tick
// - Overlapping ticks are skipped, not queued
// - Optional run at startup
type Scheduler struct {
	cfg    Config
	runner RecomputeRunner
	cron   *cron.Cron
	wg     sync.WaitGroup
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg Config, runner RecomputeRunner) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
	}
}

// Start schedules the recompute job and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.Run(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule recompute: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.Schedule).
		Int("sports", len(s.cfg.Sports)).
		Msg("Rating recompute scheduled")

	if s.cfg.InitialRun {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			log.Info().Msg("Running initial recompute...")
			s.Run(ctx)
		}()
	}

	return nil
}

// Stop stops the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.wg.Wait()

	log.Info().Msg("Scheduler stopped")
}

// Run performs one recompute of all sports bounded by the configured timeout
func (s *Scheduler) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	_, err := s.runner.RunAll(ctx, s.cfg.Sports)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled recompute finished with failures")
	}
	return err
}
