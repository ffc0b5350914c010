// Package recompute drives a full load, compute, rank and publish cycle
// for each sport.
package recompute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sportsedge/ratings/internal/cache"
	"sportsedge/ratings/internal/metrics"
	"sportsedge/ratings/internal/models"
	"sportsedge/ratings/internal/rating"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// HistoryLoader returns a sport's ordered, scored games
type HistoryLoader interface {
	Load(ctx context.Context, sport models.Sport) ([]models.GameRecord, error)
}

// Computer folds games into per-team rating states
type Computer interface {
	Tuning(sport models.Sport) (rating.Tuning, error)
	Compute(sport models.Sport, games []models.GameRecord) (map[string]*models.RatingState, error)
}

// RatingStore replaces a sport's published ratings
type RatingStore interface {
	ReplaceSport(ctx context.Context, sport models.Sport, rows []models.PublishedRating) error
}

// RatingCache holds the latest published snapshot per sport
type RatingCache interface {
	SetRatings(ctx context.Context, sport models.Sport, rows []models.PublishedRating) error
	DeleteRatings(ctx context.Context, sport models.Sport) error
}

// Locker serializes runs of the same sport
type Locker interface {
	AcquireLock(ctx context.Context, sport models.Sport, ttl time.Duration) (func(), error)
}

// Options tunes a Runner
type Options struct {
	Concurrency int
	LockTTL     time.Duration
	// Now defaults to time.Now
	Now func() time.Time
}

// SportResult describes one sport's run
type SportResult struct {
	Sport     models.Sport
	Games     int
	Teams     int
	Published int
	Duration  time.Duration
	// Skipped is set when another run held the sport's lock
	Skipped bool
	Err     error
}

// Runner recomputes and publishes ratings
type Runner struct {
	loader  HistoryLoader
	engine  Computer
	store   RatingStore
	cache   RatingCache
	locker  Locker
	limit   int
	lockTTL time.Duration
	now     func() time.Time
}

// NewRunner wires the collaborators of a recompute
func NewRunner(loader HistoryLoader, engine Computer, store RatingStore, cache RatingCache, locker Locker, opts Options) *Runner {
	r := &Runner{
		loader:  loader,
		engine:  engine,
		store:   store,
		cache:   cache,
		locker:  locker,
		limit:   opts.Concurrency,
		lockTTL: opts.LockTTL,
		now:     opts.Now,
	}
	if r.limit < 1 {
		r.limit = 1
	}
	if r.lockTTL <= 0 {
		r.lockTTL = 15 * time.Minute
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// RunSport recomputes a single sport under its lock
func (r *Runner) RunSport(ctx context.Context, sport models.Sport) SportResult {
	return r.runSport(ctx, uuid.NewString(), sport)
}

// RunAll recomputes every sport, at most Concurrency at a time. A failing
// sport does not stop the others. The returned error joins every sport's
// failure; sports skipped on a held lock are not failures.
func (r *Runner) RunAll(ctx context.Context, sports []models.Sport) ([]SportResult, error) {
	runID := uuid.NewString()
	start := time.Now()
	results := make([]SportResult, len(sports))

	log.Info().
		Str("run_id", runID).
		Int("sports", len(sports)).
		Int("concurrency", r.limit).
		Msg("Recompute starting")

	var g errgroup.Group
	g.SetLimit(r.limit)
	for i, sport := range sports {
		i, sport := i, sport
		g.Go(func() error {
			results[i] = r.runSport(ctx, runID, sport)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	published := 0
	for _, res := range results {
		if res.Err != nil && !res.Skipped {
			errs = append(errs, fmt.Errorf("%s: %w", res.Sport, res.Err))
		}
		published += res.Published
	}

	event := log.Info()
	if len(errs) > 0 {
		event = log.Error().Int("failed", len(errs))
	}
	event.
		Str("run_id", runID).
		Int("published", published).
		Dur("duration", time.Since(start)).
		Msg("Recompute finished")

	return results, errors.Join(errs...)
}

func (r *Runner) runSport(ctx context.Context, runID string, sport models.Sport) SportResult {
	start := time.Now()
	logger := log.With().Str("run_id", runID).Str("sport", string(sport)).Logger()

	res := SportResult{Sport: sport}
	err := r.recompute(ctx, logger, &res)
	res.Duration = time.Since(start)

	switch {
	case errors.Is(err, cache.ErrLocked):
		res.Skipped = true
		res.Err = err
		metrics.RecordRecompute(string(sport), "skipped", res.Duration.Seconds())
		logger.Warn().Msg("Recompute skipped, sport is locked by another run")
	case err != nil:
		res.Err = err
		metrics.RecordRecompute(string(sport), "error", res.Duration.Seconds())
		logger.Error().Err(err).Dur("duration", res.Duration).Msg("Recompute failed")
	default:
		metrics.RecordRecompute(string(sport), "success", res.Duration.Seconds())
		metrics.UpdateRecomputeStats(string(sport), res.Games, res.Teams, res.Published)
		logger.Info().
			Int("games", res.Games).
			Int("teams", res.Teams).
			Int("published", res.Published).
			Dur("duration", res.Duration).
			Msg("Ratings published")
	}
	return res
}

func (r *Runner) recompute(ctx context.Context, logger zerolog.Logger, res *SportResult) error {
	sport := res.Sport

	release, err := r.locker.AcquireLock(ctx, sport, r.lockTTL)
	if err != nil {
		if !errors.Is(err, cache.ErrLocked) {
			metrics.RecordError("recompute", "lock")
		}
		return err
	}
	defer release()

	tuning, err := r.engine.Tuning(sport)
	if err != nil {
		metrics.RecordError("recompute", "compute")
		return fmt.Errorf("failed to compute %s ratings: %w", sport, err)
	}
	logger.Debug().
		Float64("k", tuning.K).
		Float64("home_advantage", tuning.HomeAdvantage).
		Float64("margin_factor", tuning.MarginFactor).
		Msg("Recompute started")

	games, err := r.loader.Load(ctx, sport)
	if err != nil {
		metrics.RecordError("recompute", "load")
		return err
	}
	res.Games = len(games)

	states, err := r.engine.Compute(sport, games)
	if err != nil {
		metrics.RecordError("recompute", "compute")
		return fmt.Errorf("failed to compute %s ratings: %w", sport, err)
	}
	res.Teams = len(states)

	rows := rating.Rank(sport, states, r.now().UTC())

	// Nothing is written once the caller has given up.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("recompute of %s cancelled before publish: %w", sport, err)
	}

	if err := r.store.ReplaceSport(ctx, sport, rows); err != nil {
		metrics.RecordError("recompute", "publish")
		return fmt.Errorf("failed to publish %s ratings: %w", sport, err)
	}
	res.Published = len(rows)

	if err := r.cache.SetRatings(ctx, sport, rows); err != nil {
		metrics.RecordError("recompute", "cache")
		logger.Warn().Err(err).Msg("Failed to refresh ratings cache")

		// Evict the previous snapshot so reads fall back to the store.
		if err := r.cache.DeleteRatings(context.WithoutCancel(ctx), sport); err != nil {
			logger.Error().Err(err).Msg("Failed to evict stale ratings cache")
		}
	}

	return nil
}
