package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sportsedge/ratings/internal/api"
	"sportsedge/ratings/internal/cache"
	"sportsedge/ratings/internal/config"
	"sportsedge/ratings/internal/history"
	"sportsedge/ratings/internal/metrics"
	"sportsedge/ratings/internal/rating"
	"sportsedge/ratings/internal/recompute"
	"sportsedge/ratings/internal/repository"
	"sportsedge/ratings/internal/scheduler"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if code := run(); code != 0 {
		os.Exit(code)
	}
}

func run() int {
	// Load configuration
	cfg := config.MustLoad()

	// Setup logger
	setupLogger(cfg)

	log.Info().Msg("Starting team rating worker")
	sports, _ := cfg.Sports() // validated by Load
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Strs("sports", cfg.SportKeys).
		Bool("run_once", cfg.RunOnce).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
		DSN:      cfg.DatabaseDSN(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	if cfg.DatabaseMigrate {
		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
	}

	// Redis gives a cross-process lock and a read cache; without it runs are
	// serialized in-process only.
	var locker recompute.Locker = cache.NewLocalLocker()
	var ratingCache recompute.RatingCache = cache.NopCache{}
	var snapshots api.SnapshotReader
	if cfg.RedisEnabled {
		redisCache, err := cache.NewRedisCache(cache.Config{
			Host:       cfg.RedisHost,
			Port:       cfg.RedisPort,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			RatingsTTL: cfg.CacheTTL(),
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing with in-process lock and no cache")
		} else {
			defer redisCache.Close()
			locker, ratingCache, snapshots = redisCache, redisCache, redisCache
			log.Info().Str("addr", cfg.RedisAddr()).Msg("Redis cache connected")
		}
	}

	runner := recompute.NewRunner(
		history.NewLoader(db.Games),
		rating.NewEngine(rating.DefaultTuning()),
		db.Ratings,
		ratingCache,
		locker,
		recompute.Options{
			Concurrency: cfg.RecomputeConcurrency,
			LockTTL:     cfg.LockTTL,
		},
	)

	// Start metrics and ratings HTTP server
	var srv *http.Server
	if cfg.EnableMetrics {
		srv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           api.NewServer(db.Ratings, snapshots, db).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info().Int("port", cfg.MetricsPort).Msg("Starting HTTP server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("HTTP server failed")
			}
		}()
	}

	// Update system uptime and pool metrics
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				db.PoolStats()
			case <-ctx.Done():
				return
			}
		}
	}()

	sched := scheduler.NewScheduler(scheduler.Config{
		Schedule:   cfg.RecomputeCron,
		Sports:     sports,
		Timeout:    cfg.RecomputeTimeout,
		InitialRun: cfg.InitialRunEnabled,
	}, runner)

	exitCode := 0
	if cfg.RunOnce {
		log.Info().Msg("Running single recompute...")
		if err := sched.Run(ctx); err != nil {
			exitCode = 1
		}
	} else {
		if cfg.EnableScheduler {
			if err := sched.Start(ctx); err != nil {
				log.Fatal().Err(err).Msg("Failed to start scheduler")
			}
		} else {
			log.Warn().Msg("Scheduler disabled - serving published ratings only")
		}

		// Keep running until a shutdown signal arrives
		<-ctx.Done()
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")

		if cfg.EnableScheduler {
			sched.Stop()
		}
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("HTTP server shutdown failed")
		}
		cancel()
	}

	log.Info().Int("exit_code", exitCode).Msg("Worker shutdown complete")
	return exitCode
}

// setupLogger configures the zerolog logger
func setupLogger(cfg *config.Config) {
	// Pretty console logging in development
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := cfg.LogLevel; lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}
