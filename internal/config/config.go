package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"sportsedge/ratings/internal/models"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
type Config struct {
	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"sportsedge"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"sportsedge"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`
	DatabaseMigrate  bool   `envconfig:"DATABASE_MIGRATE" default:"true"`

	// Redis
	RedisEnabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Recompute
	SportKeys            []string      `envconfig:"SPORTS" default:"nfl,ncaaf,nba,ncaab,mlb,nhl,mls"`
	RecomputeConcurrency int           `envconfig:"RECOMPUTE_CONCURRENCY" default:"4"`
	RecomputeTimeout     time.Duration `envconfig:"RECOMPUTE_TIMEOUT" default:"10m"`
	LockTTL              time.Duration `envconfig:"LOCK_TTL" default:"15m"`
	RunOnce              bool          `envconfig:"RUN_ONCE" default:"false"`

	// Scheduler
	EnableScheduler   bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialRunEnabled bool   `envconfig:"INITIAL_RUN_ENABLED" default:"true"`
	RecomputeCron     string `envconfig:"RECOMPUTE_CRON" default:"0 6,18 * * *"`

	// Caching TTL (in seconds)
	CacheTTLRatings int `envconfig:"CACHE_TTL_RATINGS" default:"43200"` // 12 hours

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if _, err := c.Sports(); err != nil {
		return err
	}

	if c.RecomputeConcurrency < 1 {
		return fmt.Errorf("RECOMPUTE_CONCURRENCY must be at least 1, got %d", c.RecomputeConcurrency)
	}

	if c.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be positive")
	}

	if c.LockTTL < c.RecomputeTimeout {
		return fmt.Errorf("LOCK_TTL (%s) must not be shorter than RECOMPUTE_TIMEOUT (%s)", c.LockTTL, c.RecomputeTimeout)
	}

	if c.EnableScheduler && !c.RunOnce {
		if _, err := cron.ParseStandard(c.RecomputeCron); err != nil {
			return fmt.Errorf("invalid RECOMPUTE_CRON %q: %w", c.RecomputeCron, err)
		}
	}

	return nil
}

// Sports returns the configured sports, deduplicated and in configured order
func (c *Config) Sports() ([]models.Sport, error) {
	seen := make(map[models.Sport]bool, len(c.SportKeys))
	var sports []models.Sport
	for _, key := range c.SportKeys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		sport, err := models.ParseSport(key)
		if err != nil {
			return nil, fmt.Errorf("SPORTS: %w", err)
		}
		if seen[sport] {
			continue
		}
		seen[sport] = true
		sports = append(sports, sport)
	}

	if len(sports) == 0 {
		return nil, fmt.Errorf("SPORTS must name at least one sport")
	}
	return sports, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// CacheTTL returns the ratings cache TTL
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLRatings) * time.Second
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MustLoad loads configuration or exits on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
