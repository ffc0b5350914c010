// Package cache holds the Redis-backed per-sport recompute lock and the
// published ratings snapshot cache, plus in-process fallbacks.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sportsedge/ratings/internal/metrics"
	"sportsedge/ratings/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrLocked is returned when another run holds the sport's lock
var ErrLocked = errors.New("recompute already running for sport")

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Config holds Redis connection settings
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	// RatingsTTL bounds how long a published snapshot is served from cache
	RatingsTTL time.Duration
}

// RedisCache implements the sport lock and ratings cache on Redis
type RedisCache struct {
	client     *redis.Client
	ratingsTTL time.Duration
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisCacheFromClient(client, cfg.RatingsTTL), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client, ratingsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, ratingsTTL: ratingsTTL}
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func lockKey(sport models.Sport) string {
	return "ratings:lock:" + string(sport)
}

func ratingsKey(sport models.Sport) string {
	return "ratings:published:" + string(sport)
}

// AcquireLock takes the sport's recompute lock for at most ttl.
// The returned release func is safe to call once the lock has expired.
func (c *RedisCache) AcquireLock(ctx context.Context, sport models.Sport, ttl time.Duration) (func(), error) {
	token := uuid.NewString()

	ok, err := c.client.SetNX(ctx, lockKey(sport), token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock for %s: %w", sport, err)
	}
	if !ok {
		metrics.RecordLockContention(string(sport))
		return nil, fmt.Errorf("%w: %s", ErrLocked, sport)
	}

	release := func() {
		// The caller's context may already be cancelled; release regardless.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, c.client, []string{lockKey(sport)}, token).Err(); err != nil {
			log.Warn().Err(err).Str("sport", string(sport)).Msg("Failed to release recompute lock")
		}
	}
	return release, nil
}

// SetRatings stores the published snapshot for sport
func (c *RedisCache) SetRatings(ctx context.Context, sport models.Sport, rows []models.PublishedRating) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode ratings: %w", err)
	}

	start := time.Now()
	if err := c.client.Set(ctx, ratingsKey(sport), payload, c.ratingsTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache ratings for %s: %w", sport, err)
	}
	metrics.RecordCacheOperation("set", time.Since(start).Seconds())
	return nil
}

// GetRatings returns the cached snapshot. ok is false on a miss.
func (c *RedisCache) GetRatings(ctx context.Context, sport models.Sport) ([]models.PublishedRating, bool, error) {
	start := time.Now()
	payload, err := c.client.Get(ctx, ratingsKey(sport)).Bytes()
	metrics.RecordCacheOperation("get", time.Since(start).Seconds())

	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached ratings for %s: %w", sport, err)
	}

	var rows []models.PublishedRating
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached ratings for %s: %w", sport, err)
	}
	metrics.RecordCacheHit()
	return rows, true, nil
}

// DeleteRatings drops the cached snapshot for sport
func (c *RedisCache) DeleteRatings(ctx context.Context, sport models.Sport) error {
	start := time.Now()
	err := c.client.Del(ctx, ratingsKey(sport)).Err()
	metrics.RecordCacheOperation("delete", time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to evict cached ratings for %s: %w", sport, err)
	}
	return nil
}
