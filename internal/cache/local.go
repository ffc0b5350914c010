package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sportsedge/ratings/internal/metrics"
	"sportsedge/ratings/internal/models"
)

// LocalLocker serializes recomputes of a sport within this process.
// Used when Redis is unavailable.
type LocalLocker struct {
	mu   sync.Mutex
	held map[models.Sport]bool
}

// NewLocalLocker creates an empty in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[models.Sport]bool)}
}

// AcquireLock fails fast with ErrLocked if the sport is already running.
// ttl is ignored; the lock is held until release.
func (l *LocalLocker) AcquireLock(_ context.Context, sport models.Sport, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[sport] {
		metrics.RecordLockContention(string(sport))
		return nil, fmt.Errorf("%w: %s", ErrLocked, sport)
	}
	l.held[sport] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, sport)
			l.mu.Unlock()
		})
	}, nil
}

// NopCache never stores anything
type NopCache struct{}

func (NopCache) SetRatings(context.Context, models.Sport, []models.PublishedRating) error {
	return nil
}

func (NopCache) GetRatings(context.Context, models.Sport) ([]models.PublishedRating, bool, error) {
	return nil, false, nil
}

func (NopCache) DeleteRatings(context.Context, models.Sport) error {
	return nil
}
