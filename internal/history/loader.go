// Package history turns stored game rows into the ordered, scored game
// sequence the rating engine folds.
package history

import (
	"context"
	"fmt"
	"sort"

	"sportsedge/ratings/internal/metrics"
	"sportsedge/ratings/internal/models"

	"github.com/rs/zerolog/log"
)

// GameSource returns every stored game for a sport
type GameSource interface {
	ListBySport(ctx context.Context, sport models.Sport) ([]*models.RawGame, error)
}

// Loader filters and orders game history for one sport
type Loader struct {
	source GameSource
}

// NewLoader creates a loader reading from source
func NewLoader(source GameSource) *Loader {
	return &Loader{source: source}
}

// Load returns the sport's completed, scored games sorted by date ascending.
// Unfinished, unscored, placeholder, and 0-0 games are dropped. Games sharing a date
// keep the order the source returned them in.
func (l *Loader) Load(ctx context.Context, sport models.Sport) ([]models.GameRecord, error) {
	raw, err := l.source.ListBySport(ctx, sport)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s game history: %w", sport, err)
	}

	records, excluded := Normalize(sport, raw)

	for reason, count := range excluded {
		metrics.RecordExcludedGames(string(sport), string(reason), count)
	}

	log.Debug().
		Str("sport", string(sport)).
		Int("raw", len(raw)).
		Int("usable", len(records)).
		Int("not_final", excluded[models.ExcludeNotFinal]).
		Int("missing_score", excluded[models.ExcludeMissingScore]).
		Int("placeholder_team", excluded[models.ExcludePlaceholderTeam]).
		Int("scoreless", excluded[models.ExcludeScorelessGame]).
		Int("negative_score", excluded[models.ExcludeNegativeScore]).
		Msg("Game history loaded")

	return records, nil
}

// Normalize drops unusable rows and stable-sorts the rest by date.
// It also returns how many rows were dropped for each reason.
func Normalize(sport models.Sport, raw []*models.RawGame) ([]models.GameRecord, map[models.ExclusionReason]int) {
	records := make([]models.GameRecord, 0, len(raw))
	excluded := make(map[models.ExclusionReason]int)

	for _, g := range raw {
		if g == nil {
			continue
		}
		record, reason := g.Normalize()
		if reason != models.ExcludeNone {
			excluded[reason]++
			continue
		}
		record.Sport = sport
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	return records, excluded
}
