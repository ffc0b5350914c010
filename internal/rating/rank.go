package rating

import (
	"sort"
	"time"

	"sportsedge/ratings/internal/models"
)

// Rank filters, orders, and projects final states into published rows.
// Teams under models.MinGamesPublished are dropped. Equal ratings are broken
// by team name ascending so every row gets a distinct rank.
func Rank(sport models.Sport, states map[string]*models.RatingState, now time.Time) []models.PublishedRating {
	eligible := make([]*models.RatingState, 0, len(states))
	for _, s := range states {
		if s.GamesPlayed < models.MinGamesPublished {
			continue
		}
		eligible = append(eligible, s)
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Rating != eligible[j].Rating {
			return eligible[i].Rating > eligible[j].Rating
		}
		return eligible[i].Team < eligible[j].Team
	})

	rows := make([]models.PublishedRating, 0, len(eligible))
	for i, s := range eligible {
		elo := int(Round(s.Rating))
		rows = append(rows, models.PublishedRating{
			Sport:       sport,
			Team:        s.Team,
			Elo:         elo,
			Power:       PowerRating(elo),
			Rank:        i + 1,
			GamesPlayed: s.GamesPlayed,
			UpdatedAt:   now,
		})
	}
	return rows
}

// PowerRating rescales an Elo value around the baseline for display
func PowerRating(elo int) int {
	return int(Round((float64(elo) - models.BaselineRating) / 4))
}
