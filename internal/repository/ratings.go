package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sportsedge/ratings/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// RatingRepository persists published team ratings
type RatingRepository struct {
	db *Database
}

const ratingColumns = `sport, team, elo, power, rank, games_played, updated_at`

// ReplaceSport makes rows the complete published set for sport.
// Teams missing from rows are deleted and the rest are upserted on
// (sport, team), all in one transaction.
func (r *RatingRepository) ReplaceSport(ctx context.Context, sport models.Sport, rows []models.PublishedRating) error {
	start := time.Now()
	err := r.replaceSport(ctx, sport, rows)
	observe("replace", "team_ratings", start, err)
	return err
}

func (r *RatingRepository) replaceSport(ctx context.Context, sport models.Sport, rows []models.PublishedRating) error {
	teams := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Sport != sport {
			return fmt.Errorf("row for %s/%s does not belong to %s", row.Sport, row.Team, sport)
		}
		teams = append(teams, row.Team)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deleted, err := tx.Exec(ctx,
		`DELETE FROM team_ratings WHERE sport = $1 AND NOT (team = ANY($2))`,
		string(sport), teams,
	)
	if err != nil {
		return fmt.Errorf("failed to delete stale ratings: %w", err)
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO team_ratings (`+ratingColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (sport, team) DO UPDATE SET
				elo = EXCLUDED.elo,
				power = EXCLUDED.power,
				rank = EXCLUDED.rank,
				games_played = EXCLUDED.games_played,
				updated_at = EXCLUDED.updated_at
		`, string(row.Sport), row.Team, row.Elo, row.Power, row.Rank, row.GamesPlayed, row.UpdatedAt)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert ratings: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	log.Debug().
		Str("sport", string(sport)).
		Int("upserted", len(rows)).
		Int64("deleted", deleted.RowsAffected()).
		Msg("Ratings replaced")
	return nil
}

// ListBySport returns the published ratings for sport ordered by rank
func (r *RatingRepository) ListBySport(ctx context.Context, sport models.Sport) ([]models.PublishedRating, error) {
	query := `SELECT ` + ratingColumns + ` FROM team_ratings WHERE sport = $1 ORDER BY rank`

	start := time.Now()
	ratings, err := r.list(ctx, query, string(sport))
	observe("select", "team_ratings", start, err)
	return ratings, err
}

// Top returns the n best-ranked teams for sport
func (r *RatingRepository) Top(ctx context.Context, sport models.Sport, n int) ([]models.PublishedRating, error) {
	if n <= 0 {
		return []models.PublishedRating{}, nil
	}
	query := `SELECT ` + ratingColumns + ` FROM team_ratings WHERE sport = $1 ORDER BY rank LIMIT $2`

	start := time.Now()
	ratings, err := r.list(ctx, query, string(sport), n)
	observe("select", "team_ratings", start, err)
	return ratings, err
}

// GetByTeam returns one team's published rating
func (r *RatingRepository) GetByTeam(ctx context.Context, sport models.Sport, team string) (*models.PublishedRating, error) {
	query := `SELECT ` + ratingColumns + ` FROM team_ratings WHERE sport = $1 AND team = $2`

	start := time.Now()
	rating, err := scanRating(r.db.Pool.QueryRow(ctx, query, string(sport), team))
	observe("select", "team_ratings", start, err)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("rating %s/%s: %w", sport, team, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return rating, nil
}

func (r *RatingRepository) list(ctx context.Context, query string, args ...any) ([]models.PublishedRating, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	ratings := []models.PublishedRating{}
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, *rating)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}
	return ratings, nil
}

func scanRating(row pgx.Row) (*models.PublishedRating, error) {
	var (
		rating models.PublishedRating
		sport  string
	)
	err := row.Scan(
		&sport, &rating.Team, &rating.Elo, &rating.Power,
		&rating.Rank, &rating.GamesPlayed, &rating.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rating.Sport = models.Sport(sport)
	return &rating, nil
}
