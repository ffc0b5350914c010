package repository

import (
	"context"
	"fmt"
	"time"

	"sportsedge/ratings/internal/models"

	"github.com/rs/zerolog/log"
)

// GameRepository reads game history for the rating worker
type GameRepository struct {
	db *Database
}

// Create inserts a game row
func (r *GameRepository) Create(ctx context.Context, game *models.RawGame) error {
	query := `
		INSERT INTO games (sport, home_team, away_team, home_score, away_score, game_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	start := time.Now()
	err := r.db.Pool.QueryRow(
		ctx, query,
		string(game.Sport), game.HomeTeam, game.AwayTeam,
		game.HomeScore, game.AwayScore, game.GameDate, game.Status,
	).Scan(&game.ID)
	observe("insert", "games", start, err)

	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	log.Debug().
		Int64("id", game.ID).
		Str("sport", string(game.Sport)).
		Str("home", game.HomeTeam).
		Str("away", game.AwayTeam).
		Msg("Game created")

	return nil
}

// ListBySport returns every game for a sport, oldest first.
// Games on the same timestamp come back in insertion order.
func (r *GameRepository) ListBySport(ctx context.Context, sport models.Sport) ([]*models.RawGame, error) {
	query := `
		SELECT id, sport, home_team, away_team, home_score, away_score, game_date, status
		FROM games
		WHERE sport = $1
		ORDER BY game_date, id
	`

	start := time.Now()
	games, err := r.list(ctx, query, string(sport))
	observe("select", "games", start, err)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("sport", string(sport)).
		Int("count", len(games)).
		Msg("Retrieved game history")
	return games, nil
}

func (r *GameRepository) list(ctx context.Context, query string, args ...any) ([]*models.RawGame, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []*models.RawGame
	for rows.Next() {
		var (
			game  models.RawGame
			sport string
		)
		err := rows.Scan(
			&game.ID, &sport, &game.HomeTeam, &game.AwayTeam,
			&game.HomeScore, &game.AwayScore, &game.GameDate, &game.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		game.Sport = models.Sport(sport)
		games = append(games, &game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return games, nil
}
