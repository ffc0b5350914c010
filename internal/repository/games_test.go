//go:build integration

package repository

import (
	"database/sql"
	"testing"
	"time"

	"sportsedge/ratings/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameRepository_ListBySport(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	day := time.Date(2024, time.November, 10, 18, 0, 0, 0, time.UTC)
	games := []*models.RawGame{
		{Sport: models.SportNFL, HomeTeam: "KC", AwayTeam: "DEN", GameDate: day.Add(48 * time.Hour), Status: "Final",
			HomeScore: sql.NullInt32{Int32: 16, Valid: true}, AwayScore: sql.NullInt32{Int32: 14, Valid: true}},
		{Sport: models.SportNFL, HomeTeam: "BUF", AwayTeam: "IND", GameDate: day, Status: "Final",
			HomeScore: sql.NullInt32{Int32: 30, Valid: true}, AwayScore: sql.NullInt32{Int32: 20, Valid: true}},
		{Sport: models.SportNFL, HomeTeam: "DET", AwayTeam: "HOU", GameDate: day, Status: "Final",
			HomeScore: sql.NullInt32{Int32: 26, Valid: true}, AwayScore: sql.NullInt32{Int32: 23, Valid: true}},
		{Sport: models.SportNFL, HomeTeam: "TBD", AwayTeam: "TBD", GameDate: day.Add(96 * time.Hour), Status: "Scheduled"},
		{Sport: models.SportNBA, HomeTeam: "BOS", AwayTeam: "NYK", GameDate: day, Status: "Final",
			HomeScore: sql.NullInt32{Int32: 132, Valid: true}, AwayScore: sql.NullInt32{Int32: 109, Valid: true}},
	}
	for _, g := range games {
		require.NoError(t, db.Games.Create(ctx, g))
		assert.NotZero(t, g.ID)
	}

	nfl, err := db.Games.ListBySport(ctx, models.SportNFL)
	require.NoError(t, err)
	require.Len(t, nfl, 4, "Only NFL games, including unplayed ones")

	assert.Equal(t, "BUF", nfl[0].HomeTeam, "Same-date games come back in insertion order")
	assert.Equal(t, "DET", nfl[1].HomeTeam)
	assert.Equal(t, "KC", nfl[2].HomeTeam)
	assert.False(t, nfl[3].HomeScore.Valid)

	for _, g := range nfl {
		assert.Equal(t, models.SportNFL, g.Sport)
	}
}
