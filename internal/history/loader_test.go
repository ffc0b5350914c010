package history

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"sportsedge/ratings/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	games map[models.Sport][]*models.RawGame
	err   error
}

func (f *fakeSource) ListBySport(_ context.Context, sport models.Sport) ([]*models.RawGame, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.games[sport], nil
}

var base = time.Date(2025, time.January, 4, 19, 0, 0, 0, time.UTC)

func played(id int64, days int, home, away string, hs, as int32) *models.RawGame {
	return &models.RawGame{
		ID:        id,
		Sport:     models.SportNHL,
		HomeTeam:  home,
		AwayTeam:  away,
		HomeScore: sql.NullInt32{Int32: hs, Valid: true},
		AwayScore: sql.NullInt32{Int32: as, Valid: true},
		GameDate:  base.AddDate(0, 0, days),
		Status:    "Final",
	}
}

func TestLoader_FiltersAndOrders(t *testing.T) {
	unplayed := played(5, 9, "TOR", "MTL", 0, 0)
	unplayed.HomeScore = sql.NullInt32{}
	unplayed.AwayScore = sql.NullInt32{}
	live := played(7, 0, "WPG", "MIN", 2, 1)
	live.Status = "InProgress"

	source := &fakeSource{games: map[models.Sport][]*models.RawGame{
		models.SportNHL: {
			played(1, 3, "BOS", "NYR", 4, 2),
			played(2, 1, "TOR", "MTL", 3, 1),
			played(3, 3, "EDM", "CGY", 2, 5),
			played(4, 2, "VAN", "SEA", 0, 0),
			unplayed,
			played(6, 4, "TBD", "DAL", 1, 0),
			live,
		},
	}}

	records, err := NewLoader(source).Load(context.Background(), models.SportNHL)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "TOR", records[0].HomeTeam)
	assert.Equal(t, "BOS", records[1].HomeTeam, "Same-date games keep source order")
	assert.Equal(t, "EDM", records[2].HomeTeam)
	for i := 1; i < len(records); i++ {
		assert.False(t, records[i].Date.Before(records[i-1].Date), "Dates must be non-decreasing")
	}
}

func TestNormalize_CountsExclusions(t *testing.T) {
	missing := played(3, 0, "A", "B", 1, 0)
	missing.AwayScore = sql.NullInt32{}
	inProgress := played(5, 0, "A", "B", 7, 3)
	inProgress.Status = "InProgress"

	_, excluded := Normalize(models.SportNHL, []*models.RawGame{
		played(1, 0, "A", "B", 0, 0),
		played(2, 0, "A", "TBA", 2, 1),
		missing,
		nil,
		played(4, 0, "A", "B", 3, 2),
		inProgress,
	})

	assert.Equal(t, map[models.ExclusionReason]int{
		models.ExcludeNotFinal:        1,
		models.ExcludeScorelessGame:   1,
		models.ExcludePlaceholderTeam: 1,
		models.ExcludeMissingScore:    1,
	}, excluded)
}

func TestNormalize_LiveGameNeverRated(t *testing.T) {
	live := played(1, 0, "KC", "DEN", 7, 3)
	live.Sport = models.SportNFL
	live.Status = "InProgress"
	scoreless := played(2, 0, "KC", "LV", 0, 0)
	scoreless.Sport = models.SportNFL

	records, excluded := Normalize(models.SportNFL, []*models.RawGame{live, scoreless})

	assert.Empty(t, records)
	assert.Equal(t, map[models.ExclusionReason]int{
		models.ExcludeNotFinal:      1,
		models.ExcludeScorelessGame: 1,
	}, excluded)
}

func TestLoader_EmptyHistory(t *testing.T) {
	records, err := NewLoader(&fakeSource{}).Load(context.Background(), models.SportMLS)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoader_SourceError(t *testing.T) {
	boom := errors.New("connection refused")

	_, err := NewLoader(&fakeSource{err: boom}).Load(context.Background(), models.SportNBA)
	assert.ErrorIs(t, err, boom)
}
