package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sportsedge/ratings/internal/models"
	"sportsedge/ratings/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var updated = time.Date(2024, time.November, 30, 6, 0, 0, 0, time.UTC)

func nflRows() []models.PublishedRating {
	return []models.PublishedRating{
		{Sport: models.SportNFL, Team: "Chiefs", Elo: 1620, Power: 30, Rank: 1, GamesPlayed: 12, UpdatedAt: updated},
		{Sport: models.SportNFL, Team: "Lions", Elo: 1604, Power: 26, Rank: 2, GamesPlayed: 12, UpdatedAt: updated},
		{Sport: models.SportNFL, Team: "Bears", Elo: 1421, Power: -20, Rank: 3, GamesPlayed: 12, UpdatedAt: updated},
	}
}

type fakeStore struct {
	rows     map[models.Sport][]models.PublishedRating
	err      error
	topCalls int
}

func (f *fakeStore) ListBySport(_ context.Context, sport models.Sport) ([]models.PublishedRating, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[sport], nil
}

func (f *fakeStore) Top(_ context.Context, sport models.Sport, n int) ([]models.PublishedRating, error) {
	f.topCalls++
	if f.err != nil {
		return nil, f.err
	}
	rows := f.rows[sport]
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

func (f *fakeStore) GetByTeam(_ context.Context, sport models.Sport, team string) (*models.PublishedRating, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, row := range f.rows[sport] {
		if row.Team == team {
			row := row
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeCache struct {
	rows map[models.Sport][]models.PublishedRating
	err  error
}

func (f *fakeCache) GetRatings(_ context.Context, sport models.Sport) ([]models.PublishedRating, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	rows, ok := f.rows[sport]
	return rows, ok, nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) Health(context.Context) error { return f.err }

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeRatings(t *testing.T, rec *httptest.ResponseRecorder) ratingsResponse {
	t.Helper()
	var body ratingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRatings_FromStore(t *testing.T) {
	store := &fakeStore{rows: map[models.Sport][]models.PublishedRating{models.SportNFL: nflRows()}}
	h := NewServer(store, nil, fakeHealth{}).Handler()

	rec := get(t, h, "/ratings?sport=NFL")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeRatings(t, rec)
	assert.Equal(t, models.SportNFL, body.Sport)
	assert.Equal(t, "store", body.Source)
	assert.Equal(t, 3, body.Count)
	assert.Equal(t, nflRows(), body.Ratings)
}

func TestRatings_LimitUsesTop(t *testing.T) {
	store := &fakeStore{rows: map[models.Sport][]models.PublishedRating{models.SportNFL: nflRows()}}
	h := NewServer(store, nil, fakeHealth{}).Handler()

	body := decodeRatings(t, get(t, h, "/ratings?sport=nfl&limit=2"))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "Lions", body.Ratings[1].Team)
	assert.Equal(t, 1, store.topCalls)
}

func TestRatings_CacheFirst(t *testing.T) {
	store := &fakeStore{err: errors.New("store must not be read")}
	c := &fakeCache{rows: map[models.Sport][]models.PublishedRating{models.SportNFL: nflRows()}}
	h := NewServer(store, c, fakeHealth{}).Handler()

	rec := get(t, h, "/ratings?sport=nfl&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeRatings(t, rec)
	assert.Equal(t, "cache", body.Source)
	require.Len(t, body.Ratings, 1)
	assert.Equal(t, "Chiefs", body.Ratings[0].Team)
}

func TestRatings_CacheErrorFallsBackToStore(t *testing.T) {
	store := &fakeStore{rows: map[models.Sport][]models.PublishedRating{models.SportNFL: nflRows()}}
	h := NewServer(store, &fakeCache{err: errors.New("redis down")}, fakeHealth{}).Handler()

	body := decodeRatings(t, get(t, h, "/ratings?sport=nfl"))
	assert.Equal(t, "store", body.Source)
	assert.Equal(t, 3, body.Count)
}

func TestRatings_EmptySportIsEmptyList(t *testing.T) {
	h := NewServer(&fakeStore{}, nil, fakeHealth{}).Handler()

	rec := get(t, h, "/ratings?sport=mls")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sport":"mls","count":0,"source":"store","ratings":[]}`, rec.Body.String())
}

func TestRatings_BadRequests(t *testing.T) {
	h := NewServer(&fakeStore{}, nil, fakeHealth{}).Handler()

	tests := []struct {
		name   string
		target string
	}{
		{"missing sport", "/ratings"},
		{"unknown sport", "/ratings?sport=cricket"},
		{"zero limit", "/ratings?sport=nfl&limit=0"},
		{"non-numeric limit", "/ratings?sport=nfl&limit=ten"},
		{"team missing", "/ratings/team?sport=nfl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, get(t, h, tt.target).Code)
		})
	}
}

func TestRatings_StoreError(t *testing.T) {
	h := NewServer(&fakeStore{err: errors.New("pool closed")}, nil, fakeHealth{}).Handler()
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/ratings?sport=nfl").Code)
}

func TestRatings_MethodNotAllowed(t *testing.T) {
	h := NewServer(&fakeStore{}, nil, fakeHealth{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ratings?sport=nfl", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTeam_FromStore(t *testing.T) {
	store := &fakeStore{rows: map[models.Sport][]models.PublishedRating{models.SportNFL: nflRows()}}
	h := NewServer(store, nil, fakeHealth{}).Handler()

	rec := get(t, h, "/ratings/team?sport=nfl&team=Lions")
	require.Equal(t, http.StatusOK, rec.Code)

	var row models.PublishedRating
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Equal(t, 1604, row.Elo)
	assert.Equal(t, 2, row.Rank)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/ratings/team?sport=nfl&team=Jets").Code)
}

func TestTeam_FromCache(t *testing.T) {
	store := &fakeStore{err: errors.New("store must not be read")}
	c := &fakeCache{rows: map[models.Sport][]models.PublishedRating{models.SportNFL: nflRows()}}
	h := NewServer(store, c, fakeHealth{}).Handler()

	rec := get(t, h, "/ratings/team?sport=nfl&team=Bears")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"power":-20`)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/ratings/team?sport=nfl&team=Jets").Code)
}

func TestHealth(t *testing.T) {
	rec := get(t, NewServer(&fakeStore{}, nil, fakeHealth{}).Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = get(t, NewServer(&fakeStore{}, nil, fakeHealth{err: errors.New("db down")}).Handler(), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, NewServer(&fakeStore{}, nil, fakeHealth{}).Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
