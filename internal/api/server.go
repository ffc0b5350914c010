// Package api serves published ratings, health, and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"sportsedge/ratings/internal/models"
	"sportsedge/ratings/internal/repository"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// RatingReader queries the rating store
type RatingReader interface {
	ListBySport(ctx context.Context, sport models.Sport) ([]models.PublishedRating, error)
	Top(ctx context.Context, sport models.Sport, n int) ([]models.PublishedRating, error)
	GetByTeam(ctx context.Context, sport models.Sport, team string) (*models.PublishedRating, error)
}

// SnapshotReader reads cached published ratings
type SnapshotReader interface {
	GetRatings(ctx context.Context, sport models.Sport) ([]models.PublishedRating, bool, error)
}

// HealthChecker reports backing store health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server exposes the HTTP endpoints
type Server struct {
	store  RatingReader
	cache  SnapshotReader
	health HealthChecker
}

// NewServer creates a server. cache may be nil.
func NewServer(store RatingReader, cache SnapshotReader, health HealthChecker) *Server {
	return &Server{store: store, cache: cache, health: health}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ratings", s.handleRatings)
	mux.HandleFunc("/ratings/team", s.handleTeam)
	return mux
}

type ratingsResponse struct {
	Sport   models.Sport             `json:"sport"`
	Count   int                      `json:"count"`
	Source  string                   `json:"source"`
	Ratings []models.PublishedRating `json:"ratings"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Health(r.Context()); err != nil {
		log.Warn().Err(err).Msg("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRatings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sport, ok := sportParam(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	if rows, hit := s.cached(r.Context(), sport); hit {
		if limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
		writeRatings(w, sport, "cache", rows)
		return
	}

	var (
		rows []models.PublishedRating
		err  error
	)
	if limit > 0 {
		rows, err = s.store.Top(r.Context(), sport, limit)
	} else {
		rows, err = s.store.ListBySport(r.Context(), sport)
	}
	if err != nil {
		log.Error().Err(err).Str("sport", string(sport)).Msg("Failed to read ratings")
		writeError(w, http.StatusInternalServerError, "failed to read ratings")
		return
	}
	writeRatings(w, sport, "store", rows)
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sport, ok := sportParam(w, r)
	if !ok {
		return
	}

	team := strings.TrimSpace(r.URL.Query().Get("team"))
	if team == "" {
		writeError(w, http.StatusBadRequest, "team is required")
		return
	}

	// A cached snapshot is the complete published set, so a miss inside it is a 404.
	if rows, hit := s.cached(r.Context(), sport); hit {
		for i := range rows {
			if rows[i].Team == team {
				writeJSON(w, http.StatusOK, rows[i])
				return
			}
		}
		writeError(w, http.StatusNotFound, "team not rated")
		return
	}

	row, err := s.store.GetByTeam(r.Context(), sport, team)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "team not rated")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("sport", string(sport)).Str("team", team).Msg("Failed to read team rating")
		writeError(w, http.StatusInternalServerError, "failed to read rating")
		return
	}

	writeJSON(w, http.StatusOK, row)
}

// cached returns the snapshot for sport, treating cache errors as misses
func (s *Server) cached(ctx context.Context, sport models.Sport) ([]models.PublishedRating, bool) {
	if s.cache == nil {
		return nil, false
	}
	rows, hit, err := s.cache.GetRatings(ctx, sport)
	if err != nil {
		log.Warn().Err(err).Str("sport", string(sport)).Msg("Ratings cache read failed, using store")
		return nil, false
	}
	return rows, hit
}

func sportParam(w http.ResponseWriter, r *http.Request) (models.Sport, bool) {
	sport, err := models.ParseSport(r.URL.Query().Get("sport"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return sport, true
}

func writeRatings(w http.ResponseWriter, sport models.Sport, source string, rows []models.PublishedRating) {
	if rows == nil {
		rows = []models.PublishedRating{}
	}
	writeJSON(w, http.StatusOK, ratingsResponse{Sport: sport, Count: len(rows), Source: source, Ratings: rows})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
