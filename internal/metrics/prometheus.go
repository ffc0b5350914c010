package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the rating worker

var (
	// Recompute metrics
	RecomputeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratings_recompute_runs_total",
			Help: "Total number of per-sport recompute runs",
		},
		[]string{"sport", "status"},
	)

	RecomputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratings_recompute_duration_seconds",
			Help:    "Duration of a per-sport recompute in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"sport"},
	)

	GamesProcessed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ratings_games_processed",
			Help: "Games folded into the last successful recompute",
		},
		[]string{"sport"},
	)

	TeamsRated = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ratings_teams_rated",
			Help: "Teams seen in the last successful recompute",
		},
		[]string{"sport"},
	)

	TeamsPublished = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ratings_teams_published",
			Help: "Teams published by the last successful recompute",
		},
		[]string{"sport"},
	)

	LastSuccessfulRecompute = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ratings_last_successful_recompute_timestamp",
			Help: "Timestamp of the last successful recompute",
		},
		[]string{"sport"},
	)

	// Loader metrics
	GamesExcludedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratings_games_excluded_total",
			Help: "Games dropped by the history loader",
		},
		[]string{"sport", "reason"},
	)

	// Database metrics
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratings_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "table", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratings_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratings_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratings_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ratings_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ratings_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratings_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
		},
		[]string{"operation"},
	)

	LockContentionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratings_lock_contention_total",
			Help: "Recompute runs skipped because the sport was already locked",
		},
		[]string{"sport"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratings_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratings_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordRecompute records the outcome of one sport's recompute
func RecordRecompute(sport, status string, duration float64) {
	RecomputeRunsTotal.WithLabelValues(sport, status).Inc()
	RecomputeDuration.WithLabelValues(sport).Observe(duration)

	if status == "success" {
		LastSuccessfulRecompute.WithLabelValues(sport).SetToCurrentTime()
	}
}

// UpdateRecomputeStats records the sizes of a successful recompute
func UpdateRecomputeStats(sport string, games, teams, published int) {
	GamesProcessed.WithLabelValues(sport).Set(float64(games))
	TeamsRated.WithLabelValues(sport).Set(float64(teams))
	TeamsPublished.WithLabelValues(sport).Set(float64(published))
}

// RecordExcludedGames records games the loader dropped
func RecordExcludedGames(sport, reason string, count int) {
	GamesExcludedTotal.WithLabelValues(sport, reason).Add(float64(count))
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table, status string, duration float64) {
	DBQueriesTotal.WithLabelValues(operation, table, status).Inc()
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordCacheOperation records a cache operation's latency
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordLockContention records a run skipped on a held lock
func RecordLockContention(sport string) {
	LockContentionTotal.WithLabelValues(sport).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
