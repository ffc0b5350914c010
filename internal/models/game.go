package models

import (
	"database/sql"
	"strings"
	"time"
)

// RawGame is a game row as stored, before any normalization
type RawGame struct {
	ID        int64         `db:"id"`
	Sport     Sport         `db:"sport"`
	HomeTeam  string        `db:"home_team"`
	AwayTeam  string        `db:"away_team"`
	HomeScore sql.NullInt32 `db:"home_score"`
	AwayScore sql.NullInt32 `db:"away_score"`
	GameDate  time.Time     `db:"game_date"`
	Status    string        `db:"status"`
}

// GameRecord is a completed, scored game ready for rating
type GameRecord struct {
	Sport     Sport
	HomeTeam  string
	AwayTeam  string
	HomeScore int
	AwayScore int
	Date      time.Time
}

// ExclusionReason explains why a raw game never reaches the rating core
type ExclusionReason string

const (
	ExcludeNone            ExclusionReason = ""
	ExcludeNotFinal        ExclusionReason = "not_final"
	ExcludeMissingScore    ExclusionReason = "missing_score"
	ExcludePlaceholderTeam ExclusionReason = "placeholder_team"
	ExcludeScorelessGame   ExclusionReason = "scoreless"
	ExcludeNegativeScore   ExclusionReason = "negative_score"
)

var placeholderTeams = map[string]struct{}{
	"":                 {},
	"tbd":              {},
	"tba":              {},
	"to be determined": {},
	"to be announced":  {},
	"unknown":          {},
}

var finalStatuses = map[string]struct{}{
	"final":     {},
	"closed":    {},
	"complete":  {},
	"completed": {},
}

// IsFinalStatus reports whether a stored game status marks a decided result.
// Accepts "Final" and its overtime/shootout variants such as "F/OT", "F/SO",
// "F/2OT" and "Final/OT", case-insensitively.
func IsFinalStatus(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	if _, ok := finalStatuses[s]; ok {
		return true
	}
	return strings.HasPrefix(s, "f/") || strings.HasPrefix(s, "final/") || strings.HasPrefix(s, "final ")
}

// IsPlaceholderTeam reports whether name stands in for a not-yet-known team
func IsPlaceholderTeam(name string) bool {
	_, ok := placeholderTeams[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Normalize converts a raw row into a GameRecord.
// Only final games are kept; interim scores of live games never count.
// A 0-0 score is treated as not played, not as a tie.
func (g *RawGame) Normalize() (GameRecord, ExclusionReason) {
	if !IsFinalStatus(g.Status) {
		return GameRecord{}, ExcludeNotFinal
	}
	if !g.HomeScore.Valid || !g.AwayScore.Valid {
		return GameRecord{}, ExcludeMissingScore
	}
	if IsPlaceholderTeam(g.HomeTeam) || IsPlaceholderTeam(g.AwayTeam) {
		return GameRecord{}, ExcludePlaceholderTeam
	}
	if g.HomeScore.Int32 < 0 || g.AwayScore.Int32 < 0 {
		return GameRecord{}, ExcludeNegativeScore
	}
	if g.HomeScore.Int32 == 0 && g.AwayScore.Int32 == 0 {
		return GameRecord{}, ExcludeScorelessGame
	}

	return GameRecord{
		Sport:     g.Sport,
		HomeTeam:  strings.TrimSpace(g.HomeTeam),
		AwayTeam:  strings.TrimSpace(g.AwayTeam),
		HomeScore: int(g.HomeScore.Int32),
		AwayScore: int(g.AwayScore.Int32),
		Date:      g.GameDate,
	}, ExcludeNone
}
