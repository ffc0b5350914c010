package models

import (
	"fmt"
	"strings"
)

// Sport identifies one rated league. Ratings never cross sports.
type Sport string

const (
	SportNFL   Sport = "nfl"
	SportNCAAF Sport = "ncaaf"
	SportNBA   Sport = "nba"
	SportNCAAB Sport = "ncaab"
	SportMLB   Sport = "mlb"
	SportNHL   Sport = "nhl"
	SportMLS   Sport = "mls"
)

// AllSports returns every supported sport in a fixed order
func AllSports() []Sport {
	return []Sport{SportNFL, SportNCAAF, SportNBA, SportNCAAB, SportMLB, SportNHL, SportMLS}
}

// Valid reports whether s is a supported sport
func (s Sport) Valid() bool {
	for _, known := range AllSports() {
		if s == known {
			return true
		}
	}
	return false
}

func (s Sport) String() string {
	return string(s)
}

// ParseSport converts a case-insensitive sport key into a Sport
func ParseSport(key string) (Sport, error) {
	s := Sport(strings.ToLower(strings.TrimSpace(key)))
	if !s.Valid() {
		return "", fmt.Errorf("unsupported sport: %q", key)
	}
	return s, nil
}
