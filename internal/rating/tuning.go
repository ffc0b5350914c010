package rating

import (
	"fmt"

	"sportsedge/ratings/internal/models"
)

// Margin-of-victory constants by sport family. Sports decided by a goal or a
// run move further per point of margin.
const (
	highScoringMarginFactor = 0.6
	lowScoringMarginFactor  = 1.0
)

// Tuning holds the per-sport update constants
type Tuning struct {
	// K scales every rating change
	K float64
	// HomeAdvantage is added to the home rating only when computing expectation
	HomeAdvantage float64
	// MarginFactor multiplies ln(margin+1)
	MarginFactor float64
}

// TuningTable maps each sport to its constants
type TuningTable map[models.Sport]Tuning

// DefaultTuning returns a fresh copy of the production constants
func DefaultTuning() TuningTable {
	return TuningTable{
		models.SportNFL:   {K: 20, HomeAdvantage: 50, MarginFactor: highScoringMarginFactor},
		models.SportNCAAF: {K: 25, HomeAdvantage: 55, MarginFactor: highScoringMarginFactor},
		models.SportNBA:   {K: 20, HomeAdvantage: 100, MarginFactor: highScoringMarginFactor},
		models.SportNCAAB: {K: 25, HomeAdvantage: 100, MarginFactor: highScoringMarginFactor},
		models.SportMLB:   {K: 6, HomeAdvantage: 24, MarginFactor: lowScoringMarginFactor},
		models.SportNHL:   {K: 8, HomeAdvantage: 33, MarginFactor: lowScoringMarginFactor},
		models.SportMLS:   {K: 20, HomeAdvantage: 60, MarginFactor: lowScoringMarginFactor},
	}
}

// Lookup returns the constants for sport
func (t TuningTable) Lookup(sport models.Sport) (Tuning, error) {
	tuning, ok := t[sport]
	if !ok {
		return Tuning{}, fmt.Errorf("%w: %s", ErrUnknownSport, sport)
	}
	return tuning, nil
}

// clone copies the table so callers cannot mutate an engine's constants
func (t TuningTable) clone() TuningTable {
	out := make(TuningTable, len(t))
	for sport, tuning := range t {
		out[sport] = tuning
	}
	return out
}
