// Package rating folds ordered game history into Elo-style team ratings and
// ranks the result for publication.
package rating

import (
	"errors"
	"math"

	"sportsedge/ratings/internal/models"
)

// ErrUnknownSport is returned when no tuning exists for a sport
var ErrUnknownSport = errors.New("no tuning for sport")

// Engine recomputes ratings from scratch. It holds no state between calls.
type Engine struct {
	tuning TuningTable
}

// NewEngine creates an engine with its own copy of table
func NewEngine(table TuningTable) *Engine {
	return &Engine{tuning: table.clone()}
}

// Tuning returns the constants the engine uses for sport
func (e *Engine) Tuning(sport models.Sport) (Tuning, error) {
	return e.tuning.Lookup(sport)
}

// ratingBook tracks every team's state during one pass
type ratingBook struct {
	sport  models.Sport
	states map[string]*models.RatingState
}

func newRatingBook(sport models.Sport) *ratingBook {
	return &ratingBook{sport: sport, states: make(map[string]*models.RatingState)}
}

// state returns the team's state, inserting it at the baseline on first sight
func (b *ratingBook) state(team string) *models.RatingState {
	s, ok := b.states[team]
	if !ok {
		s = &models.RatingState{
			Team:        team,
			Sport:       b.sport,
			Rating:      models.BaselineRating,
			GamesPlayed: 0,
		}
		b.states[team] = s
	}
	return s
}

// Compute folds games, in the order given, into final rating states.
// Games must already be sorted by date; they are never reordered here.
func (e *Engine) Compute(sport models.Sport, games []models.GameRecord) (map[string]*models.RatingState, error) {
	tuning, err := e.tuning.Lookup(sport)
	if err != nil {
		return nil, err
	}

	book := newRatingBook(sport)
	for i := range games {
		applyGame(book, tuning, &games[i])
	}

	return book.states, nil
}

// applyGame updates both teams for a single result
func applyGame(book *ratingBook, tuning Tuning, game *models.GameRecord) {
	home := book.state(game.HomeTeam)
	away := book.state(game.AwayTeam)

	expectedHome := ExpectedScore(home.Rating+tuning.HomeAdvantage, away.Rating)
	expectedAway := 1 - expectedHome

	// Only a strict home win counts; level scores fall to the away side.
	actualHome := 0.0
	if game.HomeScore > game.AwayScore {
		actualHome = 1
	}
	actualAway := 1 - actualHome

	margin := MarginMultiplier(game.HomeScore-game.AwayScore, tuning.MarginFactor)

	home.Rating += Round(tuning.K * margin * (actualHome - expectedHome))
	away.Rating += Round(tuning.K * margin * (actualAway - expectedAway))

	home.GamesPlayed++
	away.GamesPlayed++
}

// ExpectedScore is the logistic win expectation of a side rated a against b
func ExpectedScore(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/400))
}

// MarginMultiplier damps rating movement by the score differential
func MarginMultiplier(diff int, factor float64) float64 {
	if diff < 0 {
		diff = -diff
	}
	return math.Log(float64(diff)+1) * factor
}

// Round rounds half up, the rule used for every integer the engine emits
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}
