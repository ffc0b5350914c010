package models

import "time"

// BaselineRating is the rating every team starts from in a run
const BaselineRating = 1500.0

// MinGamesPublished is the sample size a team needs before it is published
const MinGamesPublished = 3

// RatingState is a team's running rating inside one recompute pass
type RatingState struct {
	Team        string
	Sport       Sport
	Rating      float64
	GamesPlayed int
}

// PublishedRating is a ranked row handed to the rating store
type PublishedRating struct {
	Sport       Sport     `db:"sport" json:"sport"`
	Team        string    `db:"team" json:"team"`
	Elo         int       `db:"elo" json:"elo"`
	Power       int       `db:"power" json:"power"`
	Rank        int       `db:"rank" json:"rank"`
	GamesPlayed int       `db:"games_played" json:"games_played"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
