package bettingdb

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUserRaceTaken is a violation of the one-bet-per-user-per-race constraint.
	ErrUserRaceTaken = errors.New("user already holds a bet for this race")

	// ErrPredictionTaken is a violation of the one-bet-per-combination-per-race constraint.
	ErrPredictionTaken = errors.New("prediction already held for this race")
)

const (
	constraintUserRace   = "bets_user_race_key"
	constraintPrediction = "bets_race_prediction_key"
)
