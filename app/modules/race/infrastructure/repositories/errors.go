package racedb

import "errors"

var (
	// ErrNotFound indicates the requested race or driver does not exist.
	ErrNotFound = errors.New("race record not found")

	// ErrDuplicateRace is a violation of the one-race-per-name-and-start constraint.
	ErrDuplicateRace = errors.New("race already scheduled at that time")
)

const constraintRaceNameStart = "races_name_starts_at_key"
