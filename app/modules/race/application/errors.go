package raceservice

import "errors"

var (
	ErrRaceNotFound   = errors.New("race not found")
	ErrDriverNotFound = errors.New("driver not found")
	ErrDuplicateRace  = errors.New("a race with that name already starts at that time")
	// ErrRaceHasResult blocks edits that would strand scored bets.
	ErrRaceHasResult = errors.New("race has a recorded result")

	ErrInvalidRace       = errors.New("invalid race")
	ErrInvalidDriver     = errors.New("invalid driver")
	ErrInvalidQualifying = errors.New("qualifying needs three distinct drivers")
	ErrUnknownDriver     = errors.New("unknown driver")
)

// IsValidationError reports whether err rejects the caller's input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRace) ||
		errors.Is(err, ErrInvalidDriver) ||
		errors.Is(err, ErrInvalidQualifying) ||
		errors.Is(err, ErrUnknownDriver)
}
