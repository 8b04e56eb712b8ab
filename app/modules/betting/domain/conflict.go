package bettingdomain

import (
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
)

// ValidatePrediction runs the checks that need no other bets:
// pairwise-distinct drivers, then the qualifying-copy rule. The qualifying
// rule only applies once all three qualifying positions are known.
func ValidatePrediction(prediction sharedtypes.Podium, qualifying *sharedtypes.Podium) error {
	if !prediction.IsComplete() || !prediction.IsDistinct() {
		return ErrDuplicateDriverInBet
	}
	if qualifying != nil && qualifying.IsComplete() && *qualifying == prediction {
		return ErrMatchesQualifying
	}
	return nil
}

// Occupancy is what the store already holds for a race, seen from one submission.
type Occupancy struct {
	// UserHasBet is true when the submitting user already holds a bet for the race.
	UserHasBet bool
	// CombinationTaken is true when another bet holds the same ordered triple.
	CombinationTaken bool
}

// CheckOccupancy runs the uniqueness checks, user first.
func CheckOccupancy(o Occupancy) error {
	if o.UserHasBet {
		return ErrDuplicateUserBet
	}
	if o.CombinationTaken {
		return ErrCombinationTaken
	}
	return nil
}

// CheckAdmission runs every admission check in order.
func CheckAdmission(prediction sharedtypes.Podium, qualifying *sharedtypes.Podium, o Occupancy) error {
	if err := ValidatePrediction(prediction, qualifying); err != nil {
		return err
	}
	return CheckOccupancy(o)
}
