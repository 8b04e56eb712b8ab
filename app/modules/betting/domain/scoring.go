package bettingdomain

import (
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
)

// ScoringRules holds the per-slot reward for an exact position and the flat
// reward for a podium driver predicted in the wrong slot.
type ScoringRules struct {
	SlotPoints [3]int
	Misplaced  int
}

// DefaultScoringRules is 25/18/15 for exact slots and 5 for a misplaced podium driver.
func DefaultScoringRules() ScoringRules {
	return ScoringRules{SlotPoints: [3]int{25, 18, 15}, Misplaced: 5}
}

// MaxPoints is the score of a perfect prediction.
func (r ScoringRules) MaxPoints() int {
	return r.SlotPoints[0] + r.SlotPoints[1] + r.SlotPoints[2]
}

// Score is the evaluated outcome of one bet.
type Score struct {
	Points  int
	Perfect bool
}

// Stars is 1 for a perfect prediction.
func (s Score) Stars() int {
	if s.Perfect {
		return 1
	}
	return 0
}

// Score evaluates a prediction slot by slot. Each slot earns its exact reward,
// or the misplaced reward when the driver finished elsewhere on the podium.
func (r ScoringRules) Score(prediction, result sharedtypes.Podium) Score {
	predicted := prediction.Slots()
	actual := result.Slots()

	points := 0
	exact := 0
	for i, driver := range predicted {
		switch {
		case driver == actual[i]:
			points += r.SlotPoints[i]
			exact++
		case result.Contains(driver):
			points += r.Misplaced
		}
	}
	return Score{Points: points, Perfect: exact == len(predicted)}
}
