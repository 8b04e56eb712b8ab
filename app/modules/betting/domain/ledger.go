package bettingdomain

import (
	"crypto/sha256"
	"encoding/hex"

	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
)

// Delta is a signed change to a user's totals.
type Delta struct {
	Points int
	Stars  int
}

// ScoreDelta is the change produced by replacing old with new.
func ScoreDelta(old, new Score) Delta {
	return Delta{Points: new.Points - old.Points, Stars: new.Stars() - old.Stars()}
}

func (d Delta) IsZero() bool { return d.Points == 0 && d.Stars == 0 }

func (d Delta) Add(o Delta) Delta {
	return Delta{Points: d.Points + o.Points, Stars: d.Stars + o.Stars}
}

// ScoredBet is a stored bet together with the score it currently carries.
type ScoredBet struct {
	BetID      uuid.UUID
	UserID     uuid.UUID
	Prediction sharedtypes.Podium
	Current    Score
}

// Rescore is the new score for one bet and the delta it implies.
type Rescore struct {
	BetID  uuid.UUID
	UserID uuid.UUID
	Old    Score
	New    Score
	Delta  Delta
}

// Plan is the full set of writes a reconciliation pass performs for one race.
type Plan struct {
	Rescores   []Rescore
	UserDeltas map[uuid.UUID]Delta
	Total      Delta
}

// Changed returns the rescores whose score actually moved.
func (p Plan) Changed() []Rescore {
	out := make([]Rescore, 0, len(p.Rescores))
	for _, r := range p.Rescores {
		if r.Old != r.New {
			out = append(out, r)
		}
	}
	return out
}

// BuildPlan scores every bet against result and derives the deltas relative
// to the score each bet currently holds. Running it again on the plan's
// output yields an all-zero plan.
func BuildPlan(bets []ScoredBet, result sharedtypes.Podium, rules ScoringRules) Plan {
	plan := Plan{
		Rescores:   make([]Rescore, 0, len(bets)),
		UserDeltas: make(map[uuid.UUID]Delta),
	}
	for _, b := range bets {
		next := rules.Score(b.Prediction, result)
		d := ScoreDelta(b.Current, next)
		plan.Rescores = append(plan.Rescores, Rescore{
			BetID:  b.BetID,
			UserID: b.UserID,
			Old:    b.Current,
			New:    next,
			Delta:  d,
		})
		if !d.IsZero() {
			plan.UserDeltas[b.UserID] = plan.UserDeltas[b.UserID].Add(d)
			plan.Total = plan.Total.Add(d)
		}
	}
	return plan
}

// ResultFingerprint identifies a result for the reconciliation audit trail.
func ResultFingerprint(result sharedtypes.Podium) string {
	sum := sha256.Sum256([]byte(result.String()))
	return hex.EncodeToString(sum[:])
}
