package bettingevents

import (
	"time"

	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
)

const (
	// RaceResultSubmittedV1 asks the engine to record an official result.
	RaceResultSubmittedV1 = "race.result.submitted.v1"
	// RaceResultRejectedV1 reports a submitted result the engine refused.
	RaceResultRejectedV1 = "betting.race.result.rejected.v1"
	// ReconcileRequestedV1 asks the engine to re-run reconciliation for a race.
	ReconcileRequestedV1 = "betting.race.reconcile.requested.v1"

	// BetPlacedV1 is published after a bet is stored.
	BetPlacedV1 = "betting.bet.placed.v1"
	// RaceReconciledV1 is published after a reconciliation pass commits.
	RaceReconciledV1 = "betting.race.reconciled.v1"
)

type RaceResultSubmittedPayloadV1 struct {
	RaceID uuid.UUID          `json:"race_id"`
	Result sharedtypes.Podium `json:"result"`
	Source string             `json:"source,omitempty"`
}

type RaceResultRejectedPayloadV1 struct {
	RaceID uuid.UUID `json:"race_id"`
	Reason string    `json:"reason"`
}

type ReconcileRequestedPayloadV1 struct {
	RaceID uuid.UUID `json:"race_id"`
}

type BetPlacedPayloadV1 struct {
	BetID      uuid.UUID          `json:"bet_id"`
	UserID     uuid.UUID          `json:"user_id"`
	RaceID     uuid.UUID          `json:"race_id"`
	Prediction sharedtypes.Podium `json:"prediction"`
	PlacedAt   time.Time          `json:"placed_at"`
}

type RaceReconciledPayloadV1 struct {
	RaceID      uuid.UUID `json:"race_id"`
	Revision    int       `json:"revision"`
	BetsScored  int       `json:"bets_scored"`
	BetsChanged int       `json:"bets_changed"`
	PointsDelta int       `json:"points_delta"`
	StarsDelta  int       `json:"stars_delta"`
}
