package bettinghandlers

import (
	"context"

	bettingevents "github.com/Black-And-White-Club/podium-bot/app/modules/betting/events"
	"github.com/Black-And-White-Club/podium-bot/app/shared/handlerwrapper"
)

// Handlers defines the interface for betting event handlers.
type Handlers interface {
	// HandleRaceResultSubmitted records an official result and reconciles the race.
	HandleRaceResultSubmitted(ctx context.Context, payload *bettingevents.RaceResultSubmittedPayloadV1) ([]handlerwrapper.Result, error)

	// HandleReconcileRequested re-runs reconciliation for a race.
	HandleReconcileRequested(ctx context.Context, payload *bettingevents.ReconcileRequestedPayloadV1) ([]handlerwrapper.Result, error)
}
