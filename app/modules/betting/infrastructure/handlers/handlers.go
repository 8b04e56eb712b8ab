package bettinghandlers

import (
	"context"
	"log/slog"

	bettingservice "github.com/Black-And-White-Club/podium-bot/app/modules/betting/application"
	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	bettingevents "github.com/Black-And-White-Club/podium-bot/app/modules/betting/events"
	"github.com/Black-And-White-Club/podium-bot/app/shared/handlerwrapper"
	"go.opentelemetry.io/otel/trace"
)

// BettingHandlers serves both the event handlers and the HTTP API.
type BettingHandlers struct {
	service bettingservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewBettingHandlers creates a new BettingHandlers instance.
func NewBettingHandlers(
	service bettingservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) *BettingHandlers {
	return &BettingHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleRaceResultSubmitted applies a result published by the race feed or an admin
// tool. Rejected results are answered with a rejection event; infrastructure
// errors are returned so the message is redelivered.
func (h *BettingHandlers) HandleRaceResultSubmitted(ctx context.Context, payload *bettingevents.RaceResultSubmittedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "BettingHandlers.HandleRaceResultSubmitted")
	defer span.End()

	h.logger.InfoContext(ctx, "Race result received",
		slog.String("race_id", payload.RaceID.String()),
		slog.String("result", payload.Result.String()),
		slog.String("source", payload.Source),
	)

	summary, err := h.service.ApplyRaceResult(ctx, payload.RaceID, payload.Result)
	if err != nil {
		if !bettingdomain.IsBusinessError(err) {
			return nil, err
		}
		h.logger.WarnContext(ctx, "Race result rejected",
			slog.String("race_id", payload.RaceID.String()),
			slog.String("error", err.Error()),
		)
		return []handlerwrapper.Result{{
			Topic: bettingevents.RaceResultRejectedV1,
			Payload: bettingevents.RaceResultRejectedPayloadV1{
				RaceID: payload.RaceID,
				Reason: err.Error(),
			},
		}}, nil
	}

	h.logger.InfoContext(ctx, "Race result applied",
		slog.String("race_id", payload.RaceID.String()),
		slog.Int("revision", summary.Revision),
		slog.Int("bets_changed", summary.BetsChanged),
		slog.Bool("deferred", summary.Deferred),
	)
	return nil, nil
}

// HandleReconcileRequested re-runs reconciliation. A race that no longer
// exists is acknowledged and dropped.
func (h *BettingHandlers) HandleReconcileRequested(ctx context.Context, payload *bettingevents.ReconcileRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "BettingHandlers.HandleReconcileRequested")
	defer span.End()

	summary, err := h.service.ReconcileRace(ctx, payload.RaceID)
	if err != nil {
		if bettingdomain.IsBusinessError(err) {
			h.logger.WarnContext(ctx, "Dropping reconcile request",
				slog.String("race_id", payload.RaceID.String()),
				slog.String("error", err.Error()),
			)
			return nil, nil
		}
		return nil, err
	}

	h.logger.InfoContext(ctx, "Race reconciled on request",
		slog.String("race_id", payload.RaceID.String()),
		slog.Int("revision", summary.Revision),
		slog.Bool("skipped", summary.Skipped),
	)
	return nil, nil
}

var _ Handlers = (*BettingHandlers)(nil)
