package bettinghandlers

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	bettingservice "github.com/Black-And-White-Club/podium-bot/app/modules/betting/application"
	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	bettingevents "github.com/Black-And-White-Club/podium-bot/app/modules/betting/events"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestHandlers(svc *FakeBettingService) *BettingHandlers {
	return NewBettingHandlers(svc, slog.Default(), noop.NewTracerProvider().Tracer("test"))
}

func TestHandleRaceResultSubmitted(t *testing.T) {
	raceID := uuid.New()
	payload := &bettingevents.RaceResultSubmittedPayloadV1{
		RaceID: raceID,
		Result: sharedtypes.NewPodium("VER", "NOR", "LEC"),
		Source: "feed",
	}

	tests := []struct {
		name         string
		setupService func(*FakeBettingService)
		wantTopics   []string
		wantErr      bool
	}{
		{
			name:         "applied",
			setupService: func(*FakeBettingService) {},
		},
		{
			name: "deferred counts as applied",
			setupService: func(f *FakeBettingService) {
				f.ApplyRaceResultFunc = func(context.Context, uuid.UUID, sharedtypes.Podium) (*bettingservice.ReconcileSummary, error) {
					return &bettingservice.ReconcileSummary{RaceID: raceID, Deferred: true}, nil
				}
			},
		},
		{
			name: "race not found is rejected",
			setupService: func(f *FakeBettingService) {
				f.ApplyRaceResultFunc = func(context.Context, uuid.UUID, sharedtypes.Podium) (*bettingservice.ReconcileSummary, error) {
					return nil, bettingdomain.ErrRaceNotFound
				}
			},
			wantTopics: []string{bettingevents.RaceResultRejectedV1},
		},
		{
			name: "incomplete result is rejected",
			setupService: func(f *FakeBettingService) {
				f.ApplyRaceResultFunc = func(context.Context, uuid.UUID, sharedtypes.Podium) (*bettingservice.ReconcileSummary, error) {
					return nil, bettingdomain.ErrResultIncomplete
				}
			},
			wantTopics: []string{bettingevents.RaceResultRejectedV1},
		},
		{
			name: "infrastructure error is retried",
			setupService: func(f *FakeBettingService) {
				f.ApplyRaceResultFunc = func(context.Context, uuid.UUID, sharedtypes.Podium) (*bettingservice.ReconcileSummary, error) {
					return nil, errors.New("database down")
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeBettingService()
			tt.setupService(svc)
			h := newTestHandlers(svc)

			results, err := h.HandleRaceResultSubmitted(context.Background(), payload)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, results)
				return
			}
			assert.NoError(t, err)
			topics := make([]string, 0, len(results))
			for _, r := range results {
				topics = append(topics, r.Topic)
			}
			if tt.wantTopics == nil {
				assert.Empty(t, topics)
			} else {
				assert.Equal(t, tt.wantTopics, topics)
				rejected, ok := results[0].Payload.(bettingevents.RaceResultRejectedPayloadV1)
				assert.True(t, ok)
				assert.Equal(t, raceID, rejected.RaceID)
			}
			assert.Equal(t, []string{"ApplyRaceResult"}, svc.Trace())
		})
	}
}

func TestHandleReconcileRequested(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "reconciled"},
		{name: "unknown race is dropped", err: bettingdomain.ErrRaceNotFound},
		{name: "infrastructure error is retried", err: errors.New("timeout"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeBettingService()
			svc.ReconcileRaceFunc = func(ctx context.Context, raceID uuid.UUID) (*bettingservice.ReconcileSummary, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &bettingservice.ReconcileSummary{RaceID: raceID}, nil
			}
			h := newTestHandlers(svc)

			results, err := h.HandleReconcileRequested(context.Background(), &bettingevents.ReconcileRequestedPayloadV1{RaceID: uuid.New()})

			assert.Nil(t, results)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
