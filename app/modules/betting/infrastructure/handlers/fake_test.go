package bettinghandlers

import (
	"context"

	bettingservice "github.com/Black-And-White-Club/podium-bot/app/modules/betting/application"
	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
)

// ------------------------
// Fake Betting Service
// ------------------------

type FakeBettingService struct {
	trace []string

	SubmitBetFunc        func(ctx context.Context, userID, raceID uuid.UUID, prediction sharedtypes.Podium) (*bettingservice.BetInfo, error)
	UpdateBetFunc        func(ctx context.Context, userID, betID uuid.UUID, prediction sharedtypes.Podium) (*bettingservice.BetInfo, error)
	DeleteBetFunc        func(ctx context.Context, actor bettingservice.Actor, betID uuid.UUID) error
	ApplyRaceResultFunc  func(ctx context.Context, raceID uuid.UUID, result sharedtypes.Podium) (*bettingservice.ReconcileSummary, error)
	ClearRaceResultFunc  func(ctx context.Context, raceID uuid.UUID) error
	ReconcileRaceFunc    func(ctx context.Context, raceID uuid.UUID) (*bettingservice.ReconcileSummary, error)
	GetLeaderboardFunc   func(ctx context.Context) ([]bettingdomain.LeaderboardEntry, error)
	ListRaceBetsFunc     func(ctx context.Context, raceID uuid.UUID) ([]bettingservice.BetInfo, error)
	ListRunsFunc         func(ctx context.Context, raceID uuid.UUID) ([]bettingservice.ReconciliationRunInfo, error)
	ListUserBetsFunc     func(ctx context.Context, userID uuid.UUID) ([]bettingservice.BetInfo, error)
	LeaderboardChartFunc func(ctx context.Context, limit int) ([]byte, error)
}

func NewFakeBettingService() *FakeBettingService {
	return &FakeBettingService{trace: []string{}}
}

func (f *FakeBettingService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeBettingService) SubmitBet(ctx context.Context, userID, raceID uuid.UUID, prediction sharedtypes.Podium) (*bettingservice.BetInfo, error) {
	f.record("SubmitBet")
	if f.SubmitBetFunc != nil {
		return f.SubmitBetFunc(ctx, userID, raceID, prediction)
	}
	return &bettingservice.BetInfo{ID: uuid.New(), UserID: userID, RaceID: raceID, Prediction: prediction}, nil
}

func (f *FakeBettingService) UpdateBet(ctx context.Context, userID, betID uuid.UUID, prediction sharedtypes.Podium) (*bettingservice.BetInfo, error) {
	f.record("UpdateBet")
	if f.UpdateBetFunc != nil {
		return f.UpdateBetFunc(ctx, userID, betID, prediction)
	}
	return &bettingservice.BetInfo{ID: betID, UserID: userID, Prediction: prediction}, nil
}

func (f *FakeBettingService) DeleteBet(ctx context.Context, actor bettingservice.Actor, betID uuid.UUID) error {
	f.record("DeleteBet")
	if f.DeleteBetFunc != nil {
		return f.DeleteBetFunc(ctx, actor, betID)
	}
	return nil
}

func (f *FakeBettingService) ApplyRaceResult(ctx context.Context, raceID uuid.UUID, result sharedtypes.Podium) (*bettingservice.ReconcileSummary, error) {
	f.record("ApplyRaceResult")
	if f.ApplyRaceResultFunc != nil {
		return f.ApplyRaceResultFunc(ctx, raceID, result)
	}
	return &bettingservice.ReconcileSummary{RaceID: raceID, Revision: 1}, nil
}

func (f *FakeBettingService) ClearRaceResult(ctx context.Context, raceID uuid.UUID) error {
	f.record("ClearRaceResult")
	if f.ClearRaceResultFunc != nil {
		return f.ClearRaceResultFunc(ctx, raceID)
	}
	return nil
}

func (f *FakeBettingService) ReconcileRace(ctx context.Context, raceID uuid.UUID) (*bettingservice.ReconcileSummary, error) {
	f.record("ReconcileRace")
	if f.ReconcileRaceFunc != nil {
		return f.ReconcileRaceFunc(ctx, raceID)
	}
	return &bettingservice.ReconcileSummary{RaceID: raceID}, nil
}

func (f *FakeBettingService) GetLeaderboard(ctx context.Context) ([]bettingdomain.LeaderboardEntry, error) {
	f.record("GetLeaderboard")
	if f.GetLeaderboardFunc != nil {
		return f.GetLeaderboardFunc(ctx)
	}
	return nil, nil
}

func (f *FakeBettingService) ListRaceBets(ctx context.Context, raceID uuid.UUID) ([]bettingservice.BetInfo, error) {
	f.record("ListRaceBets")
	if f.ListRaceBetsFunc != nil {
		return f.ListRaceBetsFunc(ctx, raceID)
	}
	return []bettingservice.BetInfo{}, nil
}

func (f *FakeBettingService) ListReconciliationRuns(ctx context.Context, raceID uuid.UUID) ([]bettingservice.ReconciliationRunInfo, error) {
	f.record("ListReconciliationRuns")
	if f.ListRunsFunc != nil {
		return f.ListRunsFunc(ctx, raceID)
	}
	return []bettingservice.ReconciliationRunInfo{}, nil
}

func (f *FakeBettingService) ListUserBets(ctx context.Context, userID uuid.UUID) ([]bettingservice.BetInfo, error) {
	f.record("ListUserBets")
	if f.ListUserBetsFunc != nil {
		return f.ListUserBetsFunc(ctx, userID)
	}
	return []bettingservice.BetInfo{}, nil
}

func (f *FakeBettingService) LeaderboardChart(ctx context.Context, limit int) ([]byte, error) {
	f.record("LeaderboardChart")
	if f.LeaderboardChartFunc != nil {
		return f.LeaderboardChartFunc(ctx, limit)
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

// --- Accessors for assertions ---

func (f *FakeBettingService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ bettingservice.Service = (*FakeBettingService)(nil)
