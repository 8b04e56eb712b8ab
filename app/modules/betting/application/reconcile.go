package bettingservice

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	bettingevents "github.com/Black-And-White-Club/podium-bot/app/modules/betting/events"
	bettingdb "github.com/Black-And-White-Club/podium-bot/app/modules/betting/infrastructure/repositories"
	"github.com/Black-And-White-Club/podium-bot/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ReconcileRace recomputes every bet of the race against the stored result
// and applies the differences to user totals. Running it again without a
// result change is a no-op.
func (s *BettingService) ReconcileRace(ctx context.Context, raceID uuid.UUID) (*ReconcileSummary, error) {
	res, err := withTelemetry(s, ctx, "ReconcileRace", raceID.String(), func(ctx context.Context) (summaryResult, error) {
		unlock := s.locks.Lock(raceID)
		defer unlock()

		summary, err := s.commitPass(ctx, func(ctx context.Context, db bun.IDB) (summaryResult, error) {
			return s.reconcileLogic(ctx, db, raceID)
		})
		if err != nil {
			return fail[*ReconcileSummary](err)
		}
		return results.SuccessResult[*ReconcileSummary, error](summary), nil
	})
	return unwrap(res, err)
}

// ListReconciliationRuns returns the committed passes of a race, oldest first.
func (s *BettingService) ListReconciliationRuns(ctx context.Context, raceID uuid.UUID) ([]ReconciliationRunInfo, error) {
	res, err := withTelemetry(s, ctx, "ListReconciliationRuns", raceID.String(), func(ctx context.Context) (results.OperationResult[[]ReconciliationRunInfo, error], error) {
		if _, err := s.repo.GetRace(ctx, nil, raceID); err != nil {
			if errors.Is(err, bettingdb.ErrNotFound) {
				return fail[[]ReconciliationRunInfo](bettingdomain.ErrRaceNotFound)
			}
			return results.OperationResult[[]ReconciliationRunInfo, error]{}, fmt.Errorf("failed to load race: %w", err)
		}
		runs, err := s.repo.ListReconciliationRuns(ctx, nil, raceID)
		if err != nil {
			return results.OperationResult[[]ReconciliationRunInfo, error]{}, fmt.Errorf("failed to list reconciliation runs: %w", err)
		}
		out := make([]ReconciliationRunInfo, len(runs))
		for i, r := range runs {
			out[i] = ReconciliationRunInfo{
				Revision:    r.Revision,
				ResultHash:  r.ResultHash,
				BetsScored:  r.BetsScored,
				BetsChanged: r.BetsChanged,
				PointsDelta: r.PointsDelta,
				StarsDelta:  r.StarsDelta,
				CreatedAt:   r.CreatedAt,
			}
		}
		return results.SuccessResult[[]ReconciliationRunInfo, error](out), nil
	})
	return unwrap(res, err)
}

// commitPass runs pass in a single transaction and publishes the outcome
// after commit.
func (s *BettingService) commitPass(ctx context.Context, pass func(ctx context.Context, db bun.IDB) (summaryResult, error)) (*ReconcileSummary, error) {
	res, err := runInTx(s, ctx, pass)
	summary, err := unwrap(res, err)
	if err != nil {
		return nil, err
	}
	if summary.Skipped {
		return summary, nil
	}

	if s.metrics != nil {
		s.metrics.RecordReconciliation(ctx, summary.BetsScored, summary.PointsDelta, summary.StarsDelta)
	}
	s.publish(ctx, bettingevents.RaceReconciledV1, bettingevents.RaceReconciledPayloadV1{
		RaceID:      summary.RaceID,
		Revision:    summary.Revision,
		BetsScored:  summary.BetsScored,
		BetsChanged: summary.BetsChanged,
		PointsDelta: summary.PointsDelta,
		StarsDelta:  summary.StarsDelta,
	})
	return summary, nil
}

func (s *BettingService) reconcileLogic(ctx context.Context, db bun.IDB, raceID uuid.UUID) (summaryResult, error) {
	race, err := s.lockAndLoadRace(ctx, db, raceID)
	if err != nil {
		return fail[*ReconcileSummary](err)
	}
	return s.rescoreRace(ctx, db, race)
}

// rescoreRace scores every bet against the race's stored result. The caller
// holds the race's database lock.
func (s *BettingService) rescoreRace(ctx context.Context, db bun.IDB, race *bettingdb.Race) (summaryResult, error) {
	raceID := race.ID
	result := race.Result()
	if result == nil {
		return results.SuccessResult[*ReconcileSummary, error](&ReconcileSummary{
			RaceID:   raceID,
			Revision: race.ResultRevision,
			Skipped:  true,
		}), nil
	}

	bets, err := s.repo.ListBetsForRace(ctx, db, raceID)
	if err != nil {
		return summaryResult{}, fmt.Errorf("failed to list bets: %w", err)
	}

	scored := make([]bettingdomain.ScoredBet, len(bets))
	revisions := make(map[uuid.UUID]int, len(bets))
	for i, b := range bets {
		scored[i] = bettingdomain.ScoredBet{
			BetID:      b.ID,
			UserID:     b.UserID,
			Prediction: b.Prediction(),
			Current:    bettingdomain.Score{Points: b.Points, Perfect: b.IsPerfect},
		}
		revisions[b.ID] = b.ScoredRevision
	}

	plan := bettingdomain.BuildPlan(scored, *result, s.cfg.Rules)

	changed := len(plan.Changed())
	for _, r := range plan.Rescores {
		if r.Old == r.New && revisions[r.BetID] == race.ResultRevision {
			continue
		}
		if err := s.repo.UpdateBetScore(ctx, db, r.BetID, r.New.Points, r.New.Perfect, race.ResultRevision); err != nil {
			return summaryResult{}, fmt.Errorf("failed to update bet score: %w", err)
		}
	}

	// Fixed order keeps concurrent passes on different races from deadlocking
	// on shared user rows.
	users := make([]uuid.UUID, 0, len(plan.UserDeltas))
	for id := range plan.UserDeltas {
		users = append(users, id)
	}
	slices.SortFunc(users, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })
	for _, id := range users {
		d := plan.UserDeltas[id]
		if err := s.repo.ApplyUserDelta(ctx, db, id, d.Points, d.Stars); err != nil {
			return summaryResult{}, fmt.Errorf("failed to apply user delta: %w", err)
		}
	}

	run := &bettingdb.ReconciliationRun{
		RaceID:      raceID,
		Revision:    race.ResultRevision,
		ResultHash:  bettingdomain.ResultFingerprint(*result),
		BetsScored:  len(bets),
		BetsChanged: changed,
		PointsDelta: plan.Total.Points,
		StarsDelta:  plan.Total.Stars,
	}
	if err := s.repo.InsertReconciliationRun(ctx, db, run); err != nil {
		return summaryResult{}, fmt.Errorf("failed to record reconciliation run: %w", err)
	}

	return results.SuccessResult[*ReconcileSummary, error](&ReconcileSummary{
		RaceID:      raceID,
		Revision:    race.ResultRevision,
		BetsScored:  len(bets),
		BetsChanged: changed,
		PointsDelta: plan.Total.Points,
		StarsDelta:  plan.Total.Stars,
	}), nil
}
