package bettingservice

import (
	"context"
	"fmt"

	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	"github.com/Black-And-White-Club/podium-bot/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type (
	leaderboardResult = results.OperationResult[[]bettingdomain.LeaderboardEntry, error]
	betListResult     = results.OperationResult[[]BetInfo, error]
)

// GetLeaderboard returns every user ranked by points, then stars.
func (s *BettingService) GetLeaderboard(ctx context.Context) ([]bettingdomain.LeaderboardEntry, error) {
	res, err := withTelemetry(s, ctx, "GetLeaderboard", "all", func(ctx context.Context) (leaderboardResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (leaderboardResult, error) {
			rows, err := s.repo.ListStandings(ctx, db)
			if err != nil {
				return leaderboardResult{}, fmt.Errorf("failed to list standings: %w", err)
			}
			standings := make([]bettingdomain.Standing, len(rows))
			for i, r := range rows {
				standings[i] = bettingdomain.Standing{
					UserID:      r.UserID,
					DisplayName: r.DisplayName,
					Email:       r.Email,
					Points:      r.Points,
					Stars:       r.Stars,
					BetCount:    r.BetCount,
				}
			}
			return results.SuccessResult[[]bettingdomain.LeaderboardEntry, error](bettingdomain.RankStandings(standings)), nil
		})
	})
	return unwrap(res, err)
}

// ListRaceBets returns all bets of a race with owner details.
func (s *BettingService) ListRaceBets(ctx context.Context, raceID uuid.UUID) ([]BetInfo, error) {
	res, err := withTelemetry(s, ctx, "ListRaceBets", raceID.String(), func(ctx context.Context) (betListResult, error) {
		views, err := s.repo.ListBetViewsForRace(ctx, nil, raceID)
		if err != nil {
			return betListResult{}, fmt.Errorf("failed to list race bets: %w", err)
		}
		out := make([]BetInfo, len(views))
		for i, v := range views {
			out[i] = viewToBetInfo(v)
		}
		return results.SuccessResult[[]BetInfo, error](out), nil
	})
	return unwrap(res, err)
}

// ListUserBets returns a user's bets, most recently placed first.
func (s *BettingService) ListUserBets(ctx context.Context, userID uuid.UUID) ([]BetInfo, error) {
	res, err := withTelemetry(s, ctx, "ListUserBets", userID.String(), func(ctx context.Context) (betListResult, error) {
		views, err := s.repo.ListBetViewsForUser(ctx, nil, userID)
		if err != nil {
			return betListResult{}, fmt.Errorf("failed to list user bets: %w", err)
		}
		out := make([]BetInfo, len(views))
		for i, v := range views {
			out[i] = viewToBetInfo(v)
		}
		return results.SuccessResult[[]BetInfo, error](out), nil
	})
	return unwrap(res, err)
}
