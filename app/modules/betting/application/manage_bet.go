package bettingservice

import (
	"context"
	"errors"
	"fmt"

	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	bettingdb "github.com/Black-And-White-Club/podium-bot/app/modules/betting/infrastructure/repositories"
	"github.com/Black-And-White-Club/podium-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UpdateBet replaces the prediction of a bet the user owns while the window
// is open. The combination check ignores the bet being edited.
func (s *BettingService) UpdateBet(ctx context.Context, userID, betID uuid.UUID, prediction sharedtypes.Podium) (*BetInfo, error) {
	prediction = normalizePodium(prediction)

	result, err := withTelemetry(s, ctx, "UpdateBet", betID.String(), func(ctx context.Context) (betResult, error) {
		raceID, err := s.raceOfBet(ctx, betID)
		if err != nil {
			return fail[*BetInfo](err)
		}
		unlock := s.locks.Lock(raceID)
		defer unlock()
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (betResult, error) {
			return s.updateBetLogic(ctx, db, userID, betID, prediction)
		})
	})
	return unwrap(result, err)
}

func (s *BettingService) updateBetLogic(ctx context.Context, db bun.IDB, userID, betID uuid.UUID, prediction sharedtypes.Podium) (betResult, error) {
	bet, err := s.getBet(ctx, db, betID)
	if err != nil {
		return fail[*BetInfo](err)
	}
	if bet.UserID != userID {
		return fail[*BetInfo](bettingdomain.ErrNotBetOwner)
	}

	race, err := s.lockAndLoadRace(ctx, db, bet.RaceID)
	if err != nil {
		return fail[*BetInfo](err)
	}
	if race.Result() != nil {
		return fail[*BetInfo](bettingdomain.ErrRaceCompleted)
	}

	now := s.clock.Now()
	if err := s.cfg.Window.Check(race.StartsAt, now); err != nil {
		return fail[*BetInfo](err)
	}
	if err := bettingdomain.ValidatePrediction(prediction, race.Qualifying()); err != nil {
		return fail[*BetInfo](err)
	}
	if bet.Prediction() == prediction {
		return results.SuccessResult[*BetInfo, error](toBetInfo(bet)), nil
	}

	occupancy, err := s.occupancy(ctx, db, bet.RaceID, userID, prediction, bet.ID)
	if err != nil {
		return betResult{}, err
	}
	if err := bettingdomain.CheckOccupancy(occupancy); err != nil {
		return fail[*BetInfo](err)
	}

	bet.SetPrediction(prediction)
	bet.PlacedAt = now.UTC()
	if err := s.repo.UpdateBetPrediction(ctx, db, bet); err != nil {
		if conflict := constraintConflict(err); conflict != nil {
			return fail[*BetInfo](conflict)
		}
		return betResult{}, fmt.Errorf("failed to update bet: %w", err)
	}

	return results.SuccessResult[*BetInfo, error](toBetInfo(bet)), nil
}

// DeleteBet removes a bet. Owners may delete inside the window; admins may
// delete at any time, and any score the bet carried is taken back out of
// the owner's totals.
func (s *BettingService) DeleteBet(ctx context.Context, actor Actor, betID uuid.UUID) error {
	result, err := withTelemetry(s, ctx, "DeleteBet", betID.String(), func(ctx context.Context) (results.OperationResult[bool, error], error) {
		raceID, err := s.raceOfBet(ctx, betID)
		if err != nil {
			return fail[bool](err)
		}
		unlock := s.locks.Lock(raceID)
		defer unlock()
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
			return s.deleteBetLogic(ctx, db, actor, betID)
		})
	})
	_, err = unwrap(result, err)
	return err
}

func (s *BettingService) deleteBetLogic(ctx context.Context, db bun.IDB, actor Actor, betID uuid.UUID) (results.OperationResult[bool, error], error) {
	bet, err := s.getBet(ctx, db, betID)
	if err != nil {
		return fail[bool](err)
	}
	if bet.UserID != actor.UserID && !actor.IsAdmin {
		return fail[bool](bettingdomain.ErrNotBetOwner)
	}

	race, err := s.lockAndLoadRace(ctx, db, bet.RaceID)
	if err != nil {
		return fail[bool](err)
	}
	if !actor.IsAdmin {
		if err := s.cfg.Window.Check(race.StartsAt, s.clock.Now()); err != nil {
			return fail[bool](err)
		}
	}

	if err := s.repo.DeleteBet(ctx, db, bet.ID); err != nil {
		if errors.Is(err, bettingdb.ErrNotFound) {
			return fail[bool](bettingdomain.ErrBetNotFound)
		}
		return results.OperationResult[bool, error]{}, fmt.Errorf("failed to delete bet: %w", err)
	}

	held := bettingdomain.Score{Points: bet.Points, Perfect: bet.IsPerfect}
	if d := bettingdomain.ScoreDelta(held, bettingdomain.Score{}); !d.IsZero() {
		if err := s.repo.ApplyUserDelta(ctx, db, bet.UserID, d.Points, d.Stars); err != nil {
			return results.OperationResult[bool, error]{}, fmt.Errorf("failed to reverse bet score: %w", err)
		}
	}

	return results.SuccessResult[bool, error](true), nil
}

// raceOfBet resolves the race a bet belongs to, outside any transaction, so
// the caller can take the race lock before re-reading the bet.
func (s *BettingService) raceOfBet(ctx context.Context, betID uuid.UUID) (uuid.UUID, error) {
	bet, err := s.getBet(ctx, nil, betID)
	if err != nil {
		return uuid.Nil, err
	}
	return bet.RaceID, nil
}

func (s *BettingService) getBet(ctx context.Context, db bun.IDB, betID uuid.UUID) (*bettingdb.Bet, error) {
	bet, err := s.repo.GetBet(ctx, db, betID)
	if err != nil {
		if errors.Is(err, bettingdb.ErrNotFound) {
			return nil, bettingdomain.ErrBetNotFound
		}
		return nil, fmt.Errorf("failed to load bet: %w", err)
	}
	return bet, nil
}
