package bettingservice

import (
	"context"
	"errors"
	"fmt"

	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	bettingevents "github.com/Black-And-White-Club/podium-bot/app/modules/betting/events"
	bettingdb "github.com/Black-And-White-Club/podium-bot/app/modules/betting/infrastructure/repositories"
	"github.com/Black-And-White-Club/podium-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type betResult = results.OperationResult[*BetInfo, error]

// SubmitBet admits and stores a podium prediction. Admission runs the window
// check, then the conflict checks in order, all under the race's lock.
func (s *BettingService) SubmitBet(ctx context.Context, userID, raceID uuid.UUID, prediction sharedtypes.Podium) (*BetInfo, error) {
	prediction = normalizePodium(prediction)

	submitTx := func(ctx context.Context, db bun.IDB) (betResult, error) {
		return s.submitBetLogic(ctx, db, userID, raceID, prediction)
	}

	result, err := withTelemetry(s, ctx, "SubmitBet", raceID.String(), func(ctx context.Context) (betResult, error) {
		unlock := s.locks.Lock(raceID)
		defer unlock()
		return runInTx(s, ctx, submitTx)
	})
	s.recordAdmission(ctx, result, err)

	bet, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, bettingevents.BetPlacedV1, bettingevents.BetPlacedPayloadV1{
		BetID:      bet.ID,
		UserID:     bet.UserID,
		RaceID:     bet.RaceID,
		Prediction: bet.Prediction,
		PlacedAt:   bet.PlacedAt,
	})
	return bet, nil
}

func (s *BettingService) submitBetLogic(ctx context.Context, db bun.IDB, userID, raceID uuid.UUID, prediction sharedtypes.Podium) (betResult, error) {
	race, err := s.lockAndLoadRace(ctx, db, raceID)
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

	occupancy, err := s.occupancy(ctx, db, raceID, userID, prediction, uuid.Nil)
	if err != nil {
		return betResult{}, err
	}
	if err := bettingdomain.CheckAdmission(prediction, race.Qualifying(), occupancy); err != nil {
		return fail[*BetInfo](err)
	}

	bet := &bettingdb.Bet{
		ID:       uuid.New(),
		UserID:   userID,
		RaceID:   raceID,
		PlacedAt: now.UTC(),
	}
	bet.SetPrediction(prediction)

	if err := s.repo.InsertBet(ctx, db, bet); err != nil {
		if conflict := constraintConflict(err); conflict != nil {
			return fail[*BetInfo](conflict)
		}
		return betResult{}, fmt.Errorf("failed to insert bet: %w", err)
	}

	return results.SuccessResult[*BetInfo, error](toBetInfo(bet)), nil
}

// lockAndLoadRace takes the race's database lock and loads it.
func (s *BettingService) lockAndLoadRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) (*bettingdb.Race, error) {
	if err := s.repo.LockRace(ctx, db, raceID); err != nil {
		return nil, err
	}
	race, err := s.repo.GetRace(ctx, db, raceID)
	if err != nil {
		if errors.Is(err, bettingdb.ErrNotFound) {
			return nil, bettingdomain.ErrRaceNotFound
		}
		return nil, fmt.Errorf("failed to load race: %w", err)
	}
	return race, nil
}

// occupancy reports what the race already holds for this user and prediction.
// excludeBetID removes a bet being edited from the combination check.
func (s *BettingService) occupancy(ctx context.Context, db bun.IDB, raceID, userID uuid.UUID, prediction sharedtypes.Podium, excludeBetID uuid.UUID) (bettingdomain.Occupancy, error) {
	var o bettingdomain.Occupancy

	if excludeBetID == uuid.Nil {
		_, err := s.repo.GetBetByUser(ctx, db, raceID, userID)
		switch {
		case err == nil:
			o.UserHasBet = true
		case !errors.Is(err, bettingdb.ErrNotFound):
			return o, fmt.Errorf("failed to check existing bet: %w", err)
		}
	}

	holder, err := s.repo.GetBetByPrediction(ctx, db, raceID, prediction)
	switch {
	case err == nil:
		o.CombinationTaken = holder.ID != excludeBetID
	case !errors.Is(err, bettingdb.ErrNotFound):
		return o, fmt.Errorf("failed to check combination: %w", err)
	}
	return o, nil
}

// constraintConflict maps a unique violation that slipped past the checks
// (another instance committed first) to the matching admission error.
func constraintConflict(err error) error {
	switch {
	case errors.Is(err, bettingdb.ErrUserRaceTaken):
		return bettingdomain.NewConcurrentConflict(bettingdomain.ErrDuplicateUserBet)
	case errors.Is(err, bettingdb.ErrPredictionTaken):
		return bettingdomain.NewConcurrentConflict(bettingdomain.ErrCombinationTaken)
	default:
		return nil
	}
}

func (s *BettingService) recordAdmission(ctx context.Context, result betResult, err error) {
	if s.metrics == nil || err != nil {
		return
	}
	if result.IsFailure() {
		s.metrics.RecordBetRejected(ctx, bettingdomain.RejectionReason(*result.Failure))
		return
	}
	s.metrics.RecordBetAccepted(ctx)
}

// fail routes business errors into a failure result and everything else
// into the error return, so telemetry and transactions treat them apart.
func fail[S any](err error) (results.OperationResult[S, error], error) {
	if bettingdomain.IsBusinessError(err) {
		return results.FailureResult[S, error](err), nil
	}
	return results.OperationResult[S, error]{}, err
}

func normalizePodium(p sharedtypes.Podium) sharedtypes.Podium {
	return sharedtypes.Podium{P1: p.P1.Normalize(), P2: p.P2.Normalize(), P3: p.P3.Normalize()}
}

func toBetInfo(b *bettingdb.Bet) *BetInfo {
	return &BetInfo{
		ID:         b.ID,
		UserID:     b.UserID,
		RaceID:     b.RaceID,
		Prediction: b.Prediction(),
		Points:     b.Points,
		IsPerfect:  b.IsPerfect,
		PlacedAt:   b.PlacedAt,
	}
}

func viewToBetInfo(v bettingdb.BetView) BetInfo {
	info := *toBetInfo(&v.Bet)
	info.UserDisplayName = v.UserDisplayName
	info.UserEmail = v.UserEmail
	info.RaceName = v.RaceName
	return info
}
