package bettingservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	bettingdb "github.com/Black-And-White-Club/podium-bot/app/modules/betting/infrastructure/repositories"
	"github.com/Black-And-White-Club/podium-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type summaryResult = results.OperationResult[*ReconcileSummary, error]

// ApplyRaceResult stores an official result (or a correction of one) and
// reconciles every bet of the race against it. The result and the first
// pass commit together; a result is only stored on its own when the pass
// keeps failing and the job queue takes over.
func (s *BettingService) ApplyRaceResult(ctx context.Context, raceID uuid.UUID, result sharedtypes.Podium) (*ReconcileSummary, error) {
	result = normalizePodium(result)

	res, err := withTelemetry(s, ctx, "ApplyRaceResult", raceID.String(), func(ctx context.Context) (summaryResult, error) {
		if !result.IsComplete() || !result.IsDistinct() {
			return fail[*ReconcileSummary](bettingdomain.ErrResultIncomplete)
		}

		unlock := s.locks.Lock(raceID)
		defer unlock()

		base := -1
		summary, err := s.retryPass(ctx, raceID, func() (*ReconcileSummary, error) {
			return s.commitPass(ctx, func(ctx context.Context, db bun.IDB) (summaryResult, error) {
				race, err := s.loadStartedRace(ctx, db, raceID)
				if err != nil {
					return fail[*ReconcileSummary](err)
				}
				if base < 0 {
					base = race.ResultRevision
				}
				if _, err := s.storeResult(ctx, db, race, base, result); err != nil {
					return summaryResult{}, err
				}
				stored, err := s.repo.GetRace(ctx, db, raceID)
				if err != nil {
					return summaryResult{}, fmt.Errorf("failed to reload race: %w", err)
				}
				return s.rescoreRace(ctx, db, stored)
			})
		})
		if err == nil {
			return results.SuccessResult[*ReconcileSummary, error](summary), nil
		}
		if s.scheduler == nil || bettingdomain.IsBusinessError(err) {
			return fail[*ReconcileSummary](err)
		}
		return s.deferReconcile(ctx, raceID, base, result, err)
	})
	return unwrap(res, err)
}

// loadStartedRace locks the race and refuses results for races that have not started.
func (s *BettingService) loadStartedRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) (*bettingdb.Race, error) {
	race, err := s.lockAndLoadRace(ctx, db, raceID)
	if err != nil {
		return nil, err
	}
	if s.clock.Now().Before(race.StartsAt) {
		return nil, bettingdomain.ErrRaceNotStarted
	}
	return race, nil
}

// storeResult writes result and returns the new revision. When an earlier
// attempt of the same call already left result at base+1, nothing is written.
func (s *BettingService) storeResult(ctx context.Context, db bun.IDB, race *bettingdb.Race, base int, result sharedtypes.Podium) (int, error) {
	if race.ResultRevision == base+1 {
		if current := race.Result(); current != nil && *current == result {
			return race.ResultRevision, nil
		}
	}
	revision, err := s.repo.SetRaceResult(ctx, db, race.ID, &result)
	if err != nil {
		return 0, fmt.Errorf("failed to store result: %w", err)
	}
	return revision, nil
}

// deferReconcile stores the result alone and queues the pass that kept failing.
func (s *BettingService) deferReconcile(ctx context.Context, raceID uuid.UUID, base int, result sharedtypes.Podium, cause error) (summaryResult, error) {
	stored, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[int, error], error) {
		race, err := s.loadStartedRace(ctx, db, raceID)
		if err != nil {
			return fail[int](err)
		}
		if base < 0 {
			base = race.ResultRevision
		}
		revision, err := s.storeResult(ctx, db, race, base, result)
		if err != nil {
			return results.OperationResult[int, error]{}, err
		}
		return results.SuccessResult[int, error](revision), nil
	})
	revision, err := unwrap(stored, err)
	if err != nil {
		return summaryResult{}, fmt.Errorf("reconcile failed (%w) and result could not be stored: %v", cause, err)
	}

	if qerr := s.scheduler.EnqueueReconcile(ctx, raceID, revision); qerr != nil {
		return summaryResult{}, fmt.Errorf("reconcile failed (%w) and could not be queued: %v", cause, qerr)
	}
	s.logger.WarnContext(ctx, "Reconciliation deferred to job queue",
		slog.String("race_id", raceID.String()),
		slog.Int("revision", revision),
		slog.String("error", cause.Error()),
	)
	if s.metrics != nil {
		s.metrics.RecordReconciliationDeferred(ctx)
	}
	return results.SuccessResult[*ReconcileSummary, error](&ReconcileSummary{
		RaceID:   raceID,
		Revision: revision,
		Deferred: true,
	}), nil
}

// ClearRaceResult removes a stored result and bumps the revision. Scores and
// totals are left alone; the next ApplyRaceResult reconciles from them.
func (s *BettingService) ClearRaceResult(ctx context.Context, raceID uuid.UUID) error {
	res, err := withTelemetry(s, ctx, "ClearRaceResult", raceID.String(), func(ctx context.Context) (results.OperationResult[bool, error], error) {
		unlock := s.locks.Lock(raceID)
		defer unlock()

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
			race, err := s.lockAndLoadRace(ctx, db, raceID)
			if err != nil {
				return fail[bool](err)
			}
			if race.Result() == nil {
				return results.SuccessResult[bool, error](false), nil
			}
			if _, err := s.repo.SetRaceResult(ctx, db, raceID, nil); err != nil {
				return results.OperationResult[bool, error]{}, fmt.Errorf("failed to clear result: %w", err)
			}
			return results.SuccessResult[bool, error](true), nil
		})
	})
	_, err = unwrap(res, err)
	return err
}

// retryPass re-runs a whole pass with exponential backoff. The caller must
// hold the race's in-process lock.
func (s *BettingService) retryPass(ctx context.Context, raceID uuid.UUID, pass func() (*ReconcileSummary, error)) (*ReconcileSummary, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.RetryInitialInterval
	policy.MaxElapsedTime = 0

	var summary *ReconcileSummary
	op := func() error {
		var err error
		summary, err = pass()
		if err != nil && bettingdomain.IsBusinessError(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		s.logger.WarnContext(ctx, "Reconciliation attempt failed, retrying",
			slog.String("race_id", raceID.String()),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	}

	retries := s.cfg.RetryAttempts - 1
	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx), notify)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Err
		}
		return nil, err
	}
	return summary, nil
}
