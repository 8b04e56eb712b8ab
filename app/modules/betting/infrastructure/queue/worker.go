package bettingqueue

import (
	"context"
	"log/slog"
	"time"

	bettingservice "github.com/Black-And-White-Club/podium-bot/app/modules/betting/application"
	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// Reconciler is the part of the betting service the worker drives.
type Reconciler interface {
	ReconcileRace(ctx context.Context, raceID uuid.UUID) (*bettingservice.ReconcileSummary, error)
}

// ReconcileWorker runs queued reconciliation passes.
type ReconcileWorker struct {
	river.WorkerDefaults[ReconcileRaceArgs]
	reconciler Reconciler
	logger     *slog.Logger
}

func NewReconcileWorker(logger *slog.Logger, reconciler Reconciler) *ReconcileWorker {
	return &ReconcileWorker{reconciler: reconciler, logger: logger}
}

// Work reconciles against whatever result is current. A later revision than
// the one queued is fine: the pass always converges on the stored result.
func (w *ReconcileWorker) Work(ctx context.Context, job *river.Job[ReconcileRaceArgs]) error {
	logger := w.logger.With(
		slog.String("race_id", job.Args.RaceID.String()),
		slog.Int("queued_revision", job.Args.Revision),
		slog.Int64("job_id", job.ID),
		slog.Int("attempt", job.Attempt),
	)

	summary, err := w.reconciler.ReconcileRace(ctx, job.Args.RaceID)
	if err != nil {
		if bettingdomain.IsBusinessError(err) {
			logger.WarnContext(ctx, "Cancelling reconcile job", slog.String("error", err.Error()))
			return river.JobCancel(err)
		}
		logger.ErrorContext(ctx, "Queued reconcile failed", slog.String("error", err.Error()))
		return err
	}

	logger.InfoContext(ctx, "Queued reconcile completed",
		slog.Int("revision", summary.Revision),
		slog.Int("bets_changed", summary.BetsChanged),
		slog.Bool("skipped", summary.Skipped),
	)
	return nil
}

func (w *ReconcileWorker) Timeout(*river.Job[ReconcileRaceArgs]) time.Duration {
	return time.Minute
}
