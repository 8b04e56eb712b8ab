package raceservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	raceparsers "github.com/Black-And-White-Club/podium-bot/app/modules/race/infrastructure/parsers"
	racedb "github.com/Black-And-White-Club/podium-bot/app/modules/race/infrastructure/repositories"
	"github.com/Black-And-White-Club/podium-bot/app/shared/clock"
	"github.com/Black-And-White-Club/podium-bot/app/shared/observability/metrics"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "RaceService"

// RaceService implements the Service interface.
type RaceService struct {
	repo     racedb.Repository
	clock    clock.Clock
	window   bettingdomain.Window
	calendar *raceparsers.CalendarParser
	times    *raceparsers.StartTimeParser
	logger   *slog.Logger
	metrics  metrics.OperationMetrics
	tracer   trace.Tracer
	db       *bun.DB
}

// NewRaceService creates a new RaceService.
func NewRaceService(
	repo racedb.Repository,
	clk clock.Clock,
	window bettingdomain.Window,
	logger *slog.Logger,
	m metrics.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *RaceService {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(serviceName)
	}
	times := raceparsers.NewStartTimeParser()
	return &RaceService{
		repo:     repo,
		clock:    clk,
		window:   bettingdomain.NewWindow(window.Length),
		calendar: raceparsers.NewCalendarParser(times),
		times:    times,
		logger:   logger,
		metrics:  m,
		tracer:   tracer,
		db:       db,
	}
}

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func (s *RaceService) withTelemetry(ctx context.Context, operationName, identifier string, op func(ctx context.Context) error) (err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("identifier", identifier),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				slog.String("operation", operationName),
				slog.String("error", err.Error()),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
		}
	}()

	if err = op(ctx); err != nil {
		span.RecordError(err)
		if IsValidationError(err) || isExpected(err) {
			s.logger.WarnContext(ctx, "Operation rejected",
				slog.String("operation", operationName),
				slog.String("identifier", identifier),
				slog.String("reason", err.Error()),
			)
			s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
			return err
		}
		s.logger.ErrorContext(ctx, "Operation failed with error",
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		return fmt.Errorf("%s: %w", operationName, err)
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	return nil
}

func isExpected(err error) bool {
	for _, target := range []error{ErrRaceNotFound, ErrDriverNotFound, ErrDuplicateRace, ErrRaceHasResult} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// inTx runs fn in a transaction when the service has a database handle.
func (s *RaceService) inTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

func (s *RaceService) toInfo(r *racedb.RaceWithCount) RaceInfo {
	result := r.Result()
	return RaceInfo{
		ID:             r.ID,
		Name:           r.Name,
		Location:       r.Location,
		StartsAt:       r.StartsAt.UTC(),
		BettingOpensAt: s.window.OpensAt(r.StartsAt).UTC(),
		Status:         s.window.Status(r.StartsAt, s.clock.NowUTC(), result != nil),
		Qualifying:     r.Qualifying(),
		Result:         result,
		ResultRevision: r.ResultRevision,
		BetCount:       r.BetCount,
	}
}
