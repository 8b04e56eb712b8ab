package bettingservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	bettingdb "github.com/Black-And-White-Club/podium-bot/app/modules/betting/infrastructure/repositories"
	"github.com/Black-And-White-Club/podium-bot/app/shared/clock"
	"github.com/Black-And-White-Club/podium-bot/app/shared/handlerwrapper"
	"github.com/Black-And-White-Club/podium-bot/app/shared/observability/metrics"
	"github.com/Black-And-White-Club/podium-bot/app/shared/results"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "BettingService"

// Config tunes the engine. Zero values fall back to the defaults.
type Config struct {
	Window               bettingdomain.Window
	Rules                bettingdomain.ScoringRules
	RetryAttempts        uint64
	RetryInitialInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Window.Length <= 0 {
		c.Window = bettingdomain.NewWindow(0)
	}
	if c.Rules == (bettingdomain.ScoringRules{}) {
		c.Rules = bettingdomain.DefaultScoringRules()
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = 200 * time.Millisecond
	}
	return c
}

// BettingService implements the Service interface.
type BettingService struct {
	repo      bettingdb.Repository
	clock     clock.Clock
	cfg       Config
	logger    *slog.Logger
	metrics   metrics.BettingMetrics
	tracer    trace.Tracer
	db        *bun.DB
	publisher message.Publisher
	scheduler ReconcileScheduler
	locks     *raceLocks
}

// NewBettingService creates a new BettingService.
func NewBettingService(
	repo bettingdb.Repository,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
	metrics metrics.BettingMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *BettingService {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &BettingService{
		repo:    repo,
		clock:   clk,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		db:      db,
		locks:   newRaceLocks(),
	}
}

// SetPublisher enables post-commit events.
func (s *BettingService) SetPublisher(p message.Publisher) {
	s.publisher = p
}

// SetReconcileScheduler enables durable retries for failed reconciliation passes.
func (s *BettingService) SetReconcileScheduler(sch ReconcileScheduler) {
	s.scheduler = sch
}

// publish sends an event after commit. Failures are logged and never change
// the outcome of the operation that produced the event.
func (s *BettingService) publish(ctx context.Context, topic string, payload any) {
	if s.publisher == nil {
		return
	}
	msg, err := handlerwrapper.NewMessage(payload, topic)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to build event", slog.String("topic", topic), slog.String("error", err.Error()))
		return
	}
	msg.SetContext(ctx)
	if err := s.publisher.Publish(topic, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", slog.String("topic", topic), slog.String("error", err.Error()))
	}
}

// unwrap converts an operation result into the (value, error) pair callers see.
func unwrap[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	if result.Success == nil {
		return zero, errors.New("operation returned no result")
	}
	return *result.Success, nil
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *BettingService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.DebugContext(ctx, "Operation triggered", slog.String("operation", operationName), slog.String("identifier", identifier))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				slog.String("operation", operationName),
				slog.String("identifier", identifier),
				slog.String("error", err.Error()),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			slog.String("error", wrappedErr.Error()),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			slog.Any("failure", *result.Failure),
		)
	} else {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// errRollbackFailure aborts a transaction whose operation ended in a business failure.
var errRollbackFailure = errors.New("rollback on failure result")

// runInTx runs fn in a transaction. A failure result rolls back but is still
// returned as a result, not an error.
func runInTx[S any, F any](
	s *BettingService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		if txErr == nil && result.IsFailure() {
			return errRollbackFailure
		}
		return txErr
	})
	if errors.Is(err, errRollbackFailure) {
		return result, nil
	}
	return result, err
}
