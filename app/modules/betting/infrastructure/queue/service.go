package bettingqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	bettingservice "github.com/Black-And-White-Club/podium-bot/app/modules/betting/application"
	"github.com/Black-And-White-Club/podium-bot/app/shared/observability/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"
)

const queueService = "river"

// QueueService interface defines the contract for durable reconciliation jobs
type QueueService interface {
	bettingservice.ReconcileScheduler
	// PendingJobs lists jobs for a race that have not finished.
	PendingJobs(ctx context.Context, raceID uuid.UUID) ([]JobInfo, error)
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service runs reconciliation jobs on River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      *bun.DB
	metrics metrics.OperationMetrics
}

// NewService creates a new River-based queue for reconciliation passes.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, maxWorkers int, m metrics.OperationMetrics, reconciler Reconciler) (*Service, error) {
	ctxLogger := logger.With(
		slog.String("component", "river_queue"),
		slog.String("queue", QueueName),
	)

	start := time.Now()
	m.RecordOperationAttempt(ctx, "initialize_service", queueService)

	// River requires pgx, not database/sql
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		m.RecordOperationFailure(ctx, "initialize_service", queueService)
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		m.RecordOperationFailure(ctx, "initialize_service", queueService)
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		m.RecordOperationFailure(ctx, "initialize_service", queueService)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewReconcileWorker(ctxLogger, reconciler))

	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
		Logger:  ctxLogger,
	})
	if err != nil {
		pool.Close()
		m.RecordOperationFailure(ctx, "initialize_service", queueService)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	m.RecordOperationSuccess(ctx, "initialize_service", queueService)
	m.RecordOperationDuration(ctx, "initialize_service", queueService, time.Since(start))
	ctxLogger.InfoContext(ctx, "Betting queue service initialized", slog.Int("max_workers", maxWorkers))

	return &Service{
		client:  riverClient,
		pool:    pool,
		logger:  ctxLogger,
		db:      bunDB,
		metrics: m,
	}, nil
}

// Start starts the River queue service
func (s *Service) Start(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "start_service", queueService)
	if err := s.client.Start(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "start_service", queueService)
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "start_service", queueService)
	s.logger.InfoContext(ctx, "Betting queue service started")
	return nil
}

// Stop waits for running jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "stop_service", queueService)
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "stop_service", queueService)
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "stop_service", queueService)
	s.logger.InfoContext(ctx, "Betting queue service stopped")
	return nil
}

// EnqueueReconcile stores a reconciliation job for the race.
func (s *Service) EnqueueReconcile(ctx context.Context, raceID uuid.UUID, revision int) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "enqueue_reconcile", queueService)

	res, err := s.client.Insert(ctx, ReconcileRaceArgs{RaceID: raceID, Revision: revision}, nil)
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "enqueue_reconcile", queueService)
		return fmt.Errorf("failed to enqueue reconcile job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "enqueue_reconcile", queueService)
	s.metrics.RecordOperationDuration(ctx, "enqueue_reconcile", queueService, time.Since(start))
	s.logger.InfoContext(ctx, "Reconcile job queued",
		slog.String("race_id", raceID.String()),
		slog.Int("revision", revision),
		slog.Int64("job_id", res.Job.ID),
		slog.Bool("duplicate", res.UniqueSkippedAsDuplicate),
	)
	return nil
}

// PendingJobs returns reconcile jobs for a race that are still waiting or
// retrying.
func (s *Service) PendingJobs(ctx context.Context, raceID uuid.UUID) ([]JobInfo, error) {
	type riverJobRow struct {
		ID          int64          `bun:"id"`
		State       string         `bun:"state"`
		Args        map[string]any `bun:"args,type:jsonb"`
		ScheduledAt *time.Time     `bun:"scheduled_at"`
		CreatedAt   time.Time      `bun:"created_at"`
		Attempt     int16          `bun:"attempt"`
		MaxAttempts int16          `bun:"max_attempts"`
	}

	var jobs []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "state", "args", "scheduled_at", "created_at", "attempt", "max_attempts").
		Where("kind = ?", ReconcileRaceArgs{}.Kind()).
		Where("state IN (?)", bun.In([]string{"available", "scheduled", "retryable", "running"})).
		Where("args->>'race_id' = ?", raceID.String()).
		Order("created_at ASC").
		Scan(ctx, &jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconcile jobs: %w", err)
	}

	out := make([]JobInfo, len(jobs))
	for i, job := range jobs {
		scheduledAt := ""
		if job.ScheduledAt != nil {
			scheduledAt = job.ScheduledAt.Format(time.RFC3339)
		}
		revision := 0
		if v, ok := job.Args["revision"].(float64); ok {
			revision = int(v)
		}
		out[i] = JobInfo{
			ID:          job.ID,
			RaceID:      raceID.String(),
			Revision:    revision,
			State:       job.State,
			ScheduledAt: scheduledAt,
			CreatedAt:   job.CreatedAt.Format(time.RFC3339),
			Attempt:     int(job.Attempt),
			MaxAttempts: int(job.MaxAttempts),
		}
	}
	return out, nil
}

// HealthCheck verifies the queue's connection pool.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("queue database unreachable: %w", err)
	}
	return nil
}
