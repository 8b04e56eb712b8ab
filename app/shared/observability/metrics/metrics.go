package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics records the attempt/outcome/duration of service operations.
type OperationMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// BettingMetrics adds admission and reconciliation signals.
type BettingMetrics interface {
	OperationMetrics
	RecordBetAccepted(ctx context.Context)
	RecordBetRejected(ctx context.Context, reason string)
	RecordReconciliation(ctx context.Context, betsScored, pointsDelta, starsDelta int)
	RecordReconciliationDeferred(ctx context.Context)
}

// PrometheusMetrics implements BettingMetrics on a prometheus registry.
type PrometheusMetrics struct {
	attempts      *prometheus.CounterVec
	successes     *prometheus.CounterVec
	failures      *prometheus.CounterVec
	durations     *prometheus.HistogramVec
	betsAccepted  prometheus.Counter
	betsRejected  *prometheus.CounterVec
	reconciled    prometheus.Counter
	betsRescored  prometheus.Counter
	pointsApplied *prometheus.CounterVec
	deferred      prometheus.Counter
}

// NewPrometheus registers the collectors on reg.
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusMetrics {
	m := &PrometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"service", "operation"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_success_total",
			Help:      "Service operations that completed without an infrastructure error.",
		}, []string{"service", "operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Service operations that returned an error or panicked.",
		}, []string{"service", "operation"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		betsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bets_accepted_total",
			Help:      "Bets admitted and stored.",
		}),
		betsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bets_rejected_total",
			Help:      "Bets rejected at admission, by reason.",
		}, []string{"reason"}),
		reconciled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_total",
			Help:      "Completed reconciliation passes.",
		}),
		betsRescored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bets_rescored_total",
			Help:      "Bets visited by reconciliation passes.",
		}),
		pointsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_delta_abs_total",
			Help:      "Absolute points/stars moved by reconciliation.",
		}, []string{"kind"}),
		deferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_deferred_total",
			Help:      "Reconciliation passes handed to the job queue after in-process retries.",
		}),
	}

	reg.MustRegister(
		m.attempts, m.successes, m.failures, m.durations,
		m.betsAccepted, m.betsRejected, m.reconciled, m.betsRescored, m.pointsApplied, m.deferred,
	)
	return m
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(service, operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(service, operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(service, operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.durations.WithLabelValues(service, operation).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordBetAccepted(_ context.Context) {
	m.betsAccepted.Inc()
}

func (m *PrometheusMetrics) RecordBetRejected(_ context.Context, reason string) {
	m.betsRejected.WithLabelValues(reason).Inc()
}

func (m *PrometheusMetrics) RecordReconciliation(_ context.Context, betsScored, pointsDelta, starsDelta int) {
	m.reconciled.Inc()
	m.betsRescored.Add(float64(betsScored))
	m.pointsApplied.WithLabelValues("points").Add(float64(abs(pointsDelta)))
	m.pointsApplied.WithLabelValues("stars").Add(float64(abs(starsDelta)))
}

func (m *PrometheusMetrics) RecordReconciliationDeferred(_ context.Context) {
	m.deferred.Inc()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

// NewNoop returns metrics that record nothing.
func NewNoop() *NoopMetrics { return &NoopMetrics{} }

func (*NoopMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (*NoopMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (*NoopMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (*NoopMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (*NoopMetrics) RecordBetAccepted(context.Context)                                      {}
func (*NoopMetrics) RecordBetRejected(context.Context, string)                              {}
func (*NoopMetrics) RecordReconciliation(context.Context, int, int, int)                    {}
func (*NoopMetrics) RecordReconciliationDeferred(context.Context)                           {}

var (
	_ BettingMetrics = (*PrometheusMetrics)(nil)
	_ BettingMetrics = (*NoopMetrics)(nil)
)
