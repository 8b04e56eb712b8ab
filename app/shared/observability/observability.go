package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Black-And-White-Club/podium-bot/app/shared/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config selects logging and metrics behaviour.
type Config struct {
	ServiceName    string
	Environment    string
	LogLevel       string
	MetricsAddress string
}

// Provider owns process-wide telemetry resources.
type Provider struct {
	Logger        *slog.Logger
	metricsServer *http.Server
}

// Registry hands out per-module instruments.
type Registry struct {
	Tracer         trace.Tracer
	Logger         *slog.Logger
	Prometheus     *prometheus.Registry
	BettingMetrics metrics.BettingMetrics
	// OperationMetrics is shared by the record-keeping modules.
	OperationMetrics metrics.OperationMetrics
}

// Observability bundles the provider and registry passed to every module.
type Observability struct {
	Provider *Provider
	Registry *Registry
}

// Init builds the logger, tracer and prometheus registry for the process.
func Init(cfg Config) Observability {
	logger := NewLogger(os.Stdout, cfg.Environment, cfg.LogLevel).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bettingMetrics := metrics.NewPrometheus(reg, "podium")

	provider := &Provider{Logger: logger}
	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		provider.metricsServer = &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return Observability{
		Provider: provider,
		Registry: &Registry{
			Tracer:           otel.Tracer(cfg.ServiceName),
			Logger:           logger,
			Prometheus:       reg,
			BettingMetrics:   bettingMetrics,
			OperationMetrics: bettingMetrics,
		},
	}
}

// NewNoop returns observability that discards logs and metrics. Used by tests.
func NewNoop() Observability {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	noopMetrics := metrics.NewNoop()
	return Observability{
		Provider: &Provider{Logger: logger},
		Registry: &Registry{
			Tracer:           noop.NewTracerProvider().Tracer("test"),
			Logger:           logger,
			Prometheus:       prometheus.NewRegistry(),
			BettingMetrics:   noopMetrics,
			OperationMetrics: noopMetrics,
		},
	}
}

// NewLogger builds a JSON logger, or a text logger in development.
func NewLogger(w io.Writer, environment, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if environment == "development" || environment == "local" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StartMetricsServer serves /metrics until Shutdown. No-op when no address is configured.
func (p *Provider) StartMetricsServer() {
	if p.metricsServer == nil {
		return
	}
	go func() {
		p.Logger.Info("Metrics server listening", slog.String("addr", p.metricsServer.Addr))
		if err := p.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.Logger.Error("Metrics server stopped", slog.String("error", err.Error()))
		}
	}()
}

// Shutdown stops the metrics server.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.metricsServer == nil {
		return nil
	}
	if err := p.metricsServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop metrics server: %w", err)
	}
	return nil
}
