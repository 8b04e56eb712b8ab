package bettingrouter

import (
	"context"
	"log/slog"
	"os"

	bettingevents "github.com/Black-And-White-Club/podium-bot/app/modules/betting/events"
	bettinghandlers "github.com/Black-And-White-Club/podium-bot/app/modules/betting/infrastructure/handlers"
	"github.com/Black-And-White-Club/podium-bot/app/shared/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

const (
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// BettingRouter wires betting event handlers into a watermill router.
type BettingRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	tracer     trace.Tracer

	metricsBuilder *metrics.PrometheusMetricsBuilder
}

func NewBettingRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
	registry *prometheus.Registry,
) *BettingRouter {
	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil && os.Getenv(TestEnvironmentFlag) != TestEnvironmentValue {
		b := metrics.NewPrometheusMetricsBuilder(registry, "podium", "betting")
		metricsBuilder = &b
	}

	return &BettingRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

func (r *BettingRouter) Configure(_ context.Context, handlers bettinghandlers.Handlers) error {
	if r.metricsBuilder != nil {
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}
	r.registerHandlers(handlers)
	return nil
}

type handlerDeps struct {
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	logger     *slog.Logger
	tracer     trace.Tracer
}

// registerHandler registers a transformation-pattern handler with a typed payload.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "betting." + topic

	deps.router.AddHandler(
		handlerName,
		topic,
		deps.subscriber,
		"", // the event bus routes outgoing messages by their topic metadata
		deps.publisher,
		handlerwrapper.WrapTransformingTyped(handlerName, deps.logger, deps.tracer, handler),
	)
}

func (r *BettingRouter) registerHandlers(h bettinghandlers.Handlers) {
	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	registerHandler(deps, bettingevents.RaceResultSubmittedV1, h.HandleRaceResultSubmitted)
	registerHandler(deps, bettingevents.ReconcileRequestedV1, h.HandleReconcileRequested)
}

func (r *BettingRouter) Close() error {
	return r.Router.Close()
}
