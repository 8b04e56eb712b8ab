package betting

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Black-And-White-Club/podium-bot/app/eventbus"
	authhandlers "github.com/Black-And-White-Club/podium-bot/app/modules/auth/infrastructure/handlers"
	bettingservice "github.com/Black-And-White-Club/podium-bot/app/modules/betting/application"
	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	bettinghandlers "github.com/Black-And-White-Club/podium-bot/app/modules/betting/infrastructure/handlers"
	bettingqueue "github.com/Black-And-White-Club/podium-bot/app/modules/betting/infrastructure/queue"
	bettingdb "github.com/Black-And-White-Club/podium-bot/app/modules/betting/infrastructure/repositories"
	bettingrouter "github.com/Black-And-White-Club/podium-bot/app/modules/betting/infrastructure/router"
	"github.com/Black-And-White-Club/podium-bot/app/shared/clock"
	"github.com/Black-And-White-Club/podium-bot/app/shared/httputil"
	"github.com/Black-And-White-Club/podium-bot/app/shared/observability"
	"github.com/Black-And-White-Club/podium-bot/config"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"
)

// Authenticator supplies the route guards from the auth module.
type Authenticator interface {
	RequireAuth() func(http.Handler) http.Handler
	RequireAdmin() func(http.Handler) http.Handler
}

// Module represents the betting module.
type Module struct {
	EventBus       eventbus.EventBus
	BettingService bettingservice.Service
	BettingRouter  *bettingrouter.BettingRouter
	queue          bettingqueue.QueueService
	config         *config.Config
	observability  observability.Observability
	cancelFunc     context.CancelFunc
}

// NewBettingModule creates a new instance of the betting module.
func NewBettingModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	eventBus eventbus.EventBus,
	router *message.Router,
	httpRouter chi.Router,
	auth Authenticator,
) (*Module, error) {
	logger := obs.Provider.Logger
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "betting.NewBettingModule called")

	svc := bettingservice.NewBettingService(
		bettingdb.NewRepository(db),
		clock.RealClock{},
		serviceConfig(cfg),
		logger,
		obs.Registry.BettingMetrics,
		tracer,
		db,
	)
	if eventBus != nil {
		svc.SetPublisher(eventBus)
	}

	m := &Module{
		EventBus:       eventBus,
		BettingService: svc,
		config:         cfg,
		observability:  obs,
	}

	if cfg.Queue.Enabled {
		q, err := bettingqueue.NewService(ctx, db, logger, cfg.Postgres.DSN, cfg.Queue.MaxWorkers, obs.Registry.OperationMetrics, svc)
		if err != nil {
			return nil, fmt.Errorf("failed to create betting queue: %w", err)
		}
		svc.SetReconcileScheduler(q)
		m.queue = q
	}

	handlers := bettinghandlers.NewBettingHandlers(svc, logger, tracer)

	if router != nil && eventBus != nil {
		m.BettingRouter = bettingrouter.NewBettingRouter(logger, router, eventBus, eventBus, tracer, obs.Registry.Prometheus)
		if err := m.BettingRouter.Configure(ctx, handlers); err != nil {
			return nil, fmt.Errorf("failed to configure betting router: %w", err)
		}
	}

	if httpRouter != nil {
		m.registerRoutes(httpRouter, handlers, auth)
	}

	return m, nil
}

func serviceConfig(cfg *config.Config) bettingservice.Config {
	b := cfg.Betting
	return bettingservice.Config{
		Window: bettingdomain.NewWindow(cfg.BettingWindow()),
		Rules: bettingdomain.ScoringRules{
			SlotPoints: [3]int{b.PointsP1, b.PointsP2, b.PointsP3},
			Misplaced:  b.PointsMisplaced,
		},
	}
}

func (m *Module) registerRoutes(r chi.Router, h *bettinghandlers.BettingHandlers, auth Authenticator) {
	// Bet writes are the only endpoint players can hammer.
	betLimiter := authhandlers.NewCallerRateLimiter(clock.RealClock{}, rate.Limit(2), 10)

	r.Group(func(r chi.Router) {
		r.Use(authhandlers.CORSMiddleware(m.config.HTTP.AllowedOrigins))

		r.Get("/api/leaderboard", h.HandleGetLeaderboard)
		r.Get("/api/leaderboard/chart.png", h.HandleLeaderboardChart)
		r.Get("/api/races/{raceID}/bets", h.HandleListRaceBets)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth())
			r.Get("/api/bets/mine", h.HandleListMyBets)

			r.With(authhandlers.RateLimitMiddleware(betLimiter)).Post("/api/bets", h.HandleSubmitBet)
			r.With(authhandlers.RateLimitMiddleware(betLimiter)).Put("/api/bets/{betID}", h.HandleUpdateBet)
			r.Delete("/api/bets/{betID}", h.HandleDeleteBet)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin())
				r.Put("/api/races/{raceID}/result", h.HandleSetResult)
				r.Delete("/api/races/{raceID}/result", h.HandleClearResult)
				r.Post("/api/races/{raceID}/reconcile", h.HandleReconcile)
				r.Get("/api/races/{raceID}/reconciliations", h.HandleListReconciliations)
				r.Get("/api/races/{raceID}/reconcile/jobs", m.handlePendingJobs)
			})
		})
	})
}

func (m *Module) handlePendingJobs(w http.ResponseWriter, r *http.Request) {
	if m.queue == nil {
		httputil.WriteJSON(w, http.StatusOK, []bettingqueue.JobInfo{})
		return
	}
	raceID, err := httputil.UUIDParam(r, "raceID")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	jobs, err := m.queue.PendingJobs(r.Context(), raceID)
	if err != nil {
		m.observability.Provider.Logger.ErrorContext(r.Context(), "Failed to list reconcile jobs", slog.String("error", err.Error()))
		httputil.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, jobs)
}

// Run starts the betting module.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting betting module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.queue != nil {
		if err := m.queue.Start(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to start betting queue", slog.String("error", err.Error()))
		}
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Betting module goroutine stopped")
}

// Close stops the betting module and cleans up resources.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping betting module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	if m.queue != nil {
		if err := m.queue.Stop(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("Betting module stopped")
	return nil
}

// HealthCheck reports queue health when the queue is enabled.
func (m *Module) HealthCheck(ctx context.Context) error {
	if m.queue == nil {
		return nil
	}
	return m.queue.HealthCheck(ctx)
}
