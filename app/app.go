package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/podium-bot/app/eventbus"
	"github.com/Black-And-White-Club/podium-bot/app/modules/auth"
	"github.com/Black-And-White-Club/podium-bot/app/modules/betting"
	"github.com/Black-And-White-Club/podium-bot/app/modules/race"
	"github.com/Black-And-White-Club/podium-bot/app/modules/user"
	"github.com/Black-And-White-Club/podium-bot/app/shared/httputil"
	"github.com/Black-And-White-Club/podium-bot/app/shared/observability"
	"github.com/Black-And-White-Club/podium-bot/config"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// App holds the process-wide resources and the modules built on them.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router
	HTTPRouter    chi.Router

	AuthModule    *auth.Module
	UserModule    *user.Module
	RaceModule    *race.Module
	BettingModule *betting.Module

	server *http.Server
	wg     sync.WaitGroup
}

// Initialize connects to the database and event bus and builds every module.
func (app *App) Initialize(ctx context.Context, cfg *config.Config, obs observability.Observability) error {
	app.Config = cfg
	app.Observability = obs
	logger := obs.Provider.Logger

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	app.DB = bun.NewDB(sqldb, pgdialect.New())
	if err := app.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	eventBus, err := eventbus.New(ctx, cfg.NATS, logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	app.EventBus = eventBus

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create message router: %w", err)
	}
	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			Logger:          watermill.NewSlogLogger(logger),
		}.Middleware,
		middleware.Recoverer,
	)
	app.Router = router

	httpRouter := chi.NewRouter()
	httpRouter.Use(chimiddleware.RequestID)
	httpRouter.Use(chimiddleware.RealIP)
	httpRouter.Use(chimiddleware.Recoverer)
	app.HTTPRouter = httpRouter

	if err := app.initializeModules(ctx); err != nil {
		return err
	}

	httpRouter.Get("/healthz", app.handleHealth)
	app.server = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.InfoContext(ctx, "Application initialized")
	return nil
}

func (app *App) initializeModules(ctx context.Context) error {
	var err error

	if app.AuthModule, err = auth.NewModule(ctx, app.Config, app.Observability, app.HTTPRouter); err != nil {
		return fmt.Errorf("failed to initialize auth module: %w", err)
	}
	if app.UserModule, err = user.NewUserModule(ctx, app.Config, app.Observability, app.DB, app.HTTPRouter, app.AuthModule); err != nil {
		return fmt.Errorf("failed to initialize user module: %w", err)
	}
	if app.RaceModule, err = race.NewRaceModule(ctx, app.Config, app.Observability, app.DB, app.HTTPRouter, app.AuthModule); err != nil {
		return fmt.Errorf("failed to initialize race module: %w", err)
	}
	if app.BettingModule, err = betting.NewBettingModule(ctx, app.Config, app.Observability, app.DB, app.EventBus, app.Router, app.HTTPRouter, app.AuthModule); err != nil {
		return fmt.Errorf("failed to initialize betting module: %w", err)
	}
	return nil
}

// Run serves HTTP and events until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Provider.Logger

	app.Observability.Provider.StartMetricsServer()

	app.wg.Add(3)
	go app.UserModule.Run(ctx, &app.wg)
	go app.RaceModule.Run(ctx, &app.wg)
	go app.BettingModule.Run(ctx, &app.wg)

	routerErr := make(chan error, 1)
	go func() {
		if err := app.Router.Run(ctx); err != nil {
			routerErr <- fmt.Errorf("message router stopped: %w", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", slog.String("addr", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown requested")
		return nil
	case err := <-routerErr:
		return err
	case err := <-serverErr:
		return fmt.Errorf("http server stopped: %w", err)
	}
}

// Close shuts the application down in reverse dependency order. The context
// passed to Run must already be cancelled.
func (app *App) Close() error {
	logger := app.Observability.Provider.Logger
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var errs []error
	if app.server != nil {
		if err := app.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if app.Router != nil {
		if err := app.Router.Close(); err != nil {
			errs = append(errs, fmt.Errorf("message router: %w", err))
		}
	}
	type closer struct {
		name string
		fn   func() error
	}
	var modules []closer
	if app.BettingModule != nil {
		modules = append(modules, closer{"betting", app.BettingModule.Close})
	}
	if app.RaceModule != nil {
		modules = append(modules, closer{"race", app.RaceModule.Close})
	}
	if app.UserModule != nil {
		modules = append(modules, closer{"user", app.UserModule.Close})
	}
	for _, m := range modules {
		if err := m.fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s module: %w", m.name, err))
		}
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if err := app.Observability.Provider.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	app.wg.Wait()
	logger.Info("Application stopped")
	return errors.Join(errs...)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]func(context.Context) error{
		"postgres": app.DB.PingContext,
		"eventbus": app.EventBus.HealthCheck,
		"queue":    app.BettingModule.HealthCheck,
	}
	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
	for name, check := range checks {
		if err := check(ctx); err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}
