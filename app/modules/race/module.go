package race

import (
	"context"
	"net/http"
	"sync"

	authhandlers "github.com/Black-And-White-Club/podium-bot/app/modules/auth/infrastructure/handlers"
	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	raceservice "github.com/Black-And-White-Club/podium-bot/app/modules/race/application"
	racehandlers "github.com/Black-And-White-Club/podium-bot/app/modules/race/infrastructure/handlers"
	racedb "github.com/Black-And-White-Club/podium-bot/app/modules/race/infrastructure/repositories"
	"github.com/Black-And-White-Club/podium-bot/app/shared/clock"
	"github.com/Black-And-White-Club/podium-bot/app/shared/observability"
	"github.com/Black-And-White-Club/podium-bot/config"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Authenticator supplies the route guards from the auth module.
type Authenticator interface {
	RequireAuth() func(http.Handler) http.Handler
	RequireAdmin() func(http.Handler) http.Handler
}

// Module represents the race module.
type Module struct {
	RaceService   raceservice.Service
	config        *config.Config
	observability observability.Observability
}

// NewRaceModule creates a new instance of the race module.
func NewRaceModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	httpRouter chi.Router,
	auth Authenticator,
) (*Module, error) {
	logger := obs.Provider.Logger

	logger.InfoContext(ctx, "race.NewRaceModule called")

	svc := raceservice.NewRaceService(
		racedb.NewRepository(db),
		clock.RealClock{},
		bettingdomain.NewWindow(cfg.BettingWindow()),
		logger,
		obs.Registry.OperationMetrics,
		obs.Registry.Tracer,
		db,
	)

	m := &Module{
		RaceService:   svc,
		config:        cfg,
		observability: obs,
	}

	if httpRouter != nil {
		m.registerRoutes(httpRouter, racehandlers.NewRaceHandlers(svc, logger), auth)
	}

	return m, nil
}

func (m *Module) registerRoutes(r chi.Router, h *racehandlers.RaceHandlers, auth Authenticator) {
	r.Group(func(r chi.Router) {
		r.Use(authhandlers.CORSMiddleware(m.config.HTTP.AllowedOrigins))

		r.Get("/api/races", h.HandleListRaces)
		r.Get("/api/races/{raceID}", h.HandleGetRace)
		r.Get("/api/drivers", h.HandleListDrivers)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth())
			r.Use(auth.RequireAdmin())

			r.Post("/api/races", h.HandleCreateRace)
			r.Post("/api/races/import", h.HandleImportCalendar)
			r.Put("/api/races/{raceID}", h.HandleUpdateRace)
			r.Put("/api/races/{raceID}/qualifying", h.HandleSetQualifying)
			r.Delete("/api/races/{raceID}", h.HandleDeleteRace)

			r.Post("/api/drivers", h.HandleCreateDriver)
			r.Put("/api/drivers/{driverID}", h.HandleUpdateDriver)
			r.Delete("/api/drivers/{driverID}", h.HandleDeleteDriver)
		})
	})
}

// Run blocks until ctx is done. The race module has no background work.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	if wg != nil {
		defer wg.Done()
	}
	<-ctx.Done()
}

// Close stops the race module.
func (m *Module) Close() error {
	m.observability.Provider.Logger.Info("Race module stopped")
	return nil
}
