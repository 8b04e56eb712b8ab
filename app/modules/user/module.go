package user

import (
	"context"
	"net/http"
	"sync"

	authhandlers "github.com/Black-And-White-Club/podium-bot/app/modules/auth/infrastructure/handlers"
	userservice "github.com/Black-And-White-Club/podium-bot/app/modules/user/application"
	userhandlers "github.com/Black-And-White-Club/podium-bot/app/modules/user/infrastructure/handlers"
	userdb "github.com/Black-And-White-Club/podium-bot/app/modules/user/infrastructure/repositories"
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

// Module represents the user module.
type Module struct {
	UserService   userservice.Service
	config        *config.Config
	observability observability.Observability
}

// NewUserModule creates a new instance of the user module.
func NewUserModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	httpRouter chi.Router,
	auth Authenticator,
) (*Module, error) {
	logger := obs.Provider.Logger

	logger.InfoContext(ctx, "user.NewUserModule called")

	svc := userservice.NewUserService(
		userdb.NewRepository(db),
		logger,
		obs.Registry.OperationMetrics,
		obs.Registry.Tracer,
		db,
	)

	m := &Module{
		UserService:   svc,
		config:        cfg,
		observability: obs,
	}

	if httpRouter != nil {
		h := userhandlers.NewUserHandlers(svc, logger)
		httpRouter.Group(func(r chi.Router) {
			r.Use(authhandlers.CORSMiddleware(cfg.HTTP.AllowedOrigins))
			r.Use(auth.RequireAuth())

			r.Get("/api/users/me", h.HandleGetMe)
			r.Put("/api/users/me", h.HandleUpdateMe)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin())
				r.Get("/api/users", h.HandleListUsers)
				r.Post("/api/users", h.HandleRegister)
				r.Put("/api/users/{userID}/role", h.HandleSetRole)
			})
		})
	}

	return m, nil
}

// Run blocks until ctx is done.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	if wg != nil {
		defer wg.Done()
	}
	<-ctx.Done()
}

// Close stops the user module.
func (m *Module) Close() error {
	m.observability.Provider.Logger.Info("User module stopped")
	return nil
}
