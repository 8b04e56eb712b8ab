package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	authdomain "github.com/Black-And-White-Club/podium-bot/app/modules/auth/domain"
	authhandlers "github.com/Black-And-White-Club/podium-bot/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/Black-And-White-Club/podium-bot/app/modules/auth/infrastructure/jwt"
	"github.com/Black-And-White-Club/podium-bot/app/shared/httputil"
	"github.com/Black-And-White-Club/podium-bot/app/shared/observability"
	"github.com/Black-And-White-Club/podium-bot/config"
	"github.com/go-chi/chi/v5"
)

// Module verifies bearer tokens for the other modules' routes.
type Module struct {
	config   *config.Config
	provider authjwt.Provider
	logger   *slog.Logger
}

// NewModule creates a new auth module.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	httpRouter chi.Router,
) (*Module, error) {
	logger := obs.Provider.Logger

	logger.InfoContext(ctx, "Initializing auth module")

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("auth module requires a jwt secret")
	}

	m := &Module{
		config:   cfg,
		provider: authjwt.NewProvider(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience),
		logger:   logger,
	}

	// Register HTTP routes
	if httpRouter != nil {
		httpRouter.Route("/api/auth", func(r chi.Router) {
			r.Use(authhandlers.CORSMiddleware(cfg.HTTP.AllowedOrigins))
			r.Use(m.RequireAuth())
			r.Get("/session", m.handleSession)
		})
	}

	return m, nil
}

// RequireAuth returns the bearer-token middleware.
func (m *Module) RequireAuth() func(http.Handler) http.Handler {
	return authhandlers.RequireAuth(m.provider, m.logger)
}

// RequireAdmin returns the admin-role middleware.
func (m *Module) RequireAdmin() func(http.Handler) http.Handler {
	return authhandlers.RequireAdmin
}

// IssueToken signs a token for claims using the configured lifetime when ttl is zero.
func (m *Module) IssueToken(claims *authdomain.Claims, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = m.config.JWT.DefaultTTL
	}
	return m.provider.GenerateToken(claims, ttl)
}

type sessionResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (m *Module) handleSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := authdomain.ClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{
		UserID:    claims.UserID.String(),
		Email:     claims.Email,
		Role:      claims.Role.String(),
		ExpiresAt: claims.ExpiresAt,
	})
}
