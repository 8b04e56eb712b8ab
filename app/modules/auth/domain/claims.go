package authdomain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Claims represents the domain model for authentication claims.
type Claims struct {
	UserID    uuid.UUID
	Email     string
	Role      Role
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// IsExpired checks if the claims have expired at now.
func (c *Claims) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// IsAdmin reports whether the caller may use admin operations.
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying the caller's claims.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}
