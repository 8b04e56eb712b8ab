package userservice

import (
	"context"
	"time"

	authdomain "github.com/Black-And-White-Club/podium-bot/app/modules/auth/domain"
	"github.com/google/uuid"
)

// Service manages user records.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*UserInfo, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error)
	ListUsers(ctx context.Context) ([]UserInfo, error)
	UpdateDisplayName(ctx context.Context, userID uuid.UUID, displayName string) (*UserInfo, error)
	// SetRole changes a user's role on behalf of actorID.
	SetRole(ctx context.Context, actorID, userID uuid.UUID, role authdomain.Role) (*UserInfo, error)
	// EnsureAdmin creates or promotes the user with email to admin.
	EnsureAdmin(ctx context.Context, email, displayName string) (*UserInfo, error)
}

// RegisterInput creates a user. An empty role means player.
type RegisterInput struct {
	Email       string          `json:"email"`
	DisplayName string          `json:"display_name"`
	Role        authdomain.Role `json:"role,omitempty"`
}

// UserInfo is a user as returned to callers.
type UserInfo struct {
	ID          uuid.UUID       `json:"id"`
	Email       string          `json:"email"`
	DisplayName string          `json:"display_name"`
	Role        authdomain.Role `json:"role"`
	Points      int             `json:"points"`
	Stars       int             `json:"stars"`
	CreatedAt   time.Time       `json:"created_at"`
}
