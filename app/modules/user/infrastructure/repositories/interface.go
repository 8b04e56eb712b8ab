package userdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the persistence contract for user records.
//
// Error semantics:
//   - ErrNotFound: requested record does not exist, or an UPDATE matched no rows
//   - ErrDuplicateEmail: the email belongs to another user
//   - other errors: infrastructure failures
type Repository interface {
	CreateUser(ctx context.Context, db bun.IDB, user *User) error
	GetUser(ctx context.Context, db bun.IDB, userID uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, db bun.IDB, email string) (*User, error)
	// ListUsers returns users ordered by display name.
	ListUsers(ctx context.Context, db bun.IDB) ([]User, error)
	UpdateDisplayName(ctx context.Context, db bun.IDB, userID uuid.UUID, displayName string) error
	UpdateRole(ctx context.Context, db bun.IDB, userID uuid.UUID, role string) error
}
