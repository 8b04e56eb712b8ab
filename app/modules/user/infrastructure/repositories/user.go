package userdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new user repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) CreateUser(ctx context.Context, db bun.IDB, user *User) error {
	db = r.resolveDB(db)
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(user).Returning("*").Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() && pgErr.Field('n') == constraintUserEmail {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("userdb.CreateUser: %w", err)
	}
	return nil
}

func (r *Impl) GetUser(ctx context.Context, db bun.IDB, userID uuid.UUID) (*User, error) {
	db = r.resolveDB(db)
	user := new(User)
	if err := db.NewSelect().Model(user).Where("u.id = ?", userID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("userdb.GetUser: %w", err)
	}
	return user, nil
}

func (r *Impl) GetUserByEmail(ctx context.Context, db bun.IDB, email string) (*User, error) {
	db = r.resolveDB(db)
	user := new(User)
	err := db.NewSelect().
		Model(user).
		Where("u.email = ?", strings.ToLower(strings.TrimSpace(email))).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("userdb.GetUserByEmail: %w", err)
	}
	return user, nil
}

func (r *Impl) ListUsers(ctx context.Context, db bun.IDB) ([]User, error) {
	db = r.resolveDB(db)
	var users []User
	if err := db.NewSelect().Model(&users).OrderExpr("u.display_name ASC, u.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("userdb.ListUsers: %w", err)
	}
	return users, nil
}

func (r *Impl) UpdateDisplayName(ctx context.Context, db bun.IDB, userID uuid.UUID, displayName string) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*User)(nil)).
		Set("display_name = ?", displayName).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("userdb.UpdateDisplayName: %w", err)
	}
	return expectRow(res, "UpdateDisplayName")
}

func (r *Impl) UpdateRole(ctx context.Context, db bun.IDB, userID uuid.UUID, role string) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*User)(nil)).
		Set("role = ?", role).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("userdb.UpdateRole: %w", err)
	}
	return expectRow(res, "UpdateRole")
}

func expectRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("userdb.%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
