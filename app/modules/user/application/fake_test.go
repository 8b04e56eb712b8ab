package userservice

import (
	"context"
	"slices"
	"strings"
	"sync"

	userdb "github.com/Black-And-White-Club/podium-bot/app/modules/user/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FakeUserRepo keeps users in memory and records every call.
type FakeUserRepo struct {
	mu    sync.Mutex
	trace []string
	users map[uuid.UUID]*userdb.User

	CreateUserFunc func(ctx context.Context, db bun.IDB, user *userdb.User) error
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{trace: []string{}, users: make(map[uuid.UUID]*userdb.User)}
}

func (f *FakeUserRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeUserRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.trace)
}

func (f *FakeUserRepo) AddUser(u userdb.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = &u
}

func (f *FakeUserRepo) CreateUser(ctx context.Context, db bun.IDB, user *userdb.User) error {
	f.record("CreateUser")
	if f.CreateUserFunc != nil {
		return f.CreateUserFunc(ctx, db, user)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return userdb.ErrDuplicateEmail
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *FakeUserRepo) GetUser(ctx context.Context, db bun.IDB, userID uuid.UUID) (*userdb.User, error) {
	f.record("GetUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, userdb.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *FakeUserRepo) GetUserByEmail(ctx context.Context, db bun.IDB, email string) (*userdb.User, error) {
	f.record("GetUserByEmail")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, userdb.ErrNotFound
}

func (f *FakeUserRepo) ListUsers(ctx context.Context, db bun.IDB) ([]userdb.User, error) {
	f.record("ListUsers")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]userdb.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	slices.SortFunc(out, func(a, b userdb.User) int { return strings.Compare(a.DisplayName, b.DisplayName) })
	return out, nil
}

func (f *FakeUserRepo) UpdateDisplayName(ctx context.Context, db bun.IDB, userID uuid.UUID, displayName string) error {
	f.record("UpdateDisplayName")
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return userdb.ErrNotFound
	}
	u.DisplayName = displayName
	return nil
}

func (f *FakeUserRepo) UpdateRole(ctx context.Context, db bun.IDB, userID uuid.UUID, role string) error {
	f.record("UpdateRole")
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return userdb.ErrNotFound
	}
	u.Role = role
	return nil
}

var _ userdb.Repository = (*FakeUserRepo)(nil)
