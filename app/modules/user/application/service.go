package userservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	authdomain "github.com/Black-And-White-Club/podium-bot/app/modules/auth/domain"
	userdb "github.com/Black-And-White-Club/podium-bot/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/podium-bot/app/shared/observability/metrics"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "UserService"

const maxDisplayName = 64

// UserService implements the Service interface.
type UserService struct {
	repo    userdb.Repository
	logger  *slog.Logger
	metrics metrics.OperationMetrics
	tracer  trace.Tracer
	db      *bun.DB
}

// NewUserService creates a new UserService.
func NewUserService(
	repo userdb.Repository,
	logger *slog.Logger,
	m metrics.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(serviceName)
	}
	return &UserService{repo: repo, logger: logger, metrics: m, tracer: tracer, db: db}
}

func (s *UserService) withTelemetry(ctx context.Context, operationName string, userID uuid.UUID, op func(ctx context.Context) error) (err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("user_id", userID.String()),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				slog.String("operation", operationName),
				slog.String("error", err.Error()),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
		}
	}()

	if err = op(ctx); err != nil {
		span.RecordError(err)
		if isExpected(err) {
			s.logger.InfoContext(ctx, "Operation rejected",
				slog.String("operation", operationName),
				slog.String("user_id", userID.String()),
				slog.String("reason", err.Error()),
			)
			s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
			return err
		}
		s.logger.ErrorContext(ctx, "Operation failed with error",
			slog.String("operation", operationName),
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		return fmt.Errorf("%s: %w", operationName, err)
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	return nil
}

// Register validates and creates a user.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*UserInfo, error) {
	var info *UserInfo
	err := s.withTelemetry(ctx, "Register", uuid.Nil, func(ctx context.Context) error {
		email, err := normalizeEmail(input.Email)
		if err != nil {
			return err
		}
		name, err := normalizeDisplayName(input.DisplayName)
		if err != nil {
			return err
		}
		role := input.Role
		if role == "" {
			role = authdomain.RolePlayer
		}
		if !role.IsValid() {
			return ErrInvalidRole
		}

		user := &userdb.User{ID: uuid.New(), Email: email, DisplayName: name, Role: role.String()}
		if err := s.repo.CreateUser(ctx, nil, user); err != nil {
			if errors.Is(err, userdb.ErrDuplicateEmail) {
				return ErrEmailTaken
			}
			return err
		}
		s.logger.InfoContext(ctx, "User registered",
			slog.String("user_id", user.ID.String()),
			slog.String("role", user.Role),
		)
		out := toInfo(user)
		info = &out
		return nil
	})
	return info, err
}

// GetUser returns one user with current totals.
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	var info *UserInfo
	err := s.withTelemetry(ctx, "GetUser", userID, func(ctx context.Context) error {
		user, err := s.getUser(ctx, nil, userID)
		if err != nil {
			return err
		}
		out := toInfo(user)
		info = &out
		return nil
	})
	return info, err
}

// ListUsers returns every user ordered by display name.
func (s *UserService) ListUsers(ctx context.Context) ([]UserInfo, error) {
	var out []UserInfo
	err := s.withTelemetry(ctx, "ListUsers", uuid.Nil, func(ctx context.Context) error {
		users, err := s.repo.ListUsers(ctx, nil)
		if err != nil {
			return err
		}
		out = make([]UserInfo, 0, len(users))
		for i := range users {
			out = append(out, toInfo(&users[i]))
		}
		return nil
	})
	return out, err
}

// UpdateDisplayName renames a user.
func (s *UserService) UpdateDisplayName(ctx context.Context, userID uuid.UUID, displayName string) (*UserInfo, error) {
	var info *UserInfo
	err := s.withTelemetry(ctx, "UpdateDisplayName", userID, func(ctx context.Context) error {
		name, err := normalizeDisplayName(displayName)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateDisplayName(ctx, nil, userID, name); err != nil {
			if errors.Is(err, userdb.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		user, err := s.getUser(ctx, nil, userID)
		if err != nil {
			return err
		}
		out := toInfo(user)
		info = &out
		return nil
	})
	return info, err
}

// SetRole changes a user's role. An admin cannot demote themselves.
func (s *UserService) SetRole(ctx context.Context, actorID, userID uuid.UUID, role authdomain.Role) (*UserInfo, error) {
	var info *UserInfo
	err := s.withTelemetry(ctx, "SetRole", userID, func(ctx context.Context) error {
		if !role.IsValid() {
			return ErrInvalidRole
		}
		if actorID == userID && role != authdomain.RoleAdmin {
			return ErrSelfDemotion
		}
		if err := s.repo.UpdateRole(ctx, nil, userID, role.String()); err != nil {
			if errors.Is(err, userdb.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		user, err := s.getUser(ctx, nil, userID)
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "User role changed",
			slog.String("user_id", userID.String()),
			slog.String("actor_id", actorID.String()),
			slog.String("role", role.String()),
		)
		out := toInfo(user)
		info = &out
		return nil
	})
	return info, err
}

// EnsureAdmin is used by the operator CLI to bootstrap the first admin.
func (s *UserService) EnsureAdmin(ctx context.Context, email, displayName string) (*UserInfo, error) {
	var info *UserInfo
	err := s.withTelemetry(ctx, "EnsureAdmin", uuid.Nil, func(ctx context.Context) error {
		normalized, err := normalizeEmail(email)
		if err != nil {
			return err
		}
		return s.inTx(ctx, func(ctx context.Context, db bun.IDB) error {
			user, err := s.repo.GetUserByEmail(ctx, db, normalized)
			switch {
			case errors.Is(err, userdb.ErrNotFound):
				name, err := normalizeDisplayName(displayName)
				if err != nil {
					return err
				}
				user = &userdb.User{ID: uuid.New(), Email: normalized, DisplayName: name, Role: authdomain.RoleAdmin.String()}
				if err := s.repo.CreateUser(ctx, db, user); err != nil {
					return err
				}
			case err != nil:
				return err
			case user.Role != authdomain.RoleAdmin.String():
				if err := s.repo.UpdateRole(ctx, db, user.ID, authdomain.RoleAdmin.String()); err != nil {
					return err
				}
				user.Role = authdomain.RoleAdmin.String()
			}
			out := toInfo(user)
			info = &out
			return nil
		})
	})
	return info, err
}

func (s *UserService) inTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

func (s *UserService) getUser(ctx context.Context, db bun.IDB, userID uuid.UUID) (*userdb.User, error) {
	user, err := s.repo.GetUser(ctx, db, userID)
	if err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func normalizeDisplayName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || utf8.RuneCountInString(name) > maxDisplayName {
		return "", ErrInvalidDisplayName
	}
	return name, nil
}

func toInfo(u *userdb.User) UserInfo {
	return UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        authdomain.Role(u.Role),
		Points:      u.Points,
		Stars:       u.Stars,
		CreatedAt:   u.CreatedAt,
	}
}
