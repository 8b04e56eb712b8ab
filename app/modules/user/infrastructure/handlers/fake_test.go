package userhandlers

import (
	"context"

	authdomain "github.com/Black-And-White-Club/podium-bot/app/modules/auth/domain"
	userservice "github.com/Black-And-White-Club/podium-bot/app/modules/user/application"
	"github.com/google/uuid"
)

type FakeUserService struct {
	trace []string

	RegisterFunc          func(ctx context.Context, input userservice.RegisterInput) (*userservice.UserInfo, error)
	GetUserFunc           func(ctx context.Context, userID uuid.UUID) (*userservice.UserInfo, error)
	UpdateDisplayNameFunc func(ctx context.Context, userID uuid.UUID, displayName string) (*userservice.UserInfo, error)
	SetRoleFunc           func(ctx context.Context, actorID, userID uuid.UUID, role authdomain.Role) (*userservice.UserInfo, error)
}

func NewFakeUserService() *FakeUserService {
	return &FakeUserService{trace: []string{}}
}

func (f *FakeUserService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeUserService) Register(ctx context.Context, input userservice.RegisterInput) (*userservice.UserInfo, error) {
	f.record("Register")
	if f.RegisterFunc != nil {
		return f.RegisterFunc(ctx, input)
	}
	return &userservice.UserInfo{ID: uuid.New(), Email: input.Email, DisplayName: input.DisplayName, Role: authdomain.RolePlayer}, nil
}

func (f *FakeUserService) GetUser(ctx context.Context, userID uuid.UUID) (*userservice.UserInfo, error) {
	f.record("GetUser")
	if f.GetUserFunc != nil {
		return f.GetUserFunc(ctx, userID)
	}
	return &userservice.UserInfo{ID: userID}, nil
}

func (f *FakeUserService) ListUsers(ctx context.Context) ([]userservice.UserInfo, error) {
	f.record("ListUsers")
	return []userservice.UserInfo{}, nil
}

func (f *FakeUserService) UpdateDisplayName(ctx context.Context, userID uuid.UUID, displayName string) (*userservice.UserInfo, error) {
	f.record("UpdateDisplayName")
	if f.UpdateDisplayNameFunc != nil {
		return f.UpdateDisplayNameFunc(ctx, userID, displayName)
	}
	return &userservice.UserInfo{ID: userID, DisplayName: displayName}, nil
}

func (f *FakeUserService) SetRole(ctx context.Context, actorID, userID uuid.UUID, role authdomain.Role) (*userservice.UserInfo, error) {
	f.record("SetRole")
	if f.SetRoleFunc != nil {
		return f.SetRoleFunc(ctx, actorID, userID, role)
	}
	return &userservice.UserInfo{ID: userID, Role: role}, nil
}

func (f *FakeUserService) EnsureAdmin(ctx context.Context, email, displayName string) (*userservice.UserInfo, error) {
	f.record("EnsureAdmin")
	return &userservice.UserInfo{ID: uuid.New(), Email: email, Role: authdomain.RoleAdmin}, nil
}

var _ userservice.Service = (*FakeUserService)(nil)
