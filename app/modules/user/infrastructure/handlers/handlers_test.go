package userhandlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authdomain "github.com/Black-And-White-Club/podium-bot/app/modules/auth/domain"
	userservice "github.com/Black-And-White-Club/podium-bot/app/modules/user/application"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(h *UserHandlers, claims *authdomain.Claims) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if claims != nil {
				req = req.WithContext(authdomain.WithClaims(req.Context(), claims))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/users/me", h.HandleGetMe)
	r.Put("/api/users/me", h.HandleUpdateMe)
	r.Get("/api/users", h.HandleListUsers)
	r.Post("/api/users", h.HandleRegister)
	r.Put("/api/users/{userID}/role", h.HandleSetRole)
	return r
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleGetMe(t *testing.T) {
	me := &authdomain.Claims{UserID: uuid.New(), Role: authdomain.RolePlayer}

	tests := []struct {
		name     string
		claims   *authdomain.Claims
		err      error
		wantCode int
	}{
		{name: "ok", claims: me, wantCode: http.StatusOK},
		{name: "no claims", wantCode: http.StatusUnauthorized},
		{name: "token for deleted user", claims: me, err: userservice.ErrUserNotFound, wantCode: http.StatusNotFound},
		{name: "db failure", claims: me, err: errors.New("timeout"), wantCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeUserService()
			svc.GetUserFunc = func(_ context.Context, id uuid.UUID) (*userservice.UserInfo, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &userservice.UserInfo{ID: id, DisplayName: "Lando"}, nil
			}
			rec := do(t, testRouter(NewUserHandlers(svc, slog.Default()), tt.claims), http.MethodGet, "/api/users/me", "")
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				var got userservice.UserInfo
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, me.UserID, got.ID)
			}
		})
	}
}

func TestHandleUpdateMe(t *testing.T) {
	me := &authdomain.Claims{UserID: uuid.New(), Role: authdomain.RolePlayer}
	svc := NewFakeUserService()
	var gotName string
	svc.UpdateDisplayNameFunc = func(_ context.Context, id uuid.UUID, name string) (*userservice.UserInfo, error) {
		gotName = name
		if name == "" {
			return nil, userservice.ErrInvalidDisplayName
		}
		return &userservice.UserInfo{ID: id, DisplayName: name}, nil
	}
	router := testRouter(NewUserHandlers(svc, slog.Default()), me)

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPut, "/api/users/me", `{"display_name":"Lando"}`).Code)
	assert.Equal(t, "Lando", gotName)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPut, "/api/users/me", `{"display_name":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPut, "/api/users/me", `{"nickname":"x"}`).Code)
}

func TestHandleRegister(t *testing.T) {
	svc := NewFakeUserService()
	svc.RegisterFunc = func(_ context.Context, in userservice.RegisterInput) (*userservice.UserInfo, error) {
		if in.Email == "taken@example.com" {
			return nil, userservice.ErrEmailTaken
		}
		return &userservice.UserInfo{ID: uuid.New(), Email: in.Email}, nil
	}
	router := testRouter(NewUserHandlers(svc, slog.Default()), nil)

	assert.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/users", `{"email":"new@example.com","display_name":"New"}`).Code)
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/api/users", `{"email":"taken@example.com","display_name":"Taken"}`).Code)
}

func TestHandleSetRole(t *testing.T) {
	admin := &authdomain.Claims{UserID: uuid.New(), Role: authdomain.RoleAdmin}
	target := uuid.New()

	svc := NewFakeUserService()
	var gotActor uuid.UUID
	svc.SetRoleFunc = func(_ context.Context, actor, id uuid.UUID, role authdomain.Role) (*userservice.UserInfo, error) {
		gotActor = actor
		if actor == id {
			return nil, userservice.ErrSelfDemotion
		}
		return &userservice.UserInfo{ID: id, Role: role}, nil
	}
	router := testRouter(NewUserHandlers(svc, slog.Default()), admin)

	rec := do(t, router, http.MethodPut, "/api/users/"+target.String()+"/role", `{"role":"admin"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, admin.UserID, gotActor)

	rec = do(t, router, http.MethodPut, "/api/users/"+admin.UserID.String()+"/role", `{"role":"player"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodPut, "/api/users/nobody/role", `{"role":"player"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
