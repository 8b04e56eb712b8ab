package userhandlers

import (
	"errors"
	"log/slog"
	"net/http"

	authdomain "github.com/Black-And-White-Club/podium-bot/app/modules/auth/domain"
	userservice "github.com/Black-And-White-Club/podium-bot/app/modules/user/application"
	"github.com/Black-And-White-Club/podium-bot/app/shared/httputil"
)

// UserHandlers serves the user API.
type UserHandlers struct {
	service userservice.Service
	logger  *slog.Logger
}

func NewUserHandlers(service userservice.Service, logger *slog.Logger) *UserHandlers {
	return &UserHandlers{service: service, logger: logger}
}

type displayNameRequest struct {
	DisplayName string `json:"display_name"`
}

type roleRequest struct {
	Role authdomain.Role `json:"role"`
}

// HandleGetMe serves GET /api/users/me.
func (h *UserHandlers) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := authdomain.ClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	user, err := h.service.GetUser(r.Context(), claims.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// HandleUpdateMe serves PUT /api/users/me.
func (h *UserHandlers) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := authdomain.ClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	var req displayNameRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.service.UpdateDisplayName(r.Context(), claims.UserID, req.DisplayName)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// HandleListUsers serves GET /api/users.
func (h *UserHandlers) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// HandleRegister serves POST /api/users.
func (h *UserHandlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req userservice.RegisterInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

// HandleSetRole serves PUT /api/users/{userID}/role.
func (h *UserHandlers) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	claims, ok := authdomain.ClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	userID, err := httputil.UUIDParam(r, "userID")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req roleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.service.SetRole(r.Context(), claims.UserID, userID, req.Role)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, userservice.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, userservice.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, userservice.ErrSelfDemotion):
		return http.StatusForbidden
	case errors.Is(err, userservice.ErrInvalidEmail),
		errors.Is(err, userservice.ErrInvalidDisplayName),
		errors.Is(err, userservice.ErrInvalidRole):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *UserHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "User request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		httputil.WriteError(w, status, "internal error")
		return
	}
	httputil.WriteError(w, status, err.Error())
}
