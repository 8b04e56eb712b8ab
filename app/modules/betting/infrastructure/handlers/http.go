package bettinghandlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	authdomain "github.com/Black-And-White-Club/podium-bot/app/modules/auth/domain"
	bettingservice "github.com/Black-And-White-Club/podium-bot/app/modules/betting/application"
	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	"github.com/Black-And-White-Club/podium-bot/app/shared/httputil"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
)

type podiumRequest struct {
	P1 string `json:"p1"`
	P2 string `json:"p2"`
	P3 string `json:"p3"`
}

func (p podiumRequest) podium() sharedtypes.Podium {
	return sharedtypes.NewPodium(p.P1, p.P2, p.P3)
}

type submitBetRequest struct {
	RaceID uuid.UUID `json:"race_id"`
	podiumRequest
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type leaderboardEntryResponse struct {
	Position    int       `json:"position"`
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	Points      int       `json:"points"`
	Stars       int       `json:"stars"`
	BetCount    int       `json:"bet_count"`
}

// HandleGetLeaderboard serves GET /api/leaderboard.
func (h *BettingHandlers) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.GetLeaderboard(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	out := make([]leaderboardEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = leaderboardEntryResponse{
			Position:    e.Position,
			UserID:      e.UserID,
			DisplayName: e.DisplayName,
			Email:       e.Email,
			Points:      e.Points,
			Stars:       e.Stars,
			BetCount:    e.BetCount,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleLeaderboardChart serves GET /api/leaderboard/chart.png?limit=N.
func (h *BettingHandlers) HandleLeaderboardChart(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 50 {
			httputil.WriteError(w, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = n
	}

	png, err := h.service.LeaderboardChart(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// HandleSubmitBet serves POST /api/bets.
func (h *BettingHandlers) HandleSubmitBet(w http.ResponseWriter, r *http.Request) {
	claims, ok := authdomain.ClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	var req submitBetRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RaceID == uuid.Nil {
		httputil.WriteError(w, http.StatusBadRequest, "race_id is required")
		return
	}

	bet, err := h.service.SubmitBet(r.Context(), claims.UserID, req.RaceID, req.podium())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, bet)
}

// HandleUpdateBet serves PUT /api/bets/{betID}.
func (h *BettingHandlers) HandleUpdateBet(w http.ResponseWriter, r *http.Request) {
	claims, ok := authdomain.ClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	betID, err := httputil.UUIDParam(r, "betID")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req podiumRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	bet, err := h.service.UpdateBet(r.Context(), claims.UserID, betID, req.podium())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bet)
}

// HandleDeleteBet serves DELETE /api/bets/{betID}.
func (h *BettingHandlers) HandleDeleteBet(w http.ResponseWriter, r *http.Request) {
	claims, ok := authdomain.ClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	betID, err := httputil.UUIDParam(r, "betID")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := bettingservice.Actor{UserID: claims.UserID, IsAdmin: claims.IsAdmin()}
	if err := h.service.DeleteBet(r.Context(), actor, betID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListMyBets serves GET /api/bets/mine.
func (h *BettingHandlers) HandleListMyBets(w http.ResponseWriter, r *http.Request) {
	claims, ok := authdomain.ClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	bets, err := h.service.ListUserBets(r.Context(), claims.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bets)
}

// HandleListRaceBets serves GET /api/races/{raceID}/bets.
func (h *BettingHandlers) HandleListRaceBets(w http.ResponseWriter, r *http.Request) {
	raceID, err := httputil.UUIDParam(r, "raceID")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	bets, err := h.service.ListRaceBets(r.Context(), raceID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bets)
}

// HandleSetResult serves PUT /api/races/{raceID}/result. A pass handed to
// the job queue answers 202.
func (h *BettingHandlers) HandleSetResult(w http.ResponseWriter, r *http.Request) {
	raceID, err := httputil.UUIDParam(r, "raceID")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req podiumRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.ApplyRaceResult(r.Context(), raceID, req.podium())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if summary.Deferred {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, summary)
}

// HandleClearResult serves DELETE /api/races/{raceID}/result.
func (h *BettingHandlers) HandleClearResult(w http.ResponseWriter, r *http.Request) {
	raceID, err := httputil.UUIDParam(r, "raceID")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.ClearRaceResult(r.Context(), raceID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReconcile serves POST /api/races/{raceID}/reconcile.
func (h *BettingHandlers) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	raceID, err := httputil.UUIDParam(r, "raceID")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := h.service.ReconcileRace(r.Context(), raceID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// HandleListReconciliations serves GET /api/races/{raceID}/reconciliations.
func (h *BettingHandlers) HandleListReconciliations(w http.ResponseWriter, r *http.Request) {
	raceID, err := httputil.UUIDParam(r, "raceID")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	runs, err := h.service.ListReconciliationRuns(r.Context(), raceID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, runs)
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, bettingdomain.ErrDuplicateUserBet),
		errors.Is(err, bettingdomain.ErrCombinationTaken),
		errors.Is(err, bettingdomain.ErrConcurrentConflict),
		errors.Is(err, bettingdomain.ErrRaceCompleted),
		errors.Is(err, bettingdomain.ErrRaceNotStarted):
		return http.StatusConflict
	case errors.Is(err, bettingdomain.ErrRaceNotFound),
		errors.Is(err, bettingdomain.ErrBetNotFound):
		return http.StatusNotFound
	case errors.Is(err, bettingdomain.ErrNotBetOwner):
		return http.StatusForbidden
	case bettingdomain.IsBusinessError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *BettingHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Betting request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		httputil.WriteJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	httputil.WriteJSON(w, status, errorResponse{
		Error: err.Error(),
		Code:  bettingdomain.RejectionReason(err),
	})
}
