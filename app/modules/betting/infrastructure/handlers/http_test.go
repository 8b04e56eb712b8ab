package bettinghandlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authdomain "github.com/Black-And-White-Club/podium-bot/app/modules/auth/domain"
	bettingservice "github.com/Black-And-White-Club/podium-bot/app/modules/betting/application"
	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRouter mounts the handlers the way the module does, with claims
// injected instead of a bearer token.
func testRouter(h *BettingHandlers, claims *authdomain.Claims) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if claims != nil {
				req = req.WithContext(authdomain.WithClaims(req.Context(), claims))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/leaderboard", h.HandleGetLeaderboard)
	r.Get("/api/leaderboard/chart.png", h.HandleLeaderboardChart)
	r.Post("/api/bets", h.HandleSubmitBet)
	r.Get("/api/bets/mine", h.HandleListMyBets)
	r.Put("/api/bets/{betID}", h.HandleUpdateBet)
	r.Delete("/api/bets/{betID}", h.HandleDeleteBet)
	r.Get("/api/races/{raceID}/bets", h.HandleListRaceBets)
	r.Put("/api/races/{raceID}/result", h.HandleSetResult)
	r.Delete("/api/races/{raceID}/result", h.HandleClearResult)
	r.Post("/api/races/{raceID}/reconcile", h.HandleReconcile)
	r.Get("/api/races/{raceID}/reconciliations", h.HandleListReconciliations)
	return r
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleSubmitBet(t *testing.T) {
	player := &authdomain.Claims{UserID: uuid.New(), Role: authdomain.RolePlayer}
	raceID := uuid.New()

	tests := []struct {
		name       string
		claims     *authdomain.Claims
		body       string
		err        error
		wantCode   int
		wantReason string
	}{
		{
			name:     "created",
			claims:   player,
			body:     `{"race_id":"` + raceID.String() + `","p1":"ver","p2":"nor","p3":"lec"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:     "unauthenticated",
			body:     `{}`,
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "missing race",
			claims:   player,
			body:     `{"p1":"VER","p2":"NOR","p3":"LEC"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad json",
			claims:   player,
			body:     `{"race_id":`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:       "window closed",
			claims:     player,
			body:       `{"race_id":"` + raceID.String() + `","p1":"VER","p2":"NOR","p3":"LEC"}`,
			err:        bettingdomain.ErrWindowClosed,
			wantCode:   http.StatusBadRequest,
			wantReason: "window_closed",
		},
		{
			name:       "combination taken",
			claims:     player,
			body:       `{"race_id":"` + raceID.String() + `","p1":"VER","p2":"NOR","p3":"LEC"}`,
			err:        bettingdomain.NewConcurrentConflict(bettingdomain.ErrCombinationTaken),
			wantCode:   http.StatusConflict,
			wantReason: "combination_taken",
		},
		{
			name:     "race not found",
			claims:   player,
			body:     `{"race_id":"` + raceID.String() + `","p1":"VER","p2":"NOR","p3":"LEC"}`,
			err:      bettingdomain.ErrRaceNotFound,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "internal",
			claims:   player,
			body:     `{"race_id":"` + raceID.String() + `","p1":"VER","p2":"NOR","p3":"LEC"}`,
			err:      errors.New("SubmitBet: connection refused"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeBettingService()
			var gotPrediction sharedtypes.Podium
			svc.SubmitBetFunc = func(ctx context.Context, userID, rid uuid.UUID, p sharedtypes.Podium) (*bettingservice.BetInfo, error) {
				gotPrediction = p
				if tt.err != nil {
					return nil, tt.err
				}
				return &bettingservice.BetInfo{ID: uuid.New(), UserID: userID, RaceID: rid, Prediction: p}, nil
			}

			rec := do(t, testRouter(newTestHandlers(svc), tt.claims), http.MethodPost, "/api/bets", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusCreated {
				assert.Equal(t, sharedtypes.NewPodium("VER", "NOR", "LEC"), gotPrediction)
				var bet bettingservice.BetInfo
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bet))
				assert.Equal(t, player.UserID, bet.UserID)
			}
			if tt.wantReason != "" {
				var body errorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantReason, body.Code)
			}
			if tt.wantCode == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "connection refused")
			}
		})
	}
}

func TestHandleDeleteBet_PassesAdminFlag(t *testing.T) {
	admin := &authdomain.Claims{UserID: uuid.New(), Role: authdomain.RoleAdmin}
	svc := NewFakeBettingService()
	var got bettingservice.Actor
	svc.DeleteBetFunc = func(ctx context.Context, actor bettingservice.Actor, betID uuid.UUID) error {
		got = actor
		return nil
	}

	rec := do(t, testRouter(newTestHandlers(svc), admin), http.MethodDelete, "/api/bets/"+uuid.New().String(), "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, bettingservice.Actor{UserID: admin.UserID, IsAdmin: true}, got)
}

func TestHandleUpdateBet(t *testing.T) {
	player := &authdomain.Claims{UserID: uuid.New(), Role: authdomain.RolePlayer}

	tests := []struct {
		name     string
		path     string
		err      error
		wantCode int
	}{
		{name: "updated", path: "/api/bets/" + uuid.New().String(), wantCode: http.StatusOK},
		{name: "bad id", path: "/api/bets/abc", wantCode: http.StatusBadRequest},
		{name: "not owner", path: "/api/bets/" + uuid.New().String(), err: bettingdomain.ErrNotBetOwner, wantCode: http.StatusForbidden},
		{name: "race completed", path: "/api/bets/" + uuid.New().String(), err: bettingdomain.ErrRaceCompleted, wantCode: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeBettingService()
			if tt.err != nil {
				svc.UpdateBetFunc = func(context.Context, uuid.UUID, uuid.UUID, sharedtypes.Podium) (*bettingservice.BetInfo, error) {
					return nil, tt.err
				}
			}

			rec := do(t, testRouter(newTestHandlers(svc), player), http.MethodPut, tt.path, `{"p1":"VER","p2":"NOR","p3":"LEC"}`)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestHandleSetResult(t *testing.T) {
	admin := &authdomain.Claims{UserID: uuid.New(), Role: authdomain.RoleAdmin}
	raceID := uuid.New()

	tests := []struct {
		name     string
		summary  *bettingservice.ReconcileSummary
		err      error
		wantCode int
	}{
		{name: "reconciled", summary: &bettingservice.ReconcileSummary{RaceID: raceID, Revision: 1, BetsScored: 4}, wantCode: http.StatusOK},
		{name: "deferred", summary: &bettingservice.ReconcileSummary{RaceID: raceID, Revision: 2, Deferred: true}, wantCode: http.StatusAccepted},
		{name: "incomplete", err: bettingdomain.ErrResultIncomplete, wantCode: http.StatusBadRequest},
		{name: "before start", err: bettingdomain.ErrRaceNotStarted, wantCode: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeBettingService()
			svc.ApplyRaceResultFunc = func(context.Context, uuid.UUID, sharedtypes.Podium) (*bettingservice.ReconcileSummary, error) {
				return tt.summary, tt.err
			}

			rec := do(t, testRouter(newTestHandlers(svc), admin), http.MethodPut, "/api/races/"+raceID.String()+"/result", `{"p1":"VER","p2":"NOR","p3":"LEC"}`)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.summary != nil {
				var got bettingservice.ReconcileSummary
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, *tt.summary, got)
			}
		})
	}
}

func TestHandleClearResultAndReconcile(t *testing.T) {
	admin := &authdomain.Claims{UserID: uuid.New(), Role: authdomain.RoleAdmin}
	svc := NewFakeBettingService()
	router := testRouter(newTestHandlers(svc), admin)
	raceID := uuid.New().String()

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/api/races/"+raceID+"/result", "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/races/"+raceID+"/reconcile", "").Code)
	assert.Equal(t, []string{"ClearRaceResult", "ReconcileRace"}, svc.Trace())
}

func TestHandleGetLeaderboard(t *testing.T) {
	userID := uuid.New()
	svc := NewFakeBettingService()
	svc.GetLeaderboardFunc = func(context.Context) ([]bettingdomain.LeaderboardEntry, error) {
		return []bettingdomain.LeaderboardEntry{
			{Position: 1, Standing: bettingdomain.Standing{UserID: userID, DisplayName: "Alice", Points: 58, Stars: 1, BetCount: 1}},
		}, nil
	}

	rec := do(t, testRouter(newTestHandlers(svc), nil), http.MethodGet, "/api/leaderboard", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []leaderboardEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []leaderboardEntryResponse{{Position: 1, UserID: userID, DisplayName: "Alice", Points: 58, Stars: 1, BetCount: 1}}, got)
}

func TestHandleLeaderboardChart(t *testing.T) {
	svc := NewFakeBettingService()
	var gotLimit int
	svc.LeaderboardChartFunc = func(ctx context.Context, limit int) ([]byte, error) {
		gotLimit = limit
		return []byte{0x89, 'P', 'N', 'G'}, nil
	}
	router := testRouter(newTestHandlers(svc), nil)

	rec := do(t, router, http.MethodGet, "/api/leaderboard/chart.png?limit=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, 5, gotLimit)

	rec = do(t, router, http.MethodGet, "/api/leaderboard/chart.png?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListBets(t *testing.T) {
	player := &authdomain.Claims{UserID: uuid.New(), Role: authdomain.RolePlayer}
	svc := NewFakeBettingService()
	var listedFor uuid.UUID
	svc.ListUserBetsFunc = func(ctx context.Context, userID uuid.UUID) ([]bettingservice.BetInfo, error) {
		listedFor = userID
		return []bettingservice.BetInfo{{ID: uuid.New(), UserID: userID}}, nil
	}
	router := testRouter(newTestHandlers(svc), player)

	rec := do(t, router, http.MethodGet, "/api/bets/mine", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, player.UserID, listedFor)

	rec = do(t, router, http.MethodGet, "/api/races/"+uuid.New().String()+"/bets", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandleListReconciliations(t *testing.T) {
	admin := &authdomain.Claims{UserID: uuid.New(), Role: authdomain.RoleAdmin}
	raceID := uuid.New()

	t.Run("lists runs", func(t *testing.T) {
		svc := NewFakeBettingService()
		svc.ListRunsFunc = func(ctx context.Context, id uuid.UUID) ([]bettingservice.ReconciliationRunInfo, error) {
			require.Equal(t, raceID, id)
			return []bettingservice.ReconciliationRunInfo{{Revision: 1, BetsScored: 3, PointsDelta: 88, StarsDelta: 1}}, nil
		}

		rec := do(t, testRouter(newTestHandlers(svc), admin), http.MethodGet, "/api/races/"+raceID.String()+"/reconciliations", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var got []bettingservice.ReconciliationRunInfo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, 88, got[0].PointsDelta)
	})

	t.Run("unknown race", func(t *testing.T) {
		svc := NewFakeBettingService()
		svc.ListRunsFunc = func(context.Context, uuid.UUID) ([]bettingservice.ReconciliationRunInfo, error) {
			return nil, bettingdomain.ErrRaceNotFound
		}

		rec := do(t, testRouter(newTestHandlers(svc), admin), http.MethodGet, "/api/races/"+raceID.String()+"/reconciliations", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rec := do(t, testRouter(newTestHandlers(NewFakeBettingService()), admin), http.MethodGet, "/api/races/nope/reconciliations", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{bettingdomain.ErrWindowNotOpen, http.StatusBadRequest},
		{bettingdomain.ErrMatchesQualifying, http.StatusBadRequest},
		{bettingdomain.ErrDuplicateUserBet, http.StatusConflict},
		{bettingdomain.ErrCombinationTaken, http.StatusConflict},
		{bettingdomain.ErrBetNotFound, http.StatusNotFound},
		{bettingdomain.ErrNotBetOwner, http.StatusForbidden},
		{bettingdomain.ErrRaceNotStarted, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
