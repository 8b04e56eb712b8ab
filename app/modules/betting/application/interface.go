package bettingservice

import (
	"context"
	"time"

	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
)

// Service is the prediction scoring and reconciliation engine.
type Service interface {
	SubmitBet(ctx context.Context, userID, raceID uuid.UUID, prediction sharedtypes.Podium) (*BetInfo, error)
	UpdateBet(ctx context.Context, userID, betID uuid.UUID, prediction sharedtypes.Podium) (*BetInfo, error)
	DeleteBet(ctx context.Context, actor Actor, betID uuid.UUID) error

	ApplyRaceResult(ctx context.Context, raceID uuid.UUID, result sharedtypes.Podium) (*ReconcileSummary, error)
	ClearRaceResult(ctx context.Context, raceID uuid.UUID) error
	ReconcileRace(ctx context.Context, raceID uuid.UUID) (*ReconcileSummary, error)
	ListReconciliationRuns(ctx context.Context, raceID uuid.UUID) ([]ReconciliationRunInfo, error)

	GetLeaderboard(ctx context.Context) ([]bettingdomain.LeaderboardEntry, error)
	ListRaceBets(ctx context.Context, raceID uuid.UUID) ([]BetInfo, error)
	ListUserBets(ctx context.Context, userID uuid.UUID) ([]BetInfo, error)
	LeaderboardChart(ctx context.Context, limit int) ([]byte, error)
}

// ReconcileScheduler hands a reconciliation pass to durable storage when
// in-process retries are exhausted.
type ReconcileScheduler interface {
	EnqueueReconcile(ctx context.Context, raceID uuid.UUID, revision int) error
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// BetInfo is a bet as returned to callers.
type BetInfo struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	RaceID          uuid.UUID          `json:"race_id"`
	Prediction      sharedtypes.Podium `json:"prediction"`
	Points          int                `json:"points"`
	IsPerfect       bool               `json:"is_perfect"`
	PlacedAt        time.Time          `json:"placed_at"`
	UserDisplayName string             `json:"user_display_name,omitempty"`
	UserEmail       string             `json:"user_email,omitempty"`
	RaceName        string             `json:"race_name,omitempty"`
}

// ReconcileSummary describes one reconciliation pass.
type ReconcileSummary struct {
	RaceID      uuid.UUID `json:"race_id"`
	Revision    int       `json:"revision"`
	BetsScored  int       `json:"bets_scored"`
	BetsChanged int       `json:"bets_changed"`
	PointsDelta int       `json:"points_delta"`
	StarsDelta  int       `json:"stars_delta"`
	// Skipped is set when the race has no stored result.
	Skipped bool `json:"skipped"`
	// Deferred is set when the pass was handed to the job queue.
	Deferred bool `json:"deferred"`
}

// ReconciliationRunInfo is one committed pass from a race's audit trail.
type ReconciliationRunInfo struct {
	Revision    int       `json:"revision"`
	ResultHash  string    `json:"result_hash"`
	BetsScored  int       `json:"bets_scored"`
	BetsChanged int       `json:"bets_changed"`
	PointsDelta int       `json:"points_delta"`
	StarsDelta  int       `json:"stars_delta"`
	CreatedAt   time.Time `json:"created_at"`
}
