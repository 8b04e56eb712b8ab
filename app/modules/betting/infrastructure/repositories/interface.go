package bettingdb

import (
	"context"

	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the persistence contract for bets and the ledger.
// Every method accepts a bun.IDB so callers can run it inside a transaction;
// a nil db falls back to the repository's own connection.
type Repository interface {
	// LockRace serializes writers on one race for the rest of the transaction.
	LockRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) error
	GetRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) (*Race, error)
	// SetRaceResult stores (or clears, when result is nil) the official podium
	// and returns the new result revision.
	SetRaceResult(ctx context.Context, db bun.IDB, raceID uuid.UUID, result *sharedtypes.Podium) (int, error)

	GetBet(ctx context.Context, db bun.IDB, betID uuid.UUID) (*Bet, error)
	GetBetByUser(ctx context.Context, db bun.IDB, raceID, userID uuid.UUID) (*Bet, error)
	GetBetByPrediction(ctx context.Context, db bun.IDB, raceID uuid.UUID, prediction sharedtypes.Podium) (*Bet, error)
	InsertBet(ctx context.Context, db bun.IDB, bet *Bet) error
	UpdateBetPrediction(ctx context.Context, db bun.IDB, bet *Bet) error
	DeleteBet(ctx context.Context, db bun.IDB, betID uuid.UUID) error

	ListBetsForRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) ([]Bet, error)
	ListBetViewsForRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) ([]BetView, error)
	ListBetViewsForUser(ctx context.Context, db bun.IDB, userID uuid.UUID) ([]BetView, error)

	UpdateBetScore(ctx context.Context, db bun.IDB, betID uuid.UUID, points int, perfect bool, revision int) error
	// ApplyUserDelta adds the deltas to a user's totals, clamping each at zero.
	ApplyUserDelta(ctx context.Context, db bun.IDB, userID uuid.UUID, points, stars int) error

	ListStandings(ctx context.Context, db bun.IDB) ([]Standing, error)
	InsertReconciliationRun(ctx context.Context, db bun.IDB, run *ReconciliationRun) error
	ListReconciliationRuns(ctx context.Context, db bun.IDB, raceID uuid.UUID) ([]ReconciliationRun, error)
}
