package bettingdb

import (
	"time"

	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Bet is one user's podium prediction for one race and the score it carries.
type Bet struct {
	bun.BaseModel `bun:"table:bets,alias:b"`

	ID             uuid.UUID            `bun:"id,pk,type:uuid"`
	UserID         uuid.UUID            `bun:"user_id,type:uuid,notnull"`
	RaceID         uuid.UUID            `bun:"race_id,type:uuid,notnull"`
	P1             sharedtypes.DriverID `bun:"p1,notnull"`
	P2             sharedtypes.DriverID `bun:"p2,notnull"`
	P3             sharedtypes.DriverID `bun:"p3,notnull"`
	Points         int                  `bun:"points,notnull,default:0"`
	IsPerfect      bool                 `bun:"is_perfect,notnull,default:false"`
	ScoredRevision int                  `bun:"scored_revision,notnull,default:0"`
	PlacedAt       time.Time            `bun:"placed_at,notnull"`
	UpdatedAt      time.Time            `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Prediction returns the bet's podium.
func (b *Bet) Prediction() sharedtypes.Podium {
	return sharedtypes.Podium{P1: b.P1, P2: b.P2, P3: b.P3}
}

// SetPrediction overwrites the bet's podium.
func (b *Bet) SetPrediction(p sharedtypes.Podium) {
	b.P1, b.P2, b.P3 = p.P1, p.P2, p.P3
}

// BetView is a bet joined with its owner and race for listings.
type BetView struct {
	Bet `bun:",extend"`

	UserDisplayName string `bun:"user_display_name"`
	UserEmail       string `bun:"user_email"`
	RaceName        string `bun:"race_name"`
}

// Race is the betting module's view of a race row. The race module owns the table.
type Race struct {
	bun.BaseModel `bun:"table:races,alias:r"`

	ID             uuid.UUID             `bun:"id,pk,type:uuid"`
	Name           string                `bun:"name,notnull"`
	StartsAt       time.Time             `bun:"starts_at,notnull"`
	QualiP1        *sharedtypes.DriverID `bun:"quali_p1"`
	QualiP2        *sharedtypes.DriverID `bun:"quali_p2"`
	QualiP3        *sharedtypes.DriverID `bun:"quali_p3"`
	ResultP1       *sharedtypes.DriverID `bun:"result_p1"`
	ResultP2       *sharedtypes.DriverID `bun:"result_p2"`
	ResultP3       *sharedtypes.DriverID `bun:"result_p3"`
	ResultRevision int                   `bun:"result_revision,notnull,default:0"`
}

// Qualifying returns the qualifying podium, or nil unless all three are set.
func (r *Race) Qualifying() *sharedtypes.Podium {
	return podiumOf(r.QualiP1, r.QualiP2, r.QualiP3)
}

// Result returns the official podium, or nil unless all three are set.
func (r *Race) Result() *sharedtypes.Podium {
	return podiumOf(r.ResultP1, r.ResultP2, r.ResultP3)
}

func podiumOf(p1, p2, p3 *sharedtypes.DriverID) *sharedtypes.Podium {
	if p1 == nil || p2 == nil || p3 == nil {
		return nil
	}
	return &sharedtypes.Podium{P1: *p1, P2: *p2, P3: *p3}
}

// UserTotals is the ledger's view of the users table.
type UserTotals struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID     uuid.UUID `bun:"id,pk,type:uuid"`
	Points int       `bun:"points,notnull"`
	Stars  int       `bun:"stars,notnull"`
}

// Standing is one leaderboard row before ordering.
type Standing struct {
	UserID      uuid.UUID `bun:"user_id"`
	DisplayName string    `bun:"display_name"`
	Email       string    `bun:"email"`
	Points      int       `bun:"points"`
	Stars       int       `bun:"stars"`
	BetCount    int       `bun:"bet_count"`
}

// ReconciliationRun is the audit row written by every completed pass.
type ReconciliationRun struct {
	bun.BaseModel `bun:"table:reconciliation_runs,alias:rr"`

	ID          int64     `bun:"id,pk,autoincrement"`
	RaceID      uuid.UUID `bun:"race_id,type:uuid,notnull"`
	Revision    int       `bun:"revision,notnull"`
	ResultHash  string    `bun:"result_hash,notnull"`
	BetsScored  int       `bun:"bets_scored,notnull"`
	BetsChanged int       `bun:"bets_changed,notnull"`
	PointsDelta int       `bun:"points_delta,notnull"`
	StarsDelta  int       `bun:"stars_delta,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
