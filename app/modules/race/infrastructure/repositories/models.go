package racedb

import (
	"time"

	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Race is a scheduled race. The betting module reads and writes the result
// columns; this module owns everything else.
type Race struct {
	bun.BaseModel `bun:"table:races,alias:r"`

	ID             uuid.UUID             `bun:"id,pk,type:uuid"`
	Name           string                `bun:"name,notnull"`
	Location       string                `bun:"location,notnull,default:''"`
	StartsAt       time.Time             `bun:"starts_at,notnull"`
	QualiP1        *sharedtypes.DriverID `bun:"quali_p1"`
	QualiP2        *sharedtypes.DriverID `bun:"quali_p2"`
	QualiP3        *sharedtypes.DriverID `bun:"quali_p3"`
	ResultP1       *sharedtypes.DriverID `bun:"result_p1"`
	ResultP2       *sharedtypes.DriverID `bun:"result_p2"`
	ResultP3       *sharedtypes.DriverID `bun:"result_p3"`
	ResultRevision int                   `bun:"result_revision,notnull,default:0"`
	CreatedAt      time.Time             `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time             `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
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

// RaceWithCount is a race row with the number of bets placed on it.
type RaceWithCount struct {
	Race     `bun:",extend"`
	BetCount int `bun:"bet_count"`
}

// Driver is a driver record keyed by its short code.
type Driver struct {
	bun.BaseModel `bun:"table:drivers,alias:d"`

	ID        sharedtypes.DriverID `bun:"id,pk"`
	Name      string               `bun:"name,notnull"`
	Team      string               `bun:"team,notnull,default:''"`
	Number    int                  `bun:"number,notnull,default:0"`
	CreatedAt time.Time            `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time            `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
