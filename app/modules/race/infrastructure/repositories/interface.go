package racedb

import (
	"context"
	"time"

	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the persistence contract for races and drivers.
//
// Error semantics:
//   - ErrNotFound: requested record does not exist, or an UPDATE/DELETE matched no rows
//   - ErrDuplicateRace: a race with the same name and start already exists
//   - other errors: infrastructure failures
type Repository interface {
	// LockRace takes the same transaction-scoped lock the betting engine
	// holds while admitting bets and scoring a race.
	LockRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) error
	CreateRace(ctx context.Context, db bun.IDB, race *Race) error
	// InsertRaceIfAbsent reports false when the name/start pair already exists.
	InsertRaceIfAbsent(ctx context.Context, db bun.IDB, race *Race) (bool, error)
	GetRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) (*RaceWithCount, error)
	// ListRaces returns races starting in [from, to), ordered by start. Zero bounds are open.
	ListRaces(ctx context.Context, db bun.IDB, from, to time.Time) ([]RaceWithCount, error)
	UpdateRace(ctx context.Context, db bun.IDB, race *Race) error
	SetQualifying(ctx context.Context, db bun.IDB, raceID uuid.UUID, quali *sharedtypes.Podium) error
	DeleteRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) error

	ListDrivers(ctx context.Context, db bun.IDB) ([]Driver, error)
	GetDrivers(ctx context.Context, db bun.IDB, ids []sharedtypes.DriverID) ([]Driver, error)
	UpsertDriver(ctx context.Context, db bun.IDB, driver *Driver) error
	DeleteDriver(ctx context.Context, db bun.IDB, id sharedtypes.DriverID) error
}
