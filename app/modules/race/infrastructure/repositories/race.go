package racedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Black-And-White-Club/podium-bot/app/shared/racelock"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new race repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) LockRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) error {
	if err := racelock.Acquire(ctx, r.resolveDB(db), raceID); err != nil {
		return fmt.Errorf("racedb.LockRace: %w", err)
	}
	return nil
}

func (r *Impl) CreateRace(ctx context.Context, db bun.IDB, race *Race) error {
	db = r.resolveDB(db)
	if race.ID == uuid.Nil {
		race.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(race).Returning("*").Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() && pgErr.Field('n') == constraintRaceNameStart {
			return ErrDuplicateRace
		}
		return fmt.Errorf("racedb.CreateRace: %w", err)
	}
	return nil
}

func (r *Impl) InsertRaceIfAbsent(ctx context.Context, db bun.IDB, race *Race) (bool, error) {
	db = r.resolveDB(db)
	if race.ID == uuid.Nil {
		race.ID = uuid.New()
	}
	res, err := db.NewInsert().
		Model(race).
		On("CONFLICT ON CONSTRAINT " + constraintRaceNameStart + " DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("racedb.InsertRaceIfAbsent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("racedb.InsertRaceIfAbsent: %w", err)
	}
	return n > 0, nil
}

func (r *Impl) selectRaces(db bun.IDB, races any) *bun.SelectQuery {
	return db.NewSelect().
		Model(races).
		ColumnExpr("r.*").
		ColumnExpr("(SELECT COUNT(*) FROM bets AS b WHERE b.race_id = r.id) AS bet_count")
}

func (r *Impl) GetRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) (*RaceWithCount, error) {
	db = r.resolveDB(db)
	race := new(RaceWithCount)
	if err := r.selectRaces(db, race).Where("r.id = ?", raceID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("racedb.GetRace: %w", err)
	}
	return race, nil
}

func (r *Impl) ListRaces(ctx context.Context, db bun.IDB, from, to time.Time) ([]RaceWithCount, error) {
	db = r.resolveDB(db)
	var races []RaceWithCount
	q := r.selectRaces(db, &races).OrderExpr("r.starts_at ASC, r.name ASC")
	if !from.IsZero() {
		q = q.Where("r.starts_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("r.starts_at < ?", to)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("racedb.ListRaces: %w", err)
	}
	return races, nil
}

func (r *Impl) UpdateRace(ctx context.Context, db bun.IDB, race *Race) error {
	db = r.resolveDB(db)
	race.UpdatedAt = time.Now().UTC()
	res, err := db.NewUpdate().
		Model(race).
		Column("name", "location", "starts_at", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() && pgErr.Field('n') == constraintRaceNameStart {
			return ErrDuplicateRace
		}
		return fmt.Errorf("racedb.UpdateRace: %w", err)
	}
	return expectRow(res, "UpdateRace")
}

func (r *Impl) SetQualifying(ctx context.Context, db bun.IDB, raceID uuid.UUID, quali *sharedtypes.Podium) error {
	db = r.resolveDB(db)
	var p1, p2, p3 *sharedtypes.DriverID
	if quali != nil {
		p1, p2, p3 = &quali.P1, &quali.P2, &quali.P3
	}
	res, err := db.NewUpdate().
		Model((*Race)(nil)).
		Set("quali_p1 = ?", p1).
		Set("quali_p2 = ?", p2).
		Set("quali_p3 = ?", p3).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", raceID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("racedb.SetQualifying: %w", err)
	}
	return expectRow(res, "SetQualifying")
}

// DeleteRace removes the race; its bets go with it through the foreign key.
func (r *Impl) DeleteRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) error {
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*Race)(nil)).
		Where("id = ?", raceID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("racedb.DeleteRace: %w", err)
	}
	return expectRow(res, "DeleteRace")
}

func (r *Impl) ListDrivers(ctx context.Context, db bun.IDB) ([]Driver, error) {
	db = r.resolveDB(db)
	var drivers []Driver
	if err := db.NewSelect().Model(&drivers).Order("d.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("racedb.ListDrivers: %w", err)
	}
	return drivers, nil
}

func (r *Impl) GetDrivers(ctx context.Context, db bun.IDB, ids []sharedtypes.DriverID) ([]Driver, error) {
	db = r.resolveDB(db)
	var drivers []Driver
	if len(ids) == 0 {
		return drivers, nil
	}
	if err := db.NewSelect().Model(&drivers).Where("d.id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("racedb.GetDrivers: %w", err)
	}
	return drivers, nil
}

func (r *Impl) UpsertDriver(ctx context.Context, db bun.IDB, driver *Driver) error {
	db = r.resolveDB(db)
	driver.UpdatedAt = time.Now().UTC()
	_, err := db.NewInsert().
		Model(driver).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("team = EXCLUDED.team").
		Set("number = EXCLUDED.number").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("racedb.UpsertDriver: %w", err)
	}
	return nil
}

func (r *Impl) DeleteDriver(ctx context.Context, db bun.IDB, id sharedtypes.DriverID) error {
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*Driver)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("racedb.DeleteDriver: %w", err)
	}
	return expectRow(res, "DeleteDriver")
}

func expectRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("racedb.%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
