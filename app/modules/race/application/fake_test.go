package raceservice

import (
	"context"
	"slices"
	"sync"
	"time"

	racedb "github.com/Black-And-White-Club/podium-bot/app/modules/race/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FakeRaceRepo keeps races and drivers in memory. Any XxxFunc that is set
// replaces the in-memory behaviour of that method.
type FakeRaceRepo struct {
	mu    sync.Mutex
	trace []string

	races   map[uuid.UUID]*racedb.Race
	counts  map[uuid.UUID]int
	drivers map[sharedtypes.DriverID]*racedb.Driver

	CreateRaceFunc   func(ctx context.Context, db bun.IDB, race *racedb.Race) error
	UpdateRaceFunc   func(ctx context.Context, db bun.IDB, race *racedb.Race) error
	UpsertDriverFunc func(ctx context.Context, db bun.IDB, driver *racedb.Driver) error
}

func NewFakeRaceRepo() *FakeRaceRepo {
	return &FakeRaceRepo{
		trace:   []string{},
		races:   make(map[uuid.UUID]*racedb.Race),
		counts:  make(map[uuid.UUID]int),
		drivers: make(map[sharedtypes.DriverID]*racedb.Driver),
	}
}

func (f *FakeRaceRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeRaceRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.trace)
}

// --- Seeding helpers ---

func (f *FakeRaceRepo) AddRace(race racedb.Race, bets int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.races[race.ID] = &race
	f.counts[race.ID] = bets
}

func (f *FakeRaceRepo) AddDriver(id, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drivers[sharedtypes.DriverID(id)] = &racedb.Driver{ID: sharedtypes.DriverID(id), Name: name}
}

func (f *FakeRaceRepo) raceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.races)
}

func (f *FakeRaceRepo) duplicate(race *racedb.Race) bool {
	for _, r := range f.races {
		if r.ID != race.ID && r.Name == race.Name && r.StartsAt.Equal(race.StartsAt) {
			return true
		}
	}
	return false
}

// --- Repository Interface Implementation ---

func (f *FakeRaceRepo) CreateRace(ctx context.Context, db bun.IDB, race *racedb.Race) error {
	f.record("CreateRace")
	if f.CreateRaceFunc != nil {
		return f.CreateRaceFunc(ctx, db, race)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.duplicate(race) {
		return racedb.ErrDuplicateRace
	}
	cp := *race
	f.races[race.ID] = &cp
	return nil
}

func (f *FakeRaceRepo) InsertRaceIfAbsent(ctx context.Context, db bun.IDB, race *racedb.Race) (bool, error) {
	f.record("InsertRaceIfAbsent")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.duplicate(race) {
		return false, nil
	}
	cp := *race
	f.races[race.ID] = &cp
	return true, nil
}

func (f *FakeRaceRepo) LockRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) error {
	f.record("LockRace")
	return nil
}

func (f *FakeRaceRepo) GetRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) (*racedb.RaceWithCount, error) {
	f.record("GetRace")
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.races[raceID]
	if !ok {
		return nil, racedb.ErrNotFound
	}
	return &racedb.RaceWithCount{Race: *r, BetCount: f.counts[raceID]}, nil
}

func (f *FakeRaceRepo) ListRaces(ctx context.Context, db bun.IDB, from, to time.Time) ([]racedb.RaceWithCount, error) {
	f.record("ListRaces")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []racedb.RaceWithCount{}
	for _, r := range f.races {
		if !from.IsZero() && r.StartsAt.Before(from) {
			continue
		}
		if !to.IsZero() && !r.StartsAt.Before(to) {
			continue
		}
		out = append(out, racedb.RaceWithCount{Race: *r, BetCount: f.counts[r.ID]})
	}
	slices.SortFunc(out, func(a, b racedb.RaceWithCount) int {
		return a.StartsAt.Compare(b.StartsAt)
	})
	return out, nil
}

func (f *FakeRaceRepo) UpdateRace(ctx context.Context, db bun.IDB, race *racedb.Race) error {
	f.record("UpdateRace")
	if f.UpdateRaceFunc != nil {
		return f.UpdateRaceFunc(ctx, db, race)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.races[race.ID]
	if !ok {
		return racedb.ErrNotFound
	}
	if f.duplicate(race) {
		return racedb.ErrDuplicateRace
	}
	r.Name, r.Location, r.StartsAt = race.Name, race.Location, race.StartsAt
	return nil
}

func (f *FakeRaceRepo) SetQualifying(ctx context.Context, db bun.IDB, raceID uuid.UUID, quali *sharedtypes.Podium) error {
	f.record("SetQualifying")
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.races[raceID]
	if !ok {
		return racedb.ErrNotFound
	}
	setQualifying(r, quali)
	return nil
}

func (f *FakeRaceRepo) DeleteRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) error {
	f.record("DeleteRace")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.races[raceID]; !ok {
		return racedb.ErrNotFound
	}
	delete(f.races, raceID)
	return nil
}

func (f *FakeRaceRepo) ListDrivers(ctx context.Context, db bun.IDB) ([]racedb.Driver, error) {
	f.record("ListDrivers")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]racedb.Driver, 0, len(f.drivers))
	for _, d := range f.drivers {
		out = append(out, *d)
	}
	slices.SortFunc(out, func(a, b racedb.Driver) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

func (f *FakeRaceRepo) GetDrivers(ctx context.Context, db bun.IDB, ids []sharedtypes.DriverID) ([]racedb.Driver, error) {
	f.record("GetDrivers")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []racedb.Driver{}
	for _, id := range ids {
		if d, ok := f.drivers[id]; ok {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *FakeRaceRepo) UpsertDriver(ctx context.Context, db bun.IDB, driver *racedb.Driver) error {
	f.record("UpsertDriver")
	if f.UpsertDriverFunc != nil {
		return f.UpsertDriverFunc(ctx, db, driver)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *driver
	f.drivers[driver.ID] = &cp
	return nil
}

func (f *FakeRaceRepo) DeleteDriver(ctx context.Context, db bun.IDB, id sharedtypes.DriverID) error {
	f.record("DeleteDriver")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.drivers[id]; !ok {
		return racedb.ErrNotFound
	}
	delete(f.drivers, id)
	return nil
}

var _ racedb.Repository = (*FakeRaceRepo)(nil)
