package bettingservice

import (
	"context"
	"slices"
	"sync"
	"time"

	bettingdb "github.com/Black-And-White-Club/podium-bot/app/modules/betting/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Betting Repo
// ------------------------

// FakeBettingRepo keeps races, bets and totals in memory. Any XxxFunc that is
// set replaces the in-memory behaviour of that method.
type FakeBettingRepo struct {
	mu    sync.Mutex
	trace []string

	races map[uuid.UUID]*bettingdb.Race
	bets  map[uuid.UUID]*bettingdb.Bet
	users map[uuid.UUID]*bettingdb.UserTotals
	names map[uuid.UUID]string
	runs  []bettingdb.ReconciliationRun

	LockRaceFunc            func(ctx context.Context, db bun.IDB, raceID uuid.UUID) error
	GetRaceFunc             func(ctx context.Context, db bun.IDB, raceID uuid.UUID) (*bettingdb.Race, error)
	SetRaceResultFunc       func(ctx context.Context, db bun.IDB, raceID uuid.UUID, result *sharedtypes.Podium) (int, error)
	GetBetFunc              func(ctx context.Context, db bun.IDB, betID uuid.UUID) (*bettingdb.Bet, error)
	InsertBetFunc           func(ctx context.Context, db bun.IDB, bet *bettingdb.Bet) error
	UpdateBetPredictionFunc func(ctx context.Context, db bun.IDB, bet *bettingdb.Bet) error
	ListBetsForRaceFunc     func(ctx context.Context, db bun.IDB, raceID uuid.UUID) ([]bettingdb.Bet, error)
	UpdateBetScoreFunc      func(ctx context.Context, db bun.IDB, betID uuid.UUID, points int, perfect bool, revision int) error
	ApplyUserDeltaFunc      func(ctx context.Context, db bun.IDB, userID uuid.UUID, points, stars int) error
	ListStandingsFunc       func(ctx context.Context, db bun.IDB) ([]bettingdb.Standing, error)
}

func NewFakeBettingRepo() *FakeBettingRepo {
	return &FakeBettingRepo{
		trace: []string{},
		races: make(map[uuid.UUID]*bettingdb.Race),
		bets:  make(map[uuid.UUID]*bettingdb.Bet),
		users: make(map[uuid.UUID]*bettingdb.UserTotals),
		names: make(map[uuid.UUID]string),
	}
}

func (f *FakeBettingRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// --- Seeding helpers ---

func (f *FakeBettingRepo) AddRace(race bettingdb.Race) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.races[race.ID] = &race
}

func (f *FakeBettingRepo) AddUser(id uuid.UUID, name string, points, stars int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = &bettingdb.UserTotals{ID: id, Points: points, Stars: stars}
	f.names[id] = name
}

func (f *FakeBettingRepo) AddBet(bet bettingdb.Bet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bets[bet.ID] = &bet
}

// --- Repository Interface Implementation ---

func (f *FakeBettingRepo) LockRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) error {
	f.record("LockRace")
	if f.LockRaceFunc != nil {
		return f.LockRaceFunc(ctx, db, raceID)
	}
	return nil
}

func (f *FakeBettingRepo) GetRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) (*bettingdb.Race, error) {
	f.record("GetRace")
	if f.GetRaceFunc != nil {
		return f.GetRaceFunc(ctx, db, raceID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.races[raceID]
	if !ok {
		return nil, bettingdb.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *FakeBettingRepo) SetRaceResult(ctx context.Context, db bun.IDB, raceID uuid.UUID, result *sharedtypes.Podium) (int, error) {
	f.record("SetRaceResult")
	if f.SetRaceResultFunc != nil {
		return f.SetRaceResultFunc(ctx, db, raceID, result)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.races[raceID]
	if !ok {
		return 0, bettingdb.ErrNotFound
	}
	if result == nil {
		r.ResultP1, r.ResultP2, r.ResultP3 = nil, nil, nil
	} else {
		p1, p2, p3 := result.P1, result.P2, result.P3
		r.ResultP1, r.ResultP2, r.ResultP3 = &p1, &p2, &p3
	}
	r.ResultRevision++
	return r.ResultRevision, nil
}

func (f *FakeBettingRepo) GetBet(ctx context.Context, db bun.IDB, betID uuid.UUID) (*bettingdb.Bet, error) {
	f.record("GetBet")
	if f.GetBetFunc != nil {
		return f.GetBetFunc(ctx, db, betID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bets[betID]
	if !ok {
		return nil, bettingdb.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *FakeBettingRepo) GetBetByUser(ctx context.Context, db bun.IDB, raceID, userID uuid.UUID) (*bettingdb.Bet, error) {
	f.record("GetBetByUser")
	return f.findBet(func(b *bettingdb.Bet) bool { return b.RaceID == raceID && b.UserID == userID })
}

func (f *FakeBettingRepo) GetBetByPrediction(ctx context.Context, db bun.IDB, raceID uuid.UUID, prediction sharedtypes.Podium) (*bettingdb.Bet, error) {
	f.record("GetBetByPrediction")
	return f.findBet(func(b *bettingdb.Bet) bool { return b.RaceID == raceID && b.Prediction() == prediction })
}

func (f *FakeBettingRepo) findBet(match func(*bettingdb.Bet) bool) (*bettingdb.Bet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bets {
		if match(b) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, bettingdb.ErrNotFound
}

func (f *FakeBettingRepo) InsertBet(ctx context.Context, db bun.IDB, bet *bettingdb.Bet) error {
	f.record("InsertBet")
	if f.InsertBetFunc != nil {
		return f.InsertBetFunc(ctx, db, bet)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bets {
		if b.RaceID != bet.RaceID {
			continue
		}
		if b.UserID == bet.UserID {
			return bettingdb.ErrUserRaceTaken
		}
		if b.Prediction() == bet.Prediction() {
			return bettingdb.ErrPredictionTaken
		}
	}
	cp := *bet
	f.bets[bet.ID] = &cp
	return nil
}

func (f *FakeBettingRepo) UpdateBetPrediction(ctx context.Context, db bun.IDB, bet *bettingdb.Bet) error {
	f.record("UpdateBetPrediction")
	if f.UpdateBetPredictionFunc != nil {
		return f.UpdateBetPredictionFunc(ctx, db, bet)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bets[bet.ID]
	if !ok {
		return bettingdb.ErrNotFound
	}
	b.SetPrediction(bet.Prediction())
	b.PlacedAt = bet.PlacedAt
	return nil
}

func (f *FakeBettingRepo) DeleteBet(ctx context.Context, db bun.IDB, betID uuid.UUID) error {
	f.record("DeleteBet")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bets[betID]; !ok {
		return bettingdb.ErrNotFound
	}
	delete(f.bets, betID)
	return nil
}

func (f *FakeBettingRepo) ListBetsForRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) ([]bettingdb.Bet, error) {
	f.record("ListBetsForRace")
	if f.ListBetsForRaceFunc != nil {
		return f.ListBetsForRaceFunc(ctx, db, raceID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []bettingdb.Bet
	for _, b := range f.bets {
		if b.RaceID == raceID {
			out = append(out, *b)
		}
	}
	slices.SortFunc(out, func(a, b bettingdb.Bet) int { return a.PlacedAt.Compare(b.PlacedAt) })
	return out, nil
}

func (f *FakeBettingRepo) ListBetViewsForRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) ([]bettingdb.BetView, error) {
	f.record("ListBetViewsForRace")
	return f.views(func(b *bettingdb.Bet) bool { return b.RaceID == raceID }), nil
}

func (f *FakeBettingRepo) ListBetViewsForUser(ctx context.Context, db bun.IDB, userID uuid.UUID) ([]bettingdb.BetView, error) {
	f.record("ListBetViewsForUser")
	return f.views(func(b *bettingdb.Bet) bool { return b.UserID == userID }), nil
}

func (f *FakeBettingRepo) views(match func(*bettingdb.Bet) bool) []bettingdb.BetView {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []bettingdb.BetView
	for _, b := range f.bets {
		if !match(b) {
			continue
		}
		v := bettingdb.BetView{Bet: *b, UserDisplayName: f.names[b.UserID]}
		if r, ok := f.races[b.RaceID]; ok {
			v.RaceName = r.Name
		}
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b bettingdb.BetView) int { return b.PlacedAt.Compare(a.PlacedAt) })
	return out
}

func (f *FakeBettingRepo) UpdateBetScore(ctx context.Context, db bun.IDB, betID uuid.UUID, points int, perfect bool, revision int) error {
	f.record("UpdateBetScore")
	if f.UpdateBetScoreFunc != nil {
		return f.UpdateBetScoreFunc(ctx, db, betID, points, perfect, revision)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bets[betID]
	if !ok {
		return bettingdb.ErrNotFound
	}
	b.Points, b.IsPerfect, b.ScoredRevision = points, perfect, revision
	return nil
}

func (f *FakeBettingRepo) ApplyUserDelta(ctx context.Context, db bun.IDB, userID uuid.UUID, points, stars int) error {
	f.record("ApplyUserDelta")
	if f.ApplyUserDeltaFunc != nil {
		return f.ApplyUserDeltaFunc(ctx, db, userID, points, stars)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return bettingdb.ErrNotFound
	}
	u.Points = max(0, u.Points+points)
	u.Stars = max(0, u.Stars+stars)
	return nil
}

func (f *FakeBettingRepo) ListStandings(ctx context.Context, db bun.IDB) ([]bettingdb.Standing, error) {
	f.record("ListStandings")
	if f.ListStandingsFunc != nil {
		return f.ListStandingsFunc(ctx, db)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bettingdb.Standing, 0, len(f.users))
	for id, u := range f.users {
		count := 0
		for _, b := range f.bets {
			if b.UserID == id {
				count++
			}
		}
		out = append(out, bettingdb.Standing{
			UserID:      id,
			DisplayName: f.names[id],
			Points:      u.Points,
			Stars:       u.Stars,
			BetCount:    count,
		})
	}
	return out, nil
}

func (f *FakeBettingRepo) InsertReconciliationRun(ctx context.Context, db bun.IDB, run *bettingdb.ReconciliationRun) error {
	f.record("InsertReconciliationRun")
	f.mu.Lock()
	defer f.mu.Unlock()
	run.ID = int64(len(f.runs) + 1)
	run.CreatedAt = time.Now().UTC()
	f.runs = append(f.runs, *run)
	return nil
}

func (f *FakeBettingRepo) ListReconciliationRuns(ctx context.Context, db bun.IDB, raceID uuid.UUID) ([]bettingdb.ReconciliationRun, error) {
	f.record("ListReconciliationRuns")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []bettingdb.ReconciliationRun
	for _, r := range f.runs {
		if r.RaceID == raceID {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- Accessors for assertions ---

func (f *FakeBettingRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeBettingRepo) ResetTrace() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = []string{}
}

func (f *FakeBettingRepo) Totals(userID uuid.UUID) bettingdb.UserTotals {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		return *u
	}
	return bettingdb.UserTotals{}
}

func (f *FakeBettingRepo) Bet(betID uuid.UUID) (bettingdb.Bet, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bets[betID]
	if !ok {
		return bettingdb.Bet{}, false
	}
	return *b, true
}

func (f *FakeBettingRepo) Runs() []bettingdb.ReconciliationRun {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.runs)
}

// Ensure the fake actually satisfies the interface
var _ bettingdb.Repository = (*FakeBettingRepo)(nil)

// ------------------------
// Fake Scheduler
// ------------------------

type FakeScheduler struct {
	mu    sync.Mutex
	calls []scheduledReconcile
	Err   error
}

type scheduledReconcile struct {
	RaceID   uuid.UUID
	Revision int
}

func (f *FakeScheduler) EnqueueReconcile(ctx context.Context, raceID uuid.UUID, revision int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.calls = append(f.calls, scheduledReconcile{RaceID: raceID, Revision: revision})
	return nil
}

func (f *FakeScheduler) Calls() []scheduledReconcile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

var _ ReconcileScheduler = (*FakeScheduler)(nil)
