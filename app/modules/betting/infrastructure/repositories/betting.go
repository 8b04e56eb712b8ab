package bettingdb

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

// NewRepository creates a new betting repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// LockRace takes a transaction-scoped advisory lock keyed by the race id.
func (r *Impl) LockRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) error {
	db = r.resolveDB(db)
	if err := racelock.Acquire(ctx, db, raceID); err != nil {
		return fmt.Errorf("bettingdb.LockRace: %w", err)
	}
	return nil
}

func (r *Impl) GetRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) (*Race, error) {
	db = r.resolveDB(db)
	race := new(Race)
	err := db.NewSelect().
		Model(race).
		Where("r.id = ?", raceID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bettingdb.GetRace: %w", err)
	}
	return race, nil
}

func (r *Impl) SetRaceResult(ctx context.Context, db bun.IDB, raceID uuid.UUID, result *sharedtypes.Podium) (int, error) {
	db = r.resolveDB(db)

	var p1, p2, p3 *sharedtypes.DriverID
	if result != nil {
		p1, p2, p3 = &result.P1, &result.P2, &result.P3
	}

	var revision int
	err := db.NewUpdate().
		Model((*Race)(nil)).
		Set("result_p1 = ?", p1).
		Set("result_p2 = ?", p2).
		Set("result_p3 = ?", p3).
		Set("result_revision = result_revision + 1").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", raceID).
		Returning("result_revision").
		Scan(ctx, &revision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("bettingdb.SetRaceResult: %w", err)
	}
	return revision, nil
}

func (r *Impl) GetBet(ctx context.Context, db bun.IDB, betID uuid.UUID) (*Bet, error) {
	return r.getBet(ctx, db, "GetBet", "b.id = ?", betID)
}

func (r *Impl) GetBetByUser(ctx context.Context, db bun.IDB, raceID, userID uuid.UUID) (*Bet, error) {
	return r.getBet(ctx, db, "GetBetByUser", "b.race_id = ? AND b.user_id = ?", raceID, userID)
}

func (r *Impl) GetBetByPrediction(ctx context.Context, db bun.IDB, raceID uuid.UUID, prediction sharedtypes.Podium) (*Bet, error) {
	return r.getBet(ctx, db, "GetBetByPrediction",
		"b.race_id = ? AND b.p1 = ? AND b.p2 = ? AND b.p3 = ?",
		raceID, prediction.P1, prediction.P2, prediction.P3,
	)
}

func (r *Impl) getBet(ctx context.Context, db bun.IDB, op, where string, args ...any) (*Bet, error) {
	db = r.resolveDB(db)
	bet := new(Bet)
	err := db.NewSelect().
		Model(bet).
		Where(where, args...).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bettingdb.%s: %w", op, err)
	}
	return bet, nil
}

func (r *Impl) InsertBet(ctx context.Context, db bun.IDB, bet *Bet) error {
	db = r.resolveDB(db)
	if bet.ID == uuid.Nil {
		bet.ID = uuid.New()
	}
	bet.UpdatedAt = time.Now().UTC()
	if _, err := db.NewInsert().Model(bet).Exec(ctx); err != nil {
		return fmt.Errorf("bettingdb.InsertBet: %w", mapConstraintError(err))
	}
	return nil
}

func (r *Impl) UpdateBetPrediction(ctx context.Context, db bun.IDB, bet *Bet) error {
	db = r.resolveDB(db)
	bet.UpdatedAt = time.Now().UTC()
	res, err := db.NewUpdate().
		Model(bet).
		Column("p1", "p2", "p3", "placed_at", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bettingdb.UpdateBetPrediction: %w", mapConstraintError(err))
	}
	return requireRows(res, "UpdateBetPrediction")
}

func (r *Impl) DeleteBet(ctx context.Context, db bun.IDB, betID uuid.UUID) error {
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*Bet)(nil)).
		Where("id = ?", betID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bettingdb.DeleteBet: %w", err)
	}
	return requireRows(res, "DeleteBet")
}

func (r *Impl) ListBetsForRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) ([]Bet, error) {
	db = r.resolveDB(db)
	var bets []Bet
	err := db.NewSelect().
		Model(&bets).
		Where("b.race_id = ?", raceID).
		OrderExpr("b.placed_at ASC, b.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bettingdb.ListBetsForRace: %w", err)
	}
	return bets, nil
}

func (r *Impl) ListBetViewsForRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) ([]BetView, error) {
	views, err := r.listBetViews(ctx, db, "b.race_id = ?", raceID)
	if err != nil {
		return nil, fmt.Errorf("bettingdb.ListBetViewsForRace: %w", err)
	}
	return views, nil
}

func (r *Impl) ListBetViewsForUser(ctx context.Context, db bun.IDB, userID uuid.UUID) ([]BetView, error) {
	views, err := r.listBetViews(ctx, db, "b.user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("bettingdb.ListBetViewsForUser: %w", err)
	}
	return views, nil
}

func (r *Impl) listBetViews(ctx context.Context, db bun.IDB, where string, arg any) ([]BetView, error) {
	db = r.resolveDB(db)
	var views []BetView
	err := db.NewSelect().
		Model(&views).
		ColumnExpr("b.*").
		ColumnExpr("u.display_name AS user_display_name").
		ColumnExpr("u.email AS user_email").
		ColumnExpr("r.name AS race_name").
		Join("JOIN users AS u ON u.id = b.user_id").
		Join("JOIN races AS r ON r.id = b.race_id").
		Where(where, arg).
		OrderExpr("b.placed_at DESC").
		Scan(ctx)
	return views, err
}

func (r *Impl) UpdateBetScore(ctx context.Context, db bun.IDB, betID uuid.UUID, points int, perfect bool, revision int) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Bet)(nil)).
		Set("points = ?", points).
		Set("is_perfect = ?", perfect).
		Set("scored_revision = ?", revision).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", betID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bettingdb.UpdateBetScore: %w", err)
	}
	return requireRows(res, "UpdateBetScore")
}

func (r *Impl) ApplyUserDelta(ctx context.Context, db bun.IDB, userID uuid.UUID, points, stars int) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*UserTotals)(nil)).
		Set("points = GREATEST(points + ?, 0)", points).
		Set("stars = GREATEST(stars + ?, 0)", stars).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bettingdb.ApplyUserDelta: %w", err)
	}
	return requireRows(res, "ApplyUserDelta")
}

func (r *Impl) ListStandings(ctx context.Context, db bun.IDB) ([]Standing, error) {
	db = r.resolveDB(db)
	var rows []Standing
	err := db.NewRaw(`
		SELECT u.id AS user_id, u.display_name, u.email, u.points, u.stars, COUNT(b.id) AS bet_count
		FROM users AS u
		LEFT JOIN bets AS b ON b.user_id = u.id
		GROUP BY u.id
		ORDER BY u.points DESC, u.stars DESC, u.id ASC
	`).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("bettingdb.ListStandings: %w", err)
	}
	return rows, nil
}

func (r *Impl) InsertReconciliationRun(ctx context.Context, db bun.IDB, run *ReconciliationRun) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(run).Exec(ctx); err != nil {
		return fmt.Errorf("bettingdb.InsertReconciliationRun: %w", err)
	}
	return nil
}

func (r *Impl) ListReconciliationRuns(ctx context.Context, db bun.IDB, raceID uuid.UUID) ([]ReconciliationRun, error) {
	db = r.resolveDB(db)
	var runs []ReconciliationRun
	err := db.NewSelect().
		Model(&runs).
		Where("rr.race_id = ?", raceID).
		OrderExpr("rr.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bettingdb.ListReconciliationRuns: %w", err)
	}
	return runs, nil
}

// mapConstraintError turns unique violations on the bets table into repository sentinels.
func mapConstraintError(err error) error {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
		switch pgErr.Field('n') {
		case constraintUserRace:
			return ErrUserRaceTaken
		case constraintPrediction:
			return ErrPredictionTaken
		}
	}
	return err
}

func requireRows(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bettingdb.%s: failed to get rows affected: %w", op, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
