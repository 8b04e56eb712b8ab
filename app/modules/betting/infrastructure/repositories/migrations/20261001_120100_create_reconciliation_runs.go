package bettingmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating reconciliation_runs table...")

		if _, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS reconciliation_runs (
				id BIGSERIAL PRIMARY KEY,
				race_id UUID NOT NULL REFERENCES races(id) ON DELETE CASCADE,
				revision INTEGER NOT NULL,
				result_hash CHAR(64) NOT NULL,
				bets_scored INTEGER NOT NULL,
				bets_changed INTEGER NOT NULL,
				points_delta INTEGER NOT NULL,
				stars_delta INTEGER NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_reconciliation_runs_race_id ON reconciliation_runs(race_id);
		`); err != nil {
			return fmt.Errorf("failed to create reconciliation_runs table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping reconciliation_runs table...")
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS reconciliation_runs;`); err != nil {
			return fmt.Errorf("failed to drop reconciliation_runs table: %w", err)
		}
		return nil
	})
}
