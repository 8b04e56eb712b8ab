package bettingmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating bets table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS bets (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					race_id UUID NOT NULL REFERENCES races(id) ON DELETE CASCADE,
					p1 VARCHAR(8) NOT NULL,
					p2 VARCHAR(8) NOT NULL,
					p3 VARCHAR(8) NOT NULL,
					points INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
					is_perfect BOOLEAN NOT NULL DEFAULT FALSE,
					scored_revision INTEGER NOT NULL DEFAULT 0,
					placed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT bets_user_race_key UNIQUE (user_id, race_id),
					CONSTRAINT bets_race_prediction_key UNIQUE (race_id, p1, p2, p3),
					CONSTRAINT bets_distinct_drivers CHECK (p1 <> p2 AND p1 <> p3 AND p2 <> p3)
				);
				CREATE INDEX IF NOT EXISTS idx_bets_user_id ON bets(user_id);
			`); err != nil {
				return fmt.Errorf("failed to create bets table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping bets table...")
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS bets;`); err != nil {
			return fmt.Errorf("failed to drop bets table: %w", err)
		}
		return nil
	})
}
