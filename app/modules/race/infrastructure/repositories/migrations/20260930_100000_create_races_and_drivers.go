package racemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating races and drivers tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS drivers (
					id VARCHAR(8) PRIMARY KEY,
					name TEXT NOT NULL,
					team TEXT NOT NULL DEFAULT '',
					number INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create drivers table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS races (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					name TEXT NOT NULL,
					location TEXT NOT NULL DEFAULT '',
					starts_at TIMESTAMPTZ NOT NULL,
					quali_p1 VARCHAR(8),
					quali_p2 VARCHAR(8),
					quali_p3 VARCHAR(8),
					result_p1 VARCHAR(8),
					result_p2 VARCHAR(8),
					result_p3 VARCHAR(8),
					result_revision INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT races_name_starts_at_key UNIQUE (name, starts_at),
					CONSTRAINT races_result_all_or_none CHECK (
						(result_p1 IS NULL AND result_p2 IS NULL AND result_p3 IS NULL) OR
						(result_p1 IS NOT NULL AND result_p2 IS NOT NULL AND result_p3 IS NOT NULL)
					)
				);
				CREATE INDEX IF NOT EXISTS idx_races_starts_at ON races(starts_at);
			`); err != nil {
				return fmt.Errorf("failed to create races table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping races and drivers tables...")
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS races; DROP TABLE IF EXISTS drivers;`); err != nil {
			return fmt.Errorf("failed to drop race tables: %w", err)
		}
		return nil
	})
}
