// Package racelock serializes writers that touch one race across modules
// and process instances.
package racelock

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Acquire takes a transaction-scoped Postgres advisory lock keyed by the race
// id. It is released when the surrounding transaction ends.
func Acquire(ctx context.Context, db bun.IDB, raceID uuid.UUID) error {
	_, err := db.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext(?))", raceID.String())
	return err
}
