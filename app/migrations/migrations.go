// Package migrations runs the per-module schema migrations in dependency
// order, followed by River's own tables.
package migrations

import (
	"context"
	"fmt"

	bettingmigrations "github.com/Black-And-White-Club/podium-bot/app/modules/betting/infrastructure/repositories/migrations"
	racemigrations "github.com/Black-And-White-Club/podium-bot/app/modules/race/infrastructure/repositories/migrations"
	usermigrations "github.com/Black-And-White-Club/podium-bot/app/modules/user/infrastructure/repositories/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Module is one module's migrator.
type Module struct {
	Name     string
	Migrator *migrate.Migrator
}

// Modules returns the migrators in the order their tables reference each
// other: bets point at users and races.
func Modules(db *bun.DB) []Module {
	newMigrator := func(name string, m *migrate.Migrations) Module {
		return Module{
			Name: name,
			Migrator: migrate.NewMigrator(db, m,
				migrate.WithTableName("bun_migrations_"+name),
				migrate.WithLocksTableName("bun_migration_locks_"+name),
			),
		}
	}
	return []Module{
		newMigrator("user", usermigrations.Migrations),
		newMigrator("race", racemigrations.Migrations),
		newMigrator("betting", bettingmigrations.Migrations),
	}
}

// Find returns the named module's migrator.
func Find(modules []Module, name string) (*migrate.Migrator, error) {
	for _, m := range modules {
		if m.Name == name {
			return m.Migrator, nil
		}
	}
	return nil, fmt.Errorf("invalid module name: %s", name)
}

// Up initializes and applies every module's migrations, then River's.
func Up(ctx context.Context, db *bun.DB, dsn string) error {
	for _, m := range Modules(db) {
		if err := m.Migrator.Init(ctx); err != nil {
			return fmt.Errorf("init %s migrations: %w", m.Name, err)
		}
		if _, err := m.Migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate %s: %w", m.Name, err)
		}
	}
	_, err := River(ctx, dsn, rivermigrate.DirectionUp)
	return err
}

// River applies or rolls back River's job tables and returns the versions touched.
func River(ctx context.Context, dsn string, direction rivermigrate.Direction) ([]int, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open river pool: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create river migrator: %w", err)
	}

	var opts *rivermigrate.MigrateOpts
	if direction == rivermigrate.DirectionDown {
		// Down runs one River version per call.
		opts = &rivermigrate.MigrateOpts{MaxSteps: 1}
	}
	res, err := migrator.Migrate(ctx, direction, opts)
	if err != nil {
		return nil, fmt.Errorf("river migrate %s: %w", direction, err)
	}
	versions := make([]int, 0, len(res.Versions))
	for _, v := range res.Versions {
		versions = append(versions, v.Version)
	}
	return versions, nil
}
