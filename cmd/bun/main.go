package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Black-And-White-Club/podium-bot/app/migrations"
	authdomain "github.com/Black-And-White-Club/podium-bot/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/podium-bot/app/modules/auth/infrastructure/jwt"
	userservice "github.com/Black-And-White-Club/podium-bot/app/modules/user/application"
	userdb "github.com/Black-And-White-Club/podium-bot/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/podium-bot/config"
	"github.com/google/uuid"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "bun",
		Usage: "podium-bot operator tools",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "Path to the configuration file"},
		},
		Commands: []*cli.Command{
			newMigrateCommand(),
			newTokenCommand(),
			newUserCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func openDB(cfg *config.Config) (*bun.DB, error) {
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres.dsn is required")
	}
	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	return bun.NewDB(pgdb, pgdialect.New()), nil
}

// withDB runs fn with the configured database and module migrators.
func withDB(fn func(c *cli.Context, cfg *config.Config, db *bun.DB) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(c, cfg, db)
	}
}

func newMigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: withDB(func(c *cli.Context, _ *config.Config, db *bun.DB) error {
					for _, m := range migrations.Modules(db) {
						fmt.Printf("Initializing migrations for module: %s\n", m.Name)
						if err := m.Migrator.Init(c.Context); err != nil {
							return fmt.Errorf("init %s: %w", m.Name, err)
						}
					}
					return nil
				}),
			},
			{
				Name:  "migrate",
				Usage: "migrate database",
				Action: withDB(func(c *cli.Context, cfg *config.Config, db *bun.DB) error {
					for _, m := range migrations.Modules(db) {
						fmt.Printf("Running migrations for module: %s\n", m.Name)
						group, err := m.Migrator.Migrate(c.Context)
						if err != nil {
							return err
						}
						if group.IsZero() {
							fmt.Printf("No new migrations to run for module: %s\n", m.Name)
						} else {
							fmt.Printf("Migrated module: %s to %s\n", m.Name, group)
						}
					}
					versions, err := migrations.River(c.Context, cfg.Postgres.DSN, rivermigrate.DirectionUp)
					if err != nil {
						return err
					}
					fmt.Printf("River migrations applied: %v\n", versions)
					return nil
				}),
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group of each module",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "river", Usage: "also roll back one River version"},
				},
				Action: withDB(func(c *cli.Context, cfg *config.Config, db *bun.DB) error {
					modules := migrations.Modules(db)
					for i := len(modules) - 1; i >= 0; i-- {
						m := modules[i]
						fmt.Printf("Rolling back migrations for module: %s\n", m.Name)
						group, err := m.Migrator.Rollback(c.Context)
						if err != nil {
							return err
						}
						if group.IsZero() {
							fmt.Printf("No groups to roll back for module: %s\n", m.Name)
						} else {
							fmt.Printf("Rolled back module: %s to %s\n", m.Name, group)
						}
					}
					if c.Bool("river") {
						versions, err := migrations.River(c.Context, cfg.Postgres.DSN, rivermigrate.DirectionDown)
						if err != nil {
							return err
						}
						fmt.Printf("River migrations rolled back: %v\n", versions)
					}
					return nil
				}),
			},
			{
				Name:      "create_go",
				Usage:     "create Go migration",
				ArgsUsage: "<module> <name...>",
				Action: withDB(func(c *cli.Context, _ *config.Config, db *bun.DB) error {
					migrator, err := migrations.Find(migrations.Modules(db), c.Args().First())
					if err != nil {
						return err
					}
					name := strings.Join(c.Args().Tail(), "_")
					mf, err := migrator.CreateGoMigration(c.Context, name)
					if err != nil {
						return err
					}
					fmt.Printf("Created migration for module %s: %s (%s)\n", c.Args().First(), mf.Name, mf.Path)
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: withDB(func(c *cli.Context, _ *config.Config, db *bun.DB) error {
					for _, m := range migrations.Modules(db) {
						ms, err := m.Migrator.MigrationsWithStatus(c.Context)
						if err != nil {
							return err
						}
						fmt.Printf("Migrations for module: %s\n", m.Name)
						fmt.Printf("  %s\n", ms)
						fmt.Printf("  Applied: %s\n", ms.Applied())
						fmt.Printf("  Unapplied: %s\n", ms.Unapplied())
					}
					return nil
				}),
			},
		},
	}
}

func newTokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "bearer tokens",
		Subcommands: []*cli.Command{
			{
				Name:  "issue",
				Usage: "sign a token for a user id",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true, Usage: "user id (uuid)"},
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "role", Value: string(authdomain.RolePlayer)},
					&cli.DurationFlag{Name: "ttl", Usage: "token lifetime; defaults to jwt.default_ttl"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					userID, err := uuid.Parse(c.String("user"))
					if err != nil {
						return fmt.Errorf("invalid user id: %w", err)
					}
					role := authdomain.Role(c.String("role"))
					if !role.IsValid() {
						return fmt.Errorf("invalid role: %s", role)
					}
					token, err := issueToken(cfg, &authdomain.Claims{UserID: userID, Email: c.String("email"), Role: role}, c.Duration("ttl"))
					if err != nil {
						return err
					}
					fmt.Println(token)
					return nil
				},
			},
		},
	}
}

func newUserCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "user records",
		Subcommands: []*cli.Command{
			{
				Name:  "create-admin",
				Usage: "create or promote an admin and print a token for them",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "name", Value: "Administrator"},
				},
				Action: withDB(func(c *cli.Context, cfg *config.Config, db *bun.DB) error {
					svc := userservice.NewUserService(userdb.NewRepository(db), nil, nil, nil, db)
					admin, err := svc.EnsureAdmin(c.Context, c.String("email"), c.String("name"))
					if err != nil {
						return err
					}
					fmt.Printf("Admin %s (%s) ready\n", admin.Email, admin.ID)

					if cfg.JWT.Secret == "" {
						return nil
					}
					token, err := issueToken(cfg, &authdomain.Claims{UserID: admin.ID, Email: admin.Email, Role: authdomain.RoleAdmin}, 0)
					if err != nil {
						return err
					}
					fmt.Println(token)
					return nil
				}),
			},
		},
	}
}

func issueToken(cfg *config.Config, claims *authdomain.Claims, ttl time.Duration) (string, error) {
	if cfg.JWT.Secret == "" {
		return "", fmt.Errorf("jwt.secret is required")
	}
	if ttl == 0 {
		ttl = cfg.JWT.DefaultTTL
	}
	provider := authjwt.NewProvider(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience)
	return provider.GenerateToken(claims, ttl)
}
