package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"smart-canteen/internal/config"
	"smart-canteen/internal/db"
	"smart-canteen/internal/migrate"
)

func main() {
	app := &cli.App{
		Name:  "migrate",
		Usage: "manage the canteen database schema",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: func(c *cli.Context) error {
					return withPool(c.Context, func(ctx context.Context, run runner) error {
						if err := migrate.Apply(ctx, run.pool); err != nil {
							return fmt.Errorf("apply migrations: %w", err)
						}
						run.logger.Info("migrations applied")
						return nil
					})
				},
			},
			{
				Name:  "down",
				Usage: "roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
				},
				Action: func(c *cli.Context) error {
					steps := c.Int("steps")
					return withPool(c.Context, func(ctx context.Context, run runner) error {
						if err := migrate.Rollback(ctx, run.pool, steps); err != nil {
							return fmt.Errorf("roll back migrations: %w", err)
						}
						run.logger.Info("migrations rolled back", zap.Int("steps", steps))
						return nil
					})
				},
			},
			{
				Name:  "version",
				Usage: "print the current schema version",
				Action: func(c *cli.Context) error {
					return withPool(c.Context, func(ctx context.Context, run runner) error {
						version, dirty, err := migrate.Version(ctx, run.pool)
						if err != nil {
							return err
						}
						fmt.Printf("version %d (dirty=%t)\n", version, dirty)
						return nil
					})
				},
			},
		},
		DefaultCommand: "up",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type runner struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func withPool(ctx context.Context, fn func(ctx context.Context, run runner) error) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	return fn(ctx, runner{pool: pool, logger: logger.Named("migrate")})
}
