package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"smart-canteen/internal/config"
	"smart-canteen/internal/db"
	"smart-canteen/internal/importer"
	itemrepo "smart-canteen/internal/repository/item"
	menusvc "smart-canteen/internal/service/menu"
)

func main() {
	app := &cli.App{
		Name:      "importer",
		Usage:     "import menu items from a CSV file (name,price,category,available,image)",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.PathFlag{Name: "file", Aliases: []string{"f"}, Usage: "path to the menu CSV file", Required: true},
			&cli.StringFlag{Name: "dsn", Usage: "postgres connection string (defaults to CANTEEN_DB_DSN)", EnvVars: []string{"CANTEEN_DB_DSN"}},
			&cli.BoolFlag{Name: "strict", Usage: "fail when any row is skipped"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dsn := c.String("dsn")
	if dsn == "" {
		dsn = cfg.DBConnString
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("importer")

	ctx := c.Context
	pool, err := db.Connect(ctx, dsn, logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	f, err := os.Open(c.Path("file"))
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, menusvc.New(itemrepo.NewPostgres(pool, logger), logger))

	start := time.Now()
	res, err := imp.Run(ctx)
	if err != nil {
		return fmt.Errorf("import failed after %d items: %w", res.Imported, err)
	}
	for _, skipped := range res.Skipped {
		logger.Warn("row skipped", zap.Int("line", skipped.Line), zap.String("name", skipped.Name), zap.Error(skipped.Err))
	}

	fmt.Printf("Imported %d items (%d skipped) in %s\n", res.Imported, len(res.Skipped), time.Since(start).Truncate(time.Millisecond))
	if c.Bool("strict") && len(res.Skipped) > 0 {
		return cli.Exit(fmt.Sprintf("%d rows skipped", len(res.Skipped)), 1)
	}
	return nil
}
