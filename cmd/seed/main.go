package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"smart-canteen/internal/config"
	"smart-canteen/internal/db"
	itemrepo "smart-canteen/internal/repository/item"
	userrepo "smart-canteen/internal/repository/user"
	"smart-canteen/internal/seed"
	accountsvc "smart-canteen/internal/service/account"
	menusvc "smart-canteen/internal/service/menu"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	menu := menusvc.New(itemrepo.NewPostgres(pool, logger), logger)
	accounts := accountsvc.New(userrepo.NewPostgres(pool, logger), logger)

	opts := seed.Options{
		AdminUsername: cfg.SeedAdminUsername,
		AdminPassword: cfg.SeedAdminPassword,
	}
	if err := seed.Apply(ctx, menu, accounts, opts, logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied")
}
