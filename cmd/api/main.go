package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"smart-canteen/internal/config"
	"smart-canteen/internal/db"
	"smart-canteen/internal/httpserver"
	"smart-canteen/internal/kafka"
	itemrepo "smart-canteen/internal/repository/item"
	orderrepo "smart-canteen/internal/repository/order"
	userrepo "smart-canteen/internal/repository/user"
	accountsvc "smart-canteen/internal/service/account"
	cartsvc "smart-canteen/internal/service/cart"
	dashboardsvc "smart-canteen/internal/service/dashboard"
	menusvc "smart-canteen/internal/service/menu"
	ordersvc "smart-canteen/internal/service/order"
	"smart-canteen/internal/session"
	"smart-canteen/internal/telemetry"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	tel, err := telemetry.Setup(ctx, "smart-canteen-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("init telemetry: %v", err)
	}
	defer tel.Shutdown(context.Background())
	logger := tel.Logger

	metrics, err := telemetry.NewMetrics(tel.Meter)
	if err != nil {
		logger.Fatal("init metrics", zap.Error(err))
	}

	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	var sessions session.Store
	if cfg.RedisURL != "" {
		redisStore, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			logger.Fatal("connect to redis", zap.Error(err))
		}
		defer redisStore.Close()
		sessions = redisStore
		logger.Info("using redis session store")
	} else {
		sessions = session.NewMemoryStore(cfg.SessionTTL)
		logger.Warn("CANTEEN_REDIS_URL not set, sessions are kept in memory")
	}

	itemRepo := itemrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	userRepo := userrepo.NewPostgres(dbpool, logger)

	orderOpts := []ordersvc.Option{
		ordersvc.WithLogger(logger),
		ordersvc.WithMetrics(metrics),
		ordersvc.WithTracer(tel.Tracer),
	}
	if len(cfg.KafkaBrokers) > 0 {
		events := kafka.NewOrderEvents(kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrdersTopic))
		defer events.Close()
		orderOpts = append(orderOpts, ordersvc.WithPublisher(events))
		logger.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaOrdersTopic))
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Sessions:      sessions,
		Cart:          cartsvc.New(itemRepo, sessions, metrics),
		Orders:        ordersvc.New(itemRepo, orderRepo, sessions, orderOpts...),
		Menu:          menusvc.New(itemRepo, logger),
		Dashboard:     dashboardsvc.New(orderRepo),
		Accounts:      accountsvc.New(userRepo, logger),
		DB:            dbpool,
		SessionCookie: cfg.SessionCookie,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.SecureCookies,
		CORSOrigins:   cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
