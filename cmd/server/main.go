package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hongminglow/loft-be/internal/auth"
	"github.com/hongminglow/loft-be/internal/config"
	"github.com/hongminglow/loft-be/internal/ledger"
	"github.com/hongminglow/loft-be/internal/logger"
	"github.com/hongminglow/loft-be/internal/metrics"
	"github.com/hongminglow/loft-be/internal/server"
	"github.com/hongminglow/loft-be/internal/storage/postgres"
)

const serviceName = "loft-be"

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(logger.Config{Level: cfg.LogLevel, Environment: cfg.Environment, Service: serviceName})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("init database", zap.Error(err))
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		zlog.Fatal("ensure schema", zap.Error(err))
	}

	m := metrics.New(serviceName)
	srv := server.New(cfg, server.Deps{
		Log:     zlog,
		Metrics: m,
		Auth: auth.NewService(store, zlog, m, auth.Options{
			SessionTTL:    cfg.SessionTTL,
			ResetTokenTTL: cfg.ResetTokenTTL,
			BcryptCost:    cfg.BcryptCost,
		}),
		Tokens:   auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer),
		Ledger:   ledger.NewLedger(store, zlog),
		Recorder: ledger.NewRecorder(store, zlog, m),
		Catalog:  store,
		DB:       store,
	})

	go func() {
		zlog.Info("loft backend listening", zap.String("addr", cfg.HTTPAddress()), zap.String("environment", cfg.Environment))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zlog.Error("graceful shutdown error", zap.Error(err))
	}
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
