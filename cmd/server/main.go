package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/config"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/events"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/events/kafka"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/funding"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/httpapi"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/ledger"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/logger"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/scheduler"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/storage/memory"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/storage/postgres"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		logger.Log.Fatal("server exited", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		initFallbackLogger()
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.Options{
		Level:  cfg.Log.Level,
		Output: cfg.Log.Output,
		File:   cfg.Log.File,
	}); err != nil {
		initFallbackLogger()
		return fmt.Errorf("failed to initialise logger: %w", err)
	}
	defer logger.Log.Sync()

	var store interfaces.Store
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := postgres.Migrate(db); err != nil {
			return err
		}
		store = postgres.NewPostgresLedgerStore(db)
		logger.Log.Info("connected to the database")
	default:
		store = memory.NewMemoryLedgerStore()
		logger.Log.Warn("using in-memory store, data is lost on restart")
	}

	var publisher interfaces.EventPublisher = events.Nop{}
	if cfg.Kafka.Enabled {
		kp := kafka.NewPublisher(cfg.Kafka.Brokers)
		defer kp.Close()
		publisher = kp
		logger.Log.Info("publishing events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	ledgerService := ledger.NewLedger(store)
	fundingService := funding.NewService(store, ledgerService, publisher, logger.Log.Named("funding"))

	if cfg.Scheduler.Enabled {
		jobs, err := scheduler.NewManager(fundingService, cfg.Scheduler, logger.Log.Named("scheduler"))
		if err != nil {
			return err
		}
		if err := jobs.RegisterJobs(); err != nil {
			return err
		}
		jobs.Start()
		defer jobs.Stop()
	}

	router := httpapi.NewRouter(httpapi.NewHandler(ledgerService, fundingService, logger.Log.Named("http")))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, srv, 10*time.Second)
}

// serve runs srv until ctx is cancelled or the listener fails, then shuts
// it down within timeout.
func serve(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Log.Error("server error", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}
	logger.Log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Log.Info("server stopped")
	return nil
}

// initFallbackLogger is used when the configured logger cannot be built.
func initFallbackLogger() {
	if err := logger.Init(logger.Options{Level: "info"}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise fallback logger: %v\n", err)
	}
}
