package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/accounts"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/config"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/events"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/handler"
	interfaces "github.com/sheikh-saqib/wallet-ledger-service/internal/interfaces"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/ledger"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/logger"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/router"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/storage/memory"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/storage/postgres"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env vars")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("wallet ledger service failed", zap.Error(err))
	}
}

func run(cfg config.Config, zlog *zap.Logger) error {
	ctx := context.Background()

	store, db, err := openStore(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	publisher, err := events.NewPublisher(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			zlog.Warn("close event publisher", zap.Error(err))
		}
	}()

	ledgerService := ledger.NewLedger(store, publisher, zlog)
	transactionHandler := handler.NewTransactionHandler(ledgerService, zlog)
	accountHandler := handler.NewAccountHandler(accounts.NewService(store, zlog), zlog)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.SetupRoutes(transactionHandler, accountHandler, zlog),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("wallet ledger service starting",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("storage", cfg.StorageDriver),
			zap.String("events", cfg.EventsDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		zlog.Info("shutting down gracefully", zap.String("signal", sig.String()))
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	zlog.Info("wallet ledger service stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, zlog *zap.Logger) (interfaces.LedgerStore, *sql.DB, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		zlog.Info("connected to postgres")
		return postgres.NewPostgresLedgerStore(db, cfg.LockTimeout), db, nil
	default:
		zlog.Warn("using in-memory ledger store; data is lost on restart")
		return memory.NewMemoryLedgerStore(), nil, nil
	}
}
