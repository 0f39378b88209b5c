package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/subhasmitas02/SplitSmart/internal/config"
	"github.com/subhasmitas02/SplitSmart/internal/events"
	"github.com/subhasmitas02/SplitSmart/internal/export"
	apphttp "github.com/subhasmitas02/SplitSmart/internal/http"
	applog "github.com/subhasmitas02/SplitSmart/internal/log"
	"github.com/subhasmitas02/SplitSmart/internal/services"
	"github.com/subhasmitas02/SplitSmart/internal/storage"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.WithComponent(applog.Setup(cfg.LogLevel, cfg.LogFormat), "api")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ledger storage.Ledger
	switch cfg.DataBackend {
	case "memory":
		ledger = storage.NewMemoryLedger()
		logger.Info("Initialized memory backend")
	default:
		sqliteLedger, err := storage.NewSQLiteLedger(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite ledger", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		ledger = sqliteLedger
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	}
	defer ledger.Close()

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP events enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP events disabled - no AMQP_URL provided")
	}

	svc := services.NewLedgerService(ledger, publisher)
	server := apphttp.NewServer(svc)

	if sqliteLedger, ok := ledger.(*storage.SQLiteLedger); ok {
		server.SetReadyCheck(sqliteLedger.Ping)
	}

	if cfg.SheetsExportEnabled() {
		exporter, err := export.NewSheetsExporter(ctx, cfg)
		if err != nil {
			logger.Error("Failed to initialize sheets exporter", "error", err)
			os.Exit(1)
		}
		server.SetExporter(exporter)
		logger.Info("Report export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        server.Handler(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting splitsmart server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
