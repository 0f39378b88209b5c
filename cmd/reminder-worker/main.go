package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/subhasmitas02/SplitSmart/internal/config"
	"github.com/subhasmitas02/SplitSmart/internal/events"
	applog "github.com/subhasmitas02/SplitSmart/internal/log"
	"github.com/subhasmitas02/SplitSmart/internal/storage"
	"github.com/subhasmitas02/SplitSmart/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.WithComponent(applog.Setup(cfg.LogLevel, cfg.LogFormat), "reminder-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting reminder worker",
		"interval", cfg.ReminderInterval,
		"batch_size", cfg.ReminderBatchSize)

	// The worker reads the same database the server writes; the memory
	// backend has nothing for a separate process to see.
	ledger, err := storage.NewSQLiteLedger(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite ledger", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer ledger.Close()

	reminder := worker.NewReminderWorker(ledger, cfg.ReminderBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		g.Go(func() error {
			return client.Consume(gctx, events.RouteExpenseCreated, func(body []byte) error {
				return reminder.HandleExpenseCreated(gctx, body)
			})
		})
	} else {
		logger.Info("AMQP consumption disabled - no AMQP_URL provided")
	}

	g.Go(func() error {
		return reminder.Run(gctx, cfg.ReminderInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
