package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bigboss/internal/amqp"
	"bigboss/internal/cli"
	"bigboss/internal/log"
	"bigboss/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), log.ComponentWorker)
	logger.Info("Starting bigboss-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	repo, err := cli.OpenRepository(startCtx, cfg)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, "driver", cfg.DBDriver)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewPaymentWorker(repo, 50)
	if err := w.StartupCheck(startCtx); err != nil {
		logger.Error("Startup check failed", log.FieldError, err)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	go w.ReportStats(ctx, 10*time.Minute)

	if err := client.ConsumePaymentEvents(ctx, w.HandlePaymentEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	processed, failed := w.Stats()
	logger.Info("Worker stopped gracefully", "processed", processed, "failed", failed)
}
