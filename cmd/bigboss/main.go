package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bigboss/internal/amqp"
	"bigboss/internal/cache"
	"bigboss/internal/chatbot"
	"bigboss/internal/cli"
	"bigboss/internal/core"
	apphttp "bigboss/internal/http"
	"bigboss/internal/log"
	"bigboss/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	repo, err := cli.OpenRepository(startCtx, cfg)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, "driver", cfg.DBDriver)
		os.Exit(1)
	}
	defer repo.Close()

	carts, closeCarts, err := cli.OpenCartStore(startCtx, cfg)
	if err != nil {
		logger.Error("Failed to open cart store", log.FieldError, err, "backend", cfg.CartBackend)
		os.Exit(1)
	}
	defer closeCarts()

	// Payment events are optional; without a broker payments are only stored.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Payment events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP_URL not set, payment events disabled")
	}

	caches := cache.NewManager()
	var reports cache.Cache[[]core.MonthlyIncomeRow]
	if cfg.ReportCacheTTL > 0 {
		lru := cache.NewLRUCache[[]core.MonthlyIncomeRow](256, cfg.ReportCacheTTL)
		caches.Register("monthly_income", lru)
		reports = lru
	}

	trainers := services.NewTrainerService(repo)
	if cfg.SeedTrainers {
		n, err := trainers.Seed(startCtx)
		if err != nil {
			logger.Error("Failed to seed trainers", log.FieldError, err)
			os.Exit(1)
		}
		if n > 0 {
			logger.Info("Seeded sample trainers", "count", n)
		}
	}

	opts := apphttp.DefaultOptions()
	opts.LoginRateLimit = cfg.LoginRateLimit
	opts.LoginRateWindow = cfg.LoginRateWindow
	opts.APIRateLimit = cfg.APIRateLimit

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Members:   services.NewMemberService(repo),
		Trainers:  trainers,
		Payments:  services.NewPaymentService(repo, publisher, reports),
		Activity:  services.NewActivityService(repo),
		Dashboard: services.NewDashboardService(repo),
		Carts:     carts,
		Chatbot: &chatbot.Bridge{
			Command: cfg.ChatbotCommand,
			Args:    cfg.ChatbotArgs,
			Dir:     cfg.ChatbotDir,
			Timeout: cfg.ChatbotTimeout,
		},
		DB: repo,
	}, opts, logger)
	srv.RegisterCaches(caches)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
	})
	caches.StartCleanup(ctx, 5*time.Minute)

	logger.Info("Starting bigboss server",
		"port", cfg.Port,
		"db_driver", cfg.DBDriver,
		"cart_backend", cfg.CartBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
