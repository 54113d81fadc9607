// Package cli provides the start-up steps shared by cmd/bigboss,
// cmd/bigboss-worker and cmd/bigboss-report.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bigboss/internal/cart"
	"bigboss/internal/config"
	"bigboss/internal/log"
	"bigboss/internal/storage"
)

// SetupLogger builds the process logger from the configured level and
// format and installs it as the slog default. An unknown level falls back
// to info.
func SetupLogger(level, format, component string) *log.Logger {
	return setupLogger(os.Stdout, level, format, component)
}

func setupLogger(out io.Writer, level, format, component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = out
	cfg.Format = format
	cfg.Component = component
	if lvl, err := log.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Configuration load failed", log.FieldError, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenRepository connects to the configured database and migrates it.
func OpenRepository(ctx context.Context, cfg *config.Config) (*storage.Repository, error) {
	switch cfg.DBDriver {
	case "mysql":
		return storage.NewMySQLRepository(ctx, storage.MySQLConfig{
			Addr:     cfg.MySQLAddr,
			User:     cfg.MySQLUser,
			Password: cfg.MySQLPassword,
			Database: cfg.MySQLDatabase,
		})
	case "sqlite", "":
		return storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
	}
}

// OpenCartStore returns the configured cart backend and a function that
// releases it.
func OpenCartStore(ctx context.Context, cfg *config.Config) (cart.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.CartBackend {
	case "redis":
		store, err := cart.NewRedisStore(ctx, cart.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CartTTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "file":
		store, err := cart.NewFileStore(cfg.CartDir)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case "memory", "":
		return cart.NewMemoryStore(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown cart backend %q", cfg.CartBackend)
	}
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM and
// runs cleanup with a deadline of timeout. The channel closes once cleanup
// has returned or the deadline passed.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached", "timeout", timeout.String())
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup has
// finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
