// Command server exposes the normalizer over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvnorm/internal/config"
	"github.com/JonMunkholm/csvnorm/internal/ledger"
	"github.com/JonMunkholm/csvnorm/internal/logging"
	"github.com/JonMunkholm/csvnorm/internal/normalize"
	"github.com/JonMunkholm/csvnorm/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"ledger_database", cfg.Database.Enabled(),
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"metrics_enabled", cfg.Metrics.Enabled,
	)

	ctx := context.Background()
	store, err := ledger.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to open run ledger", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	n := normalize.New(logger, cfg.NormalizeOptions())
	server := web.NewServer(n, store, cfg)

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-shutdownDone
	logger.Info("server stopped")
}
