// Command normalizer converts every CSV file in NORMALIZE_INPUT_DIR into a
// UTF-8, normalized copy in NORMALIZE_OUTPUT_DIR.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvnorm/internal/config"
	"github.com/JonMunkholm/csvnorm/internal/driver"
	"github.com/JonMunkholm/csvnorm/internal/ledger"
	"github.com/JonMunkholm/csvnorm/internal/logging"
	"github.com/JonMunkholm/csvnorm/internal/normalize"
)

func main() {
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Positional arguments override the configured directories.
	flag.Parse()
	if dir := flag.Arg(0); dir != "" {
		cfg.Normalize.InputDir = dir
	}
	if dir := flag.Arg(1); dir != "" {
		cfg.Normalize.OutputDir = dir
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Debug("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := ledger.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to open run ledger", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	n := normalize.New(logger, cfg.NormalizeOptions())
	d := driver.New(n, store, logger, cfg.Normalize.Workers)

	if _, err := d.Run(ctx, cfg.Normalize.InputDir, cfg.Normalize.OutputDir); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("normalization interrupted")
		} else {
			logger.Error("normalization failed", "error", err)
		}
		stop()
		store.Close()
		os.Exit(1)
	}
}
