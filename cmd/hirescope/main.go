package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hirescope/internal/cli"
	"hirescope/internal/config"
	"hirescope/internal/errors"
	"hirescope/internal/observability"

	"github.com/joho/godotenv"
)

func main() {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env if present; real env vars take precedence
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Pull secrets from Vault when configured
	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		logger.LogError(err, "Failed to load secrets from Vault")
		os.Exit(1)
	}

	// Tracing
	obs, err := observability.Setup(ctx, &cfg.Observability)
	if err != nil {
		logger.LogError(err, "Failed to initialize observability")
		os.Exit(1)
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			logger.Warn("Observability shutdown failed", "error", err.Error())
		}
	}()

	// Log startup
	logger.Info("Starting hirescope",
		"version", cli.Version,
		"log_level", cfg.App.LogLevel,
		"ai_provider", cfg.AI.Provider)

	// Execute command with cancellable context
	if err := cli.Execute(ctx, cfg, logger); err != nil {
		logger.LogError(err, "Application execution failed")
		os.Exit(1)
	}
}
