package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"interviewai/internal/cli"
	"interviewai/internal/config"
	"interviewai/internal/errors"

	"github.com/joho/godotenv"
)

func main() {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; real environment variables still apply
	_ = godotenv.Load()

	cfg, err := config.LoadConfigFile(os.Getenv("INTERVIEWAI_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Debug("Starting interviewai",
		"version", cli.Version,
		"log_level", cfg.App.LogLevel,
		"ai_provider", cfg.AI.Provider)

	if err := cli.Execute(ctx, cfg, logger); err != nil {
		logger.LogError(err, "Application execution failed")
		os.Exit(1)
	}
}
