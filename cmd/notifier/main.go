package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/leaguewatch/schedule-notifier/internal/app"
	"github.com/leaguewatch/schedule-notifier/internal/conf"
	"github.com/leaguewatch/schedule-notifier/internal/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := conf.Load()
	if err != nil {
		log.Printf("Invalid config: %v", err)
		return 1
	}

	logger := observability.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}
	defer a.Close()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("schedule notifier starting", "db", cfg.Database.Path, "interval", cfg.Poll.Interval)
	if err := a.Run(ctx); err != nil {
		logger.Error("notifier stopped with error", "error", err)
		return 1
	}
	logger.Info("shut down")
	return 0
}
