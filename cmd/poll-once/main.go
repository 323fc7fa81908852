// Command poll-once runs a single poll cycle and exits.
// With match ids as arguments only those matches are polled.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/leaguewatch/schedule-notifier/internal/app"
	"github.com/leaguewatch/schedule-notifier/internal/conf"
	"github.com/leaguewatch/schedule-notifier/internal/observability"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load()

	cfg, err := conf.Load()
	if err != nil {
		log.Printf("Invalid config: %v", err)
		return 1
	}
	logger := observability.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(args) == 0 {
		summary, err := a.Poller().RunCycle(ctx)
		if err != nil {
			logger.Error("poll cycle failed", "error", err)
			return 1
		}
		if summary.Failed > 0 {
			return 2
		}
		return 0
	}

	failed := false
	for _, arg := range args {
		matchID, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			logger.Error("invalid match id", "arg", arg)
			failed = true
			continue
		}
		ctx, _ := observability.WithCycleID(ctx)
		result, err := a.Poll.PollMatch(ctx, matchID)
		if err != nil {
			logger.ErrorContext(ctx, "poll failed", "match_id", matchID, "error", err)
			failed = true
			continue
		}
		logger.InfoContext(ctx, "polled", "match_id", matchID, "events", len(result.Events), "delivered", result.Delivered())
	}
	if failed {
		return 2
	}
	return 0
}
