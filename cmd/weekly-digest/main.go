// Command weekly-digest sends the weekly digest for a game day.
// Without an argument the current game day of the split is used.
package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/leaguewatch/schedule-notifier/internal/app"
	"github.com/leaguewatch/schedule-notifier/internal/biz/usecase"
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

	gameDay := usecase.CurrentGameDay(cfg.League.SplitStart, time.Now())
	if len(args) > 0 {
		if gameDay, err = strconv.Atoi(args[0]); err != nil {
			log.Println("Usage: weekly-digest [game_day]")
			return 1
		}
	}
	if gameDay <= 0 {
		log.Println("No game day: pass one or set LEAGUE_SPLIT_START")
		return 1
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}
	defer a.Close()

	result, err := a.Weekly.Run(context.Background(), gameDay)
	if err != nil {
		logger.Error("weekly digest failed", "game_day", gameDay, "error", err)
		return 1
	}
	logger.Info("weekly digest done", "game_day", gameDay, "teams", result.Teams, "payloads", len(result.Reports))
	return 0
}
