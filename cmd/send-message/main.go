// Command send-message posts a text to one channel through a configured platform.
// It is meant for checking platform credentials and channel ids.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/leaguewatch/schedule-notifier/internal/app"
	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/conf"
	"github.com/leaguewatch/schedule-notifier/internal/observability"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load()

	if len(args) < 3 {
		fmt.Println("Usage: send-message <platform> <channel_id> <message>")
		return 1
	}

	platform, err := domain.ParsePlatform(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	channelID := args[1]
	message := args[2]

	cfg, err := conf.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	logger := observability.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	a, err := app.New(cfg, logger)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	defer a.Close()

	ch, err := a.Channel(platform)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res := ch.Send(ctx, channelID, message, false)
	if res.Outcome != domain.Delivered {
		fmt.Printf("Error: %s: %v\n", res.Outcome, res.Err)
		return 1
	}
	fmt.Printf("Message sent successfully! (ref %s)\n", res.MessageRef)
	return 0
}
