package conf

import (
	"errors"
	"testing"
	"time"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Poll.Interval != 5*time.Minute {
		t.Errorf("Expected 5m poll interval, got %v", cfg.Poll.Interval)
	}
	if cfg.Poll.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Poll.Workers)
	}
	if cfg.Poll.FetchTimeout != 15*time.Second {
		t.Errorf("Expected 15s fetch timeout, got %v", cfg.Poll.FetchTimeout)
	}
	if cfg.Poll.Grouping != "actor" {
		t.Errorf("Expected actor grouping, got %s", cfg.Poll.Grouping)
	}
	if cfg.League.MatchURL != "https://www.primeleague.gg/leagues/matches/%d" {
		t.Errorf("Expected default match url, got %s", cfg.League.MatchURL)
	}
	if cfg.API.Addr != ":9876" {
		t.Errorf("Expected api addr :9876, got %s", cfg.API.Addr)
	}
	if cfg.League.DigestWeekday != time.Monday {
		t.Errorf("Expected monday digest, got %s", cfg.League.DigestWeekday)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "discord-token")
	t.Setenv("FEISHU_APP_ID", "cli_x")
	t.Setenv("FEISHU_APP_SECRET", "secret")
	t.Setenv("POLL_INTERVAL", "90s")
	t.Setenv("POLL_WORKERS", "8")
	t.Setenv("SUGGESTION_GROUPING", "none")
	t.Setenv("LEAGUE_SPLIT_START", "2026-09-07")
	t.Setenv("WEEKLY_DIGEST_WEEKDAY", "Wednesday")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Poll.Interval != 90*time.Second || cfg.Poll.Workers != 8 {
		t.Errorf("Expected 90s/8 workers, got %v/%d", cfg.Poll.Interval, cfg.Poll.Workers)
	}
	if cfg.Poll.Grouping != "none" {
		t.Errorf("Expected no grouping, got %s", cfg.Poll.Grouping)
	}
	if got := cfg.League.SplitStart.Format("2006-01-02"); got != "2026-09-07" {
		t.Errorf("Expected split start 2026-09-07, got %s", got)
	}
	if cfg.League.DigestWeekday != time.Wednesday {
		t.Errorf("Expected wednesday, got %s", cfg.League.DigestWeekday)
	}

	platforms := cfg.EnabledPlatforms()
	if len(platforms) != 2 || platforms[0] != domain.PlatformDiscord || platforms[1] != domain.PlatformFeishu {
		t.Errorf("Expected discord and feishu, got %v", platforms)
	}
}

func TestLoad_InvalidSplitStart(t *testing.T) {
	t.Setenv("LEAGUE_SPLIT_START", "next monday")

	_, err := Load()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "LEAGUE_SPLIT_START" {
		t.Errorf("Expected LEAGUE_SPLIT_START config error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		field string
	}{
		{"no platform", map[string]string{}, "TELEGRAM_BOT_TOKEN/DISCORD_BOT_TOKEN/FEISHU_APP_ID"},
		{"feishu without secret", map[string]string{"FEISHU_APP_ID": "cli_x"}, "FEISHU_APP_SECRET"},
		{"zero workers", map[string]string{"TELEGRAM_BOT_TOKEN": "t", "POLL_WORKERS": "0"}, "POLL_WORKERS"},
		{"bad hour", map[string]string{"TELEGRAM_BOT_TOKEN": "t", "WEEKLY_DIGEST_HOUR": "25"}, "WEEKLY_DIGEST_HOUR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			err = cfg.Validate()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, cfgErr.Field)
			}
		})
	}
}
