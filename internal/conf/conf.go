package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
)

// Config represents application configuration
type Config struct {
	Log       LogConfig
	Database  DatabaseConfig
	Upstream  UpstreamConfig
	Poll      PollConfig
	Telegram  TelegramConfig
	Discord   DiscordConfig
	Feishu    FeishuConfig
	Templates TemplatesSource
	API       APIConfig
	League    LeagueConfig
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// DatabaseConfig contains the SQLite location
type DatabaseConfig struct {
	Path string
}

// UpstreamConfig contains the league site client configuration
type UpstreamConfig struct {
	BaseURL   string
	UserAgent string
	Retries   int
	RetryWait time.Duration
}

// PollConfig contains poll cycle configuration
type PollConfig struct {
	Interval     time.Duration
	Workers      int
	FetchTimeout time.Duration
	Grouping     string // actor, adjacent or none
}

// TelegramConfig contains Telegram bot configuration
type TelegramConfig struct {
	Token string
}

// DiscordConfig contains Discord bot configuration
type DiscordConfig struct {
	Token string
}

// FeishuConfig contains Feishu app configuration
type FeishuConfig struct {
	AppID     string
	AppSecret string
}

// TemplatesSource locates the template table
type TemplatesSource struct {
	Path          string
	DefaultLocale string // overrides the table's default when set
}

// APIConfig contains the ops HTTP server configuration
type APIConfig struct {
	Addr    string
	Enabled bool
}

// LeagueConfig contains league calendar and link configuration
type LeagueConfig struct {
	SplitStart    time.Time
	DigestWeekday time.Weekday
	DigestHour    int
	MatchURL      string
	TeamURL       string
	ScoutingURL   string
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("db_path", "data/notifier.db")
	v.SetDefault("upstream_base_url", "https://www.primeleague.gg/ajax/")
	v.SetDefault("upstream_user_agent", "schedule-notifier/1.0")
	v.SetDefault("upstream_retries", 3)
	v.SetDefault("upstream_retry_wait", "2s")
	v.SetDefault("poll_interval", "5m")
	v.SetDefault("poll_workers", 4)
	v.SetDefault("poll_fetch_timeout", "15s")
	v.SetDefault("suggestion_grouping", "actor")
	v.SetDefault("templates_path", "")
	v.SetDefault("default_locale", "")
	v.SetDefault("api_addr", ":9876")
	v.SetDefault("api_enabled", true)
	v.SetDefault("league_split_start", "")
	v.SetDefault("weekly_digest_weekday", "monday")
	v.SetDefault("weekly_digest_hour", 10)
	v.SetDefault("match_url", "https://www.primeleague.gg/leagues/matches/%d")
	v.SetDefault("team_url", "https://www.primeleague.gg/leagues/teams/%d")
	v.SetDefault("scouting_url", "https://www.op.gg/multisearch/euw?summoners=")

	cfg := &Config{
		Log: LogConfig{
			Level:  strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
			Format: strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
		},
		Database: DatabaseConfig{
			Path: strings.TrimSpace(v.GetString("db_path")),
		},
		Upstream: UpstreamConfig{
			BaseURL:   strings.TrimSpace(v.GetString("upstream_base_url")),
			UserAgent: v.GetString("upstream_user_agent"),
			Retries:   v.GetInt("upstream_retries"),
			RetryWait: v.GetDuration("upstream_retry_wait"),
		},
		Poll: PollConfig{
			Interval:     v.GetDuration("poll_interval"),
			Workers:      v.GetInt("poll_workers"),
			FetchTimeout: v.GetDuration("poll_fetch_timeout"),
			Grouping:     strings.TrimSpace(v.GetString("suggestion_grouping")),
		},
		Telegram: TelegramConfig{
			Token: strings.TrimSpace(v.GetString("telegram_bot_token")),
		},
		Discord: DiscordConfig{
			Token: strings.TrimSpace(v.GetString("discord_bot_token")),
		},
		Feishu: FeishuConfig{
			AppID:     strings.TrimSpace(v.GetString("feishu_app_id")),
			AppSecret: strings.TrimSpace(v.GetString("feishu_app_secret")),
		},
		Templates: TemplatesSource{
			Path:          strings.TrimSpace(v.GetString("templates_path")),
			DefaultLocale: strings.TrimSpace(v.GetString("default_locale")),
		},
		API: APIConfig{
			Addr:    strings.TrimSpace(v.GetString("api_addr")),
			Enabled: v.GetBool("api_enabled"),
		},
		League: LeagueConfig{
			DigestHour:  v.GetInt("weekly_digest_hour"),
			MatchURL:    v.GetString("match_url"),
			TeamURL:     v.GetString("team_url"),
			ScoutingURL: v.GetString("scouting_url"),
		},
	}

	if raw := strings.TrimSpace(v.GetString("league_split_start")); raw != "" {
		start, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, &ConfigError{Field: "LEAGUE_SPLIT_START", Message: fmt.Sprintf("invalid date %q", raw)}
		}
		cfg.League.SplitStart = start
	}

	weekday, err := parseWeekday(v.GetString("weekly_digest_weekday"))
	if err != nil {
		return nil, &ConfigError{Field: "WEEKLY_DIGEST_WEEKDAY", Message: err.Error()}
	}
	cfg.League.DigestWeekday = weekday

	return cfg, nil
}

// Validate checks the configuration for the long running notifier
func (c *Config) Validate() error {
	if len(c.EnabledPlatforms()) == 0 {
		return &ConfigError{Field: "TELEGRAM_BOT_TOKEN/DISCORD_BOT_TOKEN/FEISHU_APP_ID", Message: "at least one platform is required"}
	}
	if c.Feishu.AppID != "" && c.Feishu.AppSecret == "" {
		return &ConfigError{Field: "FEISHU_APP_SECRET", Message: "required when FEISHU_APP_ID is set"}
	}
	if c.Database.Path == "" {
		return &ConfigError{Field: "DB_PATH", Message: "required"}
	}
	if c.Upstream.BaseURL == "" {
		return &ConfigError{Field: "UPSTREAM_BASE_URL", Message: "required"}
	}
	if c.Poll.Interval <= 0 {
		return &ConfigError{Field: "POLL_INTERVAL", Message: "must be positive"}
	}
	if c.Poll.Workers <= 0 {
		return &ConfigError{Field: "POLL_WORKERS", Message: "must be positive"}
	}
	if c.Poll.FetchTimeout <= 0 {
		return &ConfigError{Field: "POLL_FETCH_TIMEOUT", Message: "must be positive"}
	}
	if c.League.DigestHour < 0 || c.League.DigestHour > 23 {
		return &ConfigError{Field: "WEEKLY_DIGEST_HOUR", Message: "must be between 0 and 23"}
	}
	return nil
}

// EnabledPlatforms returns the platforms with credentials configured
func (c *Config) EnabledPlatforms() []domain.Platform {
	var platforms []domain.Platform
	if c.Telegram.Token != "" {
		platforms = append(platforms, domain.PlatformTelegram)
	}
	if c.Discord.Token != "" {
		platforms = append(platforms, domain.PlatformDiscord)
	}
	if c.Feishu.AppID != "" {
		platforms = append(platforms, domain.PlatformFeishu)
	}
	return platforms
}

func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == s {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
