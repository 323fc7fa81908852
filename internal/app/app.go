package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/leaguewatch/schedule-notifier/internal/api"
	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/biz/repo"
	"github.com/leaguewatch/schedule-notifier/internal/biz/usecase"
	"github.com/leaguewatch/schedule-notifier/internal/conf"
	"github.com/leaguewatch/schedule-notifier/internal/data"
	"github.com/leaguewatch/schedule-notifier/internal/infra/discord"
	"github.com/leaguewatch/schedule-notifier/internal/infra/feishu"
	"github.com/leaguewatch/schedule-notifier/internal/infra/telegram"
	"github.com/leaguewatch/schedule-notifier/internal/infra/upstream"
	"github.com/leaguewatch/schedule-notifier/internal/service"
)

// App wires configuration, storage, platforms and usecases together
type App struct {
	cfg    *conf.Config
	logger *slog.Logger

	repos    *data.Repositories
	channels []repo.ChannelRepo
	closers  []func() error
	table    *conf.TemplateTable

	Registry   *prometheus.Registry
	Metrics    *service.Metrics
	Dispatcher *usecase.Dispatcher
	Poll       *usecase.PollUsecase
	Overview   *usecase.OverviewUsecase
	Weekly     *usecase.WeeklyUsecase
	Teams      *usecase.RegistryUsecase
}

// New builds the application from cfg
func New(cfg *conf.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	grouping, err := groupingFrom(cfg.Poll)
	if err != nil {
		return nil, err
	}
	tmplCfg, err := conf.LoadTemplatesConfig(cfg.Templates.Path, logger)
	if err != nil {
		return nil, err
	}
	a.table, err = conf.NewTemplateTable(tmplCfg)
	if err != nil {
		return nil, err
	}

	client := upstream.NewClient(cfg.Upstream.BaseURL,
		upstream.WithUserAgent(cfg.Upstream.UserAgent),
		upstream.WithRetry(cfg.Upstream.Retries, cfg.Upstream.RetryWait),
	)
	a.repos, err = data.NewRepositories(cfg.Database.Path, client)
	if err != nil {
		return nil, err
	}

	if err := a.initChannels(); err != nil {
		a.Close()
		return nil, err
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = service.NewMetrics(a.Registry)

	defaultLocale := cfg.Templates.DefaultLocale
	if defaultLocale == "" || !a.table.HasLocale(defaultLocale) {
		defaultLocale = a.table.DefaultLocale()
	}

	links := linksFrom(cfg.League)
	a.Dispatcher = usecase.NewDispatcher(logger, a.channels...)
	builder := usecase.NewNotificationBuilder(a.table, a.Dispatcher, defaultLocale)
	announcer := usecase.NewAnnouncer(a.repos.Team, builder, a.Dispatcher)
	classifier := usecase.NewEventClassifier(a.repos.Team, grouping, links, logger)

	a.Poll = usecase.NewPollUsecase(a.repos.Source, a.repos.Match, usecase.NewLogParser(logger), classifier, announcer, cfg.Poll.FetchTimeout, logger)
	a.Overview = usecase.NewOverviewUsecase(a.repos.Match, a.repos.Team, announcer, links)
	a.Weekly = usecase.NewWeeklyUsecase(a.repos.Match, a.repos.Team, announcer, links, logger)
	a.Teams = usecase.NewRegistryUsecase(a.repos.Match, a.repos.Team)

	return a, nil
}

func groupingFrom(c conf.PollConfig) (usecase.GroupingMode, error) {
	mode, err := usecase.ParseGroupingMode(c.Grouping)
	if err != nil {
		return "", &conf.ConfigError{Field: "SUGGESTION_GROUPING", Message: err.Error()}
	}
	return mode, nil
}

func linksFrom(c conf.LeagueConfig) usecase.LinkConfig {
	return usecase.LinkConfig{
		MatchURL:    c.MatchURL,
		TeamURL:     c.TeamURL,
		ScoutingURL: c.ScoutingURL,
	}
}

func (a *App) initChannels() error {
	for _, p := range a.cfg.EnabledPlatforms() {
		switch p {
		case domain.PlatformTelegram:
			c, err := telegram.NewClient(a.cfg.Telegram.Token)
			if err != nil {
				return err
			}
			a.logger.Info("telegram enabled", "bot", c.Username())
			a.channels = append(a.channels, data.NewTelegramChannel(c))
		case domain.PlatformDiscord:
			c, err := discord.NewClient(a.cfg.Discord.Token)
			if err != nil {
				return err
			}
			a.closers = append(a.closers, c.Close)
			a.channels = append(a.channels, data.NewDiscordChannel(c))
			a.logger.Info("discord enabled")
		case domain.PlatformFeishu:
			a.channels = append(a.channels, data.NewFeishuChannel(feishu.NewClient(a.cfg.Feishu.AppID, a.cfg.Feishu.AppSecret)))
			a.logger.Info("feishu enabled")
		}
	}
	if len(a.channels) == 0 {
		return errors.New("no communication platform configured")
	}
	return nil
}

// Channel returns the adapter of platform
func (a *App) Channel(p domain.Platform) (repo.ChannelRepo, error) {
	for _, ch := range a.channels {
		if ch.Platform() == p {
			return ch, nil
		}
	}
	return nil, fmt.Errorf("platform %s is not configured", p)
}

// Poller creates the interval poller over all open matches
func (a *App) Poller() *service.Poller {
	return service.NewPoller(a.Poll, a.repos.Match, a.Metrics, a.cfg.Poll.Interval, a.cfg.Poll.Workers, a.logger)
}

// Run starts the poller, the weekly scheduler and the ops API and blocks until ctx is done
func (a *App) Run(ctx context.Context) error {
	poller := a.Poller()
	poller.Start(ctx)
	defer poller.Stop()

	weekly := service.NewWeeklyScheduler(a.Weekly, a.Metrics,
		a.cfg.League.SplitStart, a.cfg.League.DigestWeekday, a.cfg.League.DigestHour,
		a.table.Location(), a.logger)
	if !a.cfg.League.SplitStart.IsZero() {
		weekly.Start(ctx)
		defer weekly.Stop()
	} else {
		a.logger.Warn("league split start not set, weekly digest disabled")
	}

	if !a.cfg.API.Enabled {
		<-ctx.Done()
		return nil
	}

	srv := api.NewServer(a.logger, api.Deps{
		Poller:    a.Poll,
		Overviews: a.Overview,
		Digests:   a.Weekly,
		Registry:  a.Teams,
		Gatherer:  a.Registry,
		Health: func(ctx context.Context) error {
			return a.repos.Store.Ping()
		},
	})

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("ops api listening", "addr", a.cfg.API.Addr)
		errCh <- srv.Start(a.cfg.API.Addr)
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Close releases platform sessions and the database
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	if a.repos != nil {
		errs = append(errs, a.repos.Close())
	}
	return errors.Join(errs...)
}
