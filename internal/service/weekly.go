package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leaguewatch/schedule-notifier/internal/biz/usecase"
)

// DigestRunner sends the weekly digest of a game day
type DigestRunner interface {
	Run(ctx context.Context, gameDay int) (*usecase.WeeklyResult, error)
}

// WeeklyScheduler fires the weekly digest once per game day at the configured weekday and hour
type WeeklyScheduler struct {
	digest     DigestRunner
	metrics    *Metrics
	splitStart time.Time
	weekday    time.Weekday
	hour       int
	location   *time.Location
	logger     *slog.Logger

	now      func() time.Time
	lastSent int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWeeklyScheduler creates a new weekly digest scheduler
func NewWeeklyScheduler(digest DigestRunner, metrics *Metrics, splitStart time.Time, weekday time.Weekday, hour int, loc *time.Location, logger *slog.Logger) *WeeklyScheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WeeklyScheduler{
		digest:     digest,
		metrics:    metrics,
		splitStart: splitStart,
		weekday:    weekday,
		hour:       hour,
		location:   loc,
		logger:     logger.With("component", "weekly"),
		now:        time.Now,
	}
}

// Start checks once a minute whether the digest is due
func (s *WeeklyScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.check(ctx)
			}
		}
	}()

	s.logger.Info("weekly scheduler started", "weekday", s.weekday, "hour", s.hour)
}

// Stop stops the scheduler
func (s *WeeklyScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// due returns the game day to send for, or 0
func (s *WeeklyScheduler) due() int {
	now := s.now().In(s.location)
	if now.Weekday() != s.weekday || now.Hour() != s.hour {
		return 0
	}
	gameDay := usecase.CurrentGameDay(s.splitStart, now)
	if gameDay == 0 || gameDay == s.lastSent {
		return 0
	}
	return gameDay
}

func (s *WeeklyScheduler) check(ctx context.Context) {
	gameDay := s.due()
	if gameDay == 0 {
		return
	}
	// Marked before running so a failing run is not repeated every minute
	s.lastSent = gameDay

	result, err := s.digest.Run(ctx, gameDay)
	if s.metrics != nil {
		s.metrics.digests.Inc()
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "weekly digest failed", "game_day", gameDay, "error", err)
		return
	}
	s.metrics.observeReports(result.Reports)
	s.logger.DebugContext(ctx, "weekly digest run finished", "game_day", gameDay, "teams", result.Teams)
}
