package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/biz/repo"
	"github.com/leaguewatch/schedule-notifier/internal/biz/usecase"
	"github.com/leaguewatch/schedule-notifier/internal/observability"
)

// MatchPoller runs the pipeline for one match
type MatchPoller interface {
	PollMatch(ctx context.Context, matchID int64) (*usecase.PollResult, error)
}

// CycleSummary describes one poll cycle over all open matches
type CycleSummary struct {
	CycleID   string
	Matches   int
	Failed    int
	Busy      int
	Events    int
	Delivered int
	Duration  time.Duration
}

// Poller polls every open match on a fixed interval
type Poller struct {
	matches   MatchPoller
	matchRepo repo.MatchRepo
	metrics   *Metrics
	interval  time.Duration
	workers   int
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates a new poller
func NewPoller(matches MatchPoller, matchRepo repo.MatchRepo, metrics *Metrics, interval time.Duration, workers int, logger *slog.Logger) *Poller {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		matches:   matches,
		matchRepo: matchRepo,
		metrics:   metrics,
		interval:  interval,
		workers:   workers,
		logger:    logger.With("component", "poller"),
	}
}

// Start runs a cycle immediately and then on every tick until Stop
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.loop(ctx)

	p.logger.Info("poller started", "interval", p.interval, "workers", p.workers)
}

// Stop cancels the running cycle and waits for it to return
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("poller stopped")
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	p.runLogged(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runLogged(ctx)
		}
	}
}

func (p *Poller) runLogged(ctx context.Context) {
	if _, err := p.RunCycle(ctx); err != nil && ctx.Err() == nil {
		p.logger.Error("poll cycle failed", "error", err)
	}
}

// RunCycle polls every open match once with at most workers matches in flight.
// Per-match failures are logged and counted; they never abort the cycle.
func (p *Poller) RunCycle(ctx context.Context) (*CycleSummary, error) {
	ctx, cycleID := observability.WithCycleID(ctx)
	start := time.Now()
	summary := &CycleSummary{CycleID: cycleID}

	open, err := p.matchRepo.ListOpenMatches(ctx)
	if err != nil {
		return summary, err
	}
	summary.Matches = len(open)

	var failed, busy, events, delivered atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, m := range open {
		matchID := m.MatchID
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			result, err := p.matches.PollMatch(gctx, matchID)

			var evs []domain.Event
			var reports []domain.DeliveryReport
			if result != nil {
				evs, reports = result.Events, result.Reports
				events.Add(int64(len(evs)))
				delivered.Add(int64(result.Delivered()))
				if result.BuildErr != nil {
					p.logger.WarnContext(gctx, "notifications partially built", "match_id", matchID, "error", result.BuildErr)
				}
			}
			p.metrics.observePoll(err, evs, reports)

			switch {
			case err == nil:
			case errors.Is(err, domain.ErrMatchBusy):
				busy.Add(1)
				p.logger.DebugContext(gctx, "match busy, skipped", "match_id", matchID)
			default:
				failed.Add(1)
				p.logger.ErrorContext(gctx, "match poll failed",
					"match_id", matchID,
					"stage", domain.StageOf(err),
					"error", err)
			}
			return nil
		})
	}
	g.Wait()

	summary.Failed = int(failed.Load())
	summary.Busy = int(busy.Load())
	summary.Events = int(events.Load())
	summary.Delivered = int(delivered.Load())
	summary.Duration = time.Since(start)

	if p.metrics != nil {
		p.metrics.cycles.Inc()
		p.metrics.openMatches.Set(float64(summary.Matches))
		p.metrics.cycleDuration.Observe(summary.Duration.Seconds())
	}

	p.logger.InfoContext(ctx, "poll cycle finished",
		"matches", summary.Matches,
		"failed", summary.Failed,
		"busy", summary.Busy,
		"events", summary.Events,
		"delivered", summary.Delivered,
		"duration", summary.Duration)

	return summary, ctx.Err()
}
