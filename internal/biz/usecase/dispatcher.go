package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/biz/repo"
)

// Dispatcher delivers payloads through the registered platform adapters
type Dispatcher struct {
	channels map[domain.Platform]repo.ChannelRepo
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher for the given adapters
func NewDispatcher(logger *slog.Logger, channels ...repo.ChannelRepo) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		channels: make(map[domain.Platform]repo.ChannelRepo, len(channels)),
		logger:   logger.With("component", "dispatcher"),
	}
	for _, ch := range channels {
		if ch != nil {
			d.channels[ch.Platform()] = ch
		}
	}
	return d
}

// SupportsPin reports whether the platform adapter can pin messages
func (d *Dispatcher) SupportsPin(platform domain.Platform) bool {
	ch, ok := d.channels[platform]
	return ok && ch.SupportsPin()
}

// Platforms returns the registered platforms
func (d *Dispatcher) Platforms() []domain.Platform {
	platforms := make([]domain.Platform, 0, len(d.channels))
	for p := range d.channels {
		platforms = append(platforms, p)
	}
	return platforms
}

// Dispatch sends every payload and returns one report per payload, in
// input order. Payloads are grouped by platform; platforms are served
// concurrently, payloads of one platform in order. Delivery failures are
// recorded in the reports, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, payloads []domain.NotificationPayload) []domain.DeliveryReport {
	reports := make([]domain.DeliveryReport, len(payloads))

	groups := make(map[domain.Platform][]int)
	for i, p := range payloads {
		groups[p.Platform] = append(groups[p.Platform], i)
	}

	var wg sync.WaitGroup
	for platform, idx := range groups {
		ch, ok := d.channels[platform]
		if !ok {
			for _, i := range idx {
				reports[i] = domain.DeliveryReport{
					Payload: payloads[i],
					Outcome: domain.PlatformRejected,
					Err:     fmt.Errorf("no adapter for platform %q", platform),
				}
			}
			continue
		}

		wg.Add(1)
		go func(ch repo.ChannelRepo, idx []int) {
			defer wg.Done()
			for _, i := range idx {
				reports[i] = d.deliver(ctx, ch, payloads[i])
			}
		}(ch, idx)
	}
	wg.Wait()

	for i := range reports {
		r := &reports[i]
		if r.OK() {
			d.logger.DebugContext(ctx, "notification delivered",
				"platform", r.Payload.Platform, "channel_id", r.Payload.ChannelID, "kind", r.Payload.EventKind, "pinned", r.Pinned)
			continue
		}
		d.logger.WarnContext(ctx, "notification not delivered",
			"platform", r.Payload.Platform, "channel_id", r.Payload.ChannelID, "kind", r.Payload.EventKind,
			"outcome", r.Outcome, "error", r.Err)
	}
	return reports
}

func (d *Dispatcher) deliver(ctx context.Context, ch repo.ChannelRepo, payload domain.NotificationPayload) domain.DeliveryReport {
	report := domain.DeliveryReport{Payload: payload}
	if err := ctx.Err(); err != nil {
		report.Outcome = domain.ChannelUnreachable
		report.Err = err
		return report
	}

	res := ch.Send(ctx, payload.ChannelID, payload.Text, payload.Mentionable)
	report.Outcome = res.Outcome
	report.MessageRef = res.MessageRef
	report.Err = res.Err
	if report.Outcome == "" {
		report.Outcome = domain.PlatformRejected
	}

	if report.OK() && payload.Pinnable && ch.SupportsPin() && res.MessageRef != "" {
		report.Pinned = ch.Pin(ctx, payload.ChannelID, res.MessageRef)
		if !report.Pinned {
			d.logger.InfoContext(ctx, "pin failed", "platform", payload.Platform, "channel_id", payload.ChannelID)
		}
	}
	return report
}
