package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/biz/repo"
)

// Announcer builds and dispatches notifications for events
type Announcer struct {
	teamRepo   repo.TeamRepo
	builder    *NotificationBuilder
	dispatcher *Dispatcher
}

// NewAnnouncer creates a new announcer
func NewAnnouncer(teamRepo repo.TeamRepo, builder *NotificationBuilder, dispatcher *Dispatcher) *Announcer {
	return &Announcer{
		teamRepo:   teamRepo,
		builder:    builder,
		dispatcher: dispatcher,
	}
}

// Build renders the payloads for events without sending them.
// Failures for one event or channel do not stop the others.
func (a *Announcer) Build(ctx context.Context, events []domain.Event) ([]domain.NotificationPayload, error) {
	subsByTeam := make(map[int64][]*domain.TeamSubscription)

	var payloads []domain.NotificationPayload
	var errs []error
	for _, event := range events {
		subs, ok := subsByTeam[event.TeamID]
		if !ok {
			var err error
			subs, err = a.teamRepo.LoadSubscriptions(ctx, event.TeamID)
			if err != nil {
				errs = append(errs, fmt.Errorf("load subscriptions of team %d: %w", event.TeamID, err))
				continue
			}
			subsByTeam[event.TeamID] = subs
		}

		built, err := a.builder.Build(event, subs)
		if err != nil {
			errs = append(errs, err)
		}
		payloads = append(payloads, built...)
	}
	return payloads, errors.Join(errs...)
}

// Announce builds and dispatches. Build errors are returned alongside
// the delivery reports of everything that could be built.
func (a *Announcer) Announce(ctx context.Context, events []domain.Event) ([]domain.DeliveryReport, error) {
	payloads, buildErr := a.Build(ctx, events)
	if len(payloads) == 0 {
		return nil, buildErr
	}
	return a.dispatcher.Dispatch(ctx, payloads), buildErr
}
