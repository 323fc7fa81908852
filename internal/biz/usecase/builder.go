package usecase

import (
	"errors"
	"fmt"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/biz/repo"
)

// Template keys that are not plain event kinds
const (
	TemplateSuggestionOwn   = "scheduling_suggestion_own"
	TemplateSuggestionEnemy = "scheduling_suggestion_enemy"
	TemplateOverviewEmpty   = "overview_empty"
)

// PinSupport reports which platforms can pin messages
type PinSupport interface {
	SupportsPin(platform domain.Platform) bool
}

// NotificationBuilder renders events into per-channel payloads
type NotificationBuilder struct {
	renderer      repo.Renderer
	pins          PinSupport
	defaultLocale string
}

// NewNotificationBuilder creates a new notification builder
func NewNotificationBuilder(renderer repo.Renderer, pins PinSupport, defaultLocale string) *NotificationBuilder {
	return &NotificationBuilder{
		renderer:      renderer,
		pins:          pins,
		defaultLocale: defaultLocale,
	}
}

// TemplateKey returns the template table key for an event
func TemplateKey(event domain.Event) string {
	switch event.Kind {
	case domain.EventSuggestion:
		if event.Context.OwnSuggestion {
			return TemplateSuggestionOwn
		}
		return TemplateSuggestionEnemy
	case domain.EventOverview:
		if len(event.Context.Games) == 0 {
			return TemplateOverviewEmpty
		}
	}
	return string(event.Kind)
}

// Build returns one payload per subscription that enabled the event kind.
// A render failure skips that subscription only; all failures are joined
// into the returned error.
func (b *NotificationBuilder) Build(event domain.Event, subs []*domain.TeamSubscription) ([]domain.NotificationPayload, error) {
	key := TemplateKey(event)
	rendered := make(map[string]string)

	var payloads []domain.NotificationPayload
	var errs []error
	for _, sub := range subs {
		if sub == nil || !sub.Wants(event.Kind) {
			continue
		}

		locale := b.localeFor(sub)
		text, ok := rendered[locale]
		if !ok {
			var err error
			text, err = b.renderer.Render(key, locale, event.Context)
			if err != nil {
				errs = append(errs, fmt.Errorf("render %s for channel %s: %w", key, sub.ChannelID, err))
				continue
			}
			rendered[locale] = text
		}

		payloads = append(payloads, domain.NotificationPayload{
			ChannelID:   sub.ChannelID,
			Platform:    sub.Platform,
			Text:        text,
			Mentionable: event.Kind.Mentionable(),
			Pinnable:    sub.WantsPin(event.Kind) && b.pins != nil && b.pins.SupportsPin(sub.Platform),
			EventKind:   event.Kind,
			MatchID:     event.MatchID,
			SequenceID:  event.SequenceID,
		})
	}
	return payloads, errors.Join(errs...)
}

func (b *NotificationBuilder) localeFor(sub *domain.TeamSubscription) string {
	if sub.Locale != "" && b.renderer.HasLocale(sub.Locale) {
		return sub.Locale
	}
	return b.defaultLocale
}
