package repo

import (
	"context"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
)

// ChannelRepo is implemented by every communication platform adapter
type ChannelRepo interface {
	Platform() domain.Platform

	// SupportsPin reports whether the platform can pin messages
	SupportsPin() bool

	// Send posts text to a channel. Failures are reported in the result.
	Send(ctx context.Context, channelID, text string, mentionable bool) domain.DeliveryResult

	// Pin pins a previously sent message, best effort
	Pin(ctx context.Context, channelID, messageRef string) bool
}
