package data

import (
	"context"
	"errors"
	"strconv"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/biz/repo"
	"github.com/leaguewatch/schedule-notifier/internal/infra/discord"
	"github.com/leaguewatch/schedule-notifier/internal/infra/feishu"
	"github.com/leaguewatch/schedule-notifier/internal/infra/telegram"
)

// TelegramAPI is the subset of the telegram client used for delivery
type TelegramAPI interface {
	SendText(ctx context.Context, chatID int64, text string, silent bool) (int, error)
	PinMessage(ctx context.Context, chatID int64, messageID int) error
}

// DiscordAPI is the subset of the discord client used for delivery
type DiscordAPI interface {
	SendText(ctx context.Context, channelID, text string, mention bool) (string, error)
	PinMessage(ctx context.Context, channelID, messageID string) error
}

// FeishuAPI is the subset of the feishu client used for delivery
type FeishuAPI interface {
	SendText(ctx context.Context, chatID, text string, mentionAll bool) (string, error)
}

var (
	_ TelegramAPI = (*telegram.Client)(nil)
	_ DiscordAPI  = (*discord.Client)(nil)
	_ FeishuAPI   = (*feishu.Client)(nil)
)

func result(ref string, err, unreachable error) domain.DeliveryResult {
	switch {
	case err == nil:
		return domain.DeliveryResult{Outcome: domain.Delivered, MessageRef: ref}
	case errors.Is(err, unreachable):
		return domain.DeliveryResult{Outcome: domain.ChannelUnreachable, Err: err}
	default:
		return domain.DeliveryResult{Outcome: domain.PlatformRejected, Err: err}
	}
}

type telegramChannel struct {
	api TelegramAPI
}

// NewTelegramChannel creates the telegram channel adapter.
// Non-mentionable messages are sent silently.
func NewTelegramChannel(api TelegramAPI) repo.ChannelRepo {
	return &telegramChannel{api: api}
}

func (c *telegramChannel) Platform() domain.Platform { return domain.PlatformTelegram }

func (c *telegramChannel) SupportsPin() bool { return true }

func (c *telegramChannel) Send(ctx context.Context, channelID, text string, mentionable bool) domain.DeliveryResult {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return domain.DeliveryResult{Outcome: domain.ChannelUnreachable, Err: err}
	}
	msgID, err := c.api.SendText(ctx, chatID, text, !mentionable)
	return result(strconv.Itoa(msgID), err, telegram.ErrUnreachable)
}

func (c *telegramChannel) Pin(ctx context.Context, channelID, messageRef string) bool {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return false
	}
	msgID, err := strconv.Atoi(messageRef)
	if err != nil {
		return false
	}
	return c.api.PinMessage(ctx, chatID, msgID) == nil
}

type discordChannel struct {
	api DiscordAPI
}

// NewDiscordChannel creates the discord channel adapter
func NewDiscordChannel(api DiscordAPI) repo.ChannelRepo {
	return &discordChannel{api: api}
}

func (c *discordChannel) Platform() domain.Platform { return domain.PlatformDiscord }

func (c *discordChannel) SupportsPin() bool { return true }

func (c *discordChannel) Send(ctx context.Context, channelID, text string, mentionable bool) domain.DeliveryResult {
	ref, err := c.api.SendText(ctx, channelID, text, mentionable)
	return result(ref, err, discord.ErrUnreachable)
}

func (c *discordChannel) Pin(ctx context.Context, channelID, messageRef string) bool {
	return c.api.PinMessage(ctx, channelID, messageRef) == nil
}

type feishuChannel struct {
	api FeishuAPI
}

// NewFeishuChannel creates the feishu channel adapter. Feishu messages are not pinned.
func NewFeishuChannel(api FeishuAPI) repo.ChannelRepo {
	return &feishuChannel{api: api}
}

func (c *feishuChannel) Platform() domain.Platform { return domain.PlatformFeishu }

func (c *feishuChannel) SupportsPin() bool { return false }

func (c *feishuChannel) Send(ctx context.Context, channelID, text string, mentionable bool) domain.DeliveryResult {
	ref, err := c.api.SendText(ctx, channelID, text, mentionable)
	return result(ref, err, feishu.ErrUnreachable)
}

func (c *feishuChannel) Pin(ctx context.Context, channelID, messageRef string) bool {
	return false
}
