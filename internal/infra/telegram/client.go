package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrUnreachable marks chats the bot cannot post to
var ErrUnreachable = errors.New("telegram chat unreachable")

// Client is a send-only Telegram bot client
type Client struct {
	bot *tgbotapi.BotAPI
}

// NewClient authenticates the bot token
func NewClient(token string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &Client{bot: bot}, nil
}

// Username returns the bot's username
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// SendText posts a plain text message. Silent messages do not trigger a notification.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, silent bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	msg.DisableNotification = silent

	sent, err := c.bot.Send(msg)
	if err != nil {
		return 0, classify(err)
	}
	return sent.MessageID, nil
}

// PinMessage pins a message without notifying members
func (c *Client) PinMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := c.bot.Request(tgbotapi.PinChatMessageConfig{
		ChatID:              chatID,
		MessageID:           messageID,
		DisableNotification: true,
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// classify wraps errors for chats the bot was removed from or never joined
func classify(err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Code == http.StatusForbidden ||
		(apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "chat not found")) {
		return fmt.Errorf("%w: %s", ErrUnreachable, apiErr.Message)
	}
	return err
}
