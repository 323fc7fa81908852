package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// ErrUnreachable marks channels the bot cannot see or post to
var ErrUnreachable = errors.New("discord channel unreachable")

// Client is a REST-only Discord bot client. No gateway connection is opened.
type Client struct {
	session *discordgo.Session
}

// NewClient creates a client for the bot token
func NewClient(token string) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Client{session: session}, nil
}

// SendText posts a message. Only @everyone/@here pings are honored, and only when mention is set.
func (c *Client) SendText(ctx context.Context, channelID, text string, mention bool) (string, error) {
	data := &discordgo.MessageSend{
		Content:         text,
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}},
	}
	if mention {
		data.Content = "@here " + text
		data.AllowedMentions.Parse = []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeEveryone}
	}

	msg, err := c.session.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify(err)
	}
	return msg.ID, nil
}

// PinMessage pins a message in a channel
func (c *Client) PinMessage(ctx context.Context, channelID, messageID string) error {
	if err := c.session.ChannelMessagePin(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return classify(err)
	}
	return nil
}

// Close releases the session
func (c *Client) Close() error {
	return c.session.Close()
}

func classify(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return err
	}
	switch restErr.Response.StatusCode {
	case http.StatusForbidden, http.StatusNotFound:
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return err
}
