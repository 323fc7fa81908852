package feishu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
)

// ErrUnreachable marks chats the app bot is not a member of
var ErrUnreachable = errors.New("feishu chat unreachable")

// Error codes for chats the bot cannot post to
var unreachableCodes = map[int]bool{
	230002: true, // bot not in chat
	230006: true, // bot ability not activated
	230013: true, // no availability to this user
}

// APIError is a non-success response of the open platform
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("feishu api error %d: %s", e.Code, e.Msg)
}

// Client is a send-only Feishu app bot client
type Client struct {
	larkCli *lark.Client
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string) *Client {
	return &Client{larkCli: lark.NewClient(appID, appSecret)}
}

// SendText sends a text message to a chat and returns the message id.
// Mentioning prepends the @all tag.
func (c *Client) SendText(ctx context.Context, chatID, text string, mentionAll bool) (string, error) {
	if mentionAll {
		text = `<at user_id="all">@all</at> ` + text
	}
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", err
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(content)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return "", classify(resp.Code, resp.Msg)
	}

	if resp.Data == nil || resp.Data.MessageId == nil {
		return "", nil
	}
	return *resp.Data.MessageId, nil
}

func classify(code int, msg string) error {
	apiErr := &APIError{Code: code, Msg: msg}
	if unreachableCodes[code] {
		return fmt.Errorf("%w: %v", ErrUnreachable, apiErr)
	}
	return apiErr
}
