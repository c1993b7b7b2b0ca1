package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

// MaxMessageLength is Telegram's limit on message text, counted in UTF-16
// code units.
const MaxMessageLength = 4096

// ChatActionTyping shows the "typing…" indicator.
const ChatActionTyping = "typing"

// Client is a minimal Telegram Bot API client covering long polling,
// plain-text replies and chat actions.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the bot identified by token. apiBase is
// the API root such as "https://api.telegram.org". requestTimeout must
// exceed the long-poll timeout.
func NewClient(apiBase, token string, requestTimeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(apiBase, "/") + "/bot" + token,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// GetUpdates long-polls for updates with id >= offset, waiting up to
// timeout on the server side.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(int(timeout/time.Second)))
	params.Set("allowed_updates", `["message"]`)

	var updates []Update
	if err := c.call(ctx, http.MethodGet, "getUpdates", params, nil, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends text as plain text to chatID, truncated to
// MaxMessageLength UTF-16 code units. A non-zero replyTo quotes that message; the
// reply is still delivered if the original was deleted.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyTo int64) error {
	req := sendMessageRequest{
		ChatID: chatID,
		Text:   truncate(text, MaxMessageLength),
	}
	if replyTo != 0 {
		req.ReplyParameters = &replyParameters{MessageID: replyTo, AllowSendingWithoutReply: true}
	}
	return c.call(ctx, http.MethodPost, "sendMessage", nil, req, nil)
}

// SendChatAction shows a chat action such as ChatActionTyping.
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return c.call(ctx, http.MethodPost, "sendChatAction", nil, sendChatActionRequest{ChatID: chatID, Action: action}, nil)
}

// GetMe returns the bot's own user. It doubles as a credentials check.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, http.MethodGet, "getMe", nil, nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

func (c *Client) call(ctx context.Context, httpMethod, method string, params url.Values, body any, result any) error {
	endpoint := c.baseURL + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", method, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, stripURL(err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s request failed: %w", method, stripURL(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, stripURL(err))
	}

	var envelope response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to parse %s response (status %d): %w", method, resp.StatusCode, err)
	}

	if !envelope.OK {
		apiErr := &APIError{
			Method:      method,
			StatusCode:  resp.StatusCode,
			ErrorCode:   envelope.ErrorCode,
			Description: envelope.Description,
		}
		if envelope.Parameters != nil && envelope.Parameters.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(envelope.Parameters.RetryAfter) * time.Second
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("failed to parse %s result: %w", method, err)
		}
	}
	return nil
}

// truncate cuts s to at most maxUnits UTF-16 code units without splitting a
// surrogate pair.
func truncate(s string, maxUnits int) string {
	units := 0
	for i, r := range s {
		n := utf16.RuneLen(r)
		if units+n > maxUnits {
			return s[:i]
		}
		units += n
	}
	return s
}
