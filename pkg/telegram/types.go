package telegram

import (
	"encoding/json"
	"strings"
)

// User is a Telegram user or bot.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Message is the subset of a Telegram message the relay reads.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

// Update is one entry returned by getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// InboundMessage is a text message ready for the relay.
type InboundMessage struct {
	UpdateID  int64
	MessageID int64
	ChatID    int64
	UserID    int64
	Text      string
	IsCommand bool
}

// Inbound extracts the text message carried by u. ok is false for updates
// without a text message, such as stickers, edits or channel posts without
// a sender.
func (u Update) Inbound() (msg InboundMessage, ok bool) {
	if u.Message == nil || u.Message.From == nil || u.Message.Text == "" {
		return InboundMessage{}, false
	}
	return InboundMessage{
		UpdateID:  u.UpdateID,
		MessageID: u.Message.MessageID,
		ChatID:    u.Message.Chat.ID,
		UserID:    u.Message.From.ID,
		Text:      u.Message.Text,
		IsCommand: strings.HasPrefix(u.Message.Text, "/"),
	}, true
}

// Command returns the lower-cased command name without the leading slash
// or an "@botname" suffix, e.g. "/Clear@my_bot now" yields "clear". It is
// empty for non-command messages.
func (m InboundMessage) Command() string {
	if !m.IsCommand {
		return ""
	}
	name := strings.TrimPrefix(strings.Fields(m.Text)[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

// response is the Bot API envelope.
type response struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters,omitempty"`
}

type sendMessageRequest struct {
	ChatID          int64            `json:"chat_id"`
	Text            string           `json:"text"`
	ReplyParameters *replyParameters `json:"reply_parameters,omitempty"`
}

type replyParameters struct {
	MessageID                int64 `json:"message_id"`
	AllowSendingWithoutReply bool  `json:"allow_sending_without_reply"`
}

type sendChatActionRequest struct {
	ChatID int64  `json:"chat_id"`
	Action string `json:"action"`
}
