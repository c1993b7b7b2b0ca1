package conversation

import "fmt"

// Key identifies a conversation by chat and user. Two keys are the same
// conversation exactly when both fields are equal.
type Key struct {
	ChatID int64
	UserID int64
}

// NewKey returns the key for a user in a chat.
func NewKey(chatID, userID int64) Key {
	return Key{ChatID: chatID, UserID: userID}
}

// String returns "chatID:userID", used as a log attribute.
func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.ChatID, k.UserID)
}
