package telegram

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// APIError is returned when the Bot API answers with ok=false.
type APIError struct {
	Method      string
	StatusCode  int
	ErrorCode   int
	Description string

	// RetryAfter is set when Telegram throttles the bot (error 429).
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed (%d): %s", e.Method, e.ErrorCode, e.Description)
}

// stripURL drops the request URL from transport errors. Bot API URLs embed
// the token.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
