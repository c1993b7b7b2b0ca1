package secrets

import (
	"context"
	"errors"
)

// Well-known secret names, used as file names inside a secrets directory.
const (
	TelegramToken = "telegram_token"
	APIKey        = "api_key"
)

// ErrNotFound is returned when a secret does not exist in the backend.
var ErrNotFound = errors.New("secret not found")

// SecretProvider retrieves secrets from a backend.
type SecretProvider interface {
	// GetSecret retrieves a secret by name. A missing secret returns an
	// error wrapping ErrNotFound.
	GetSecret(ctx context.Context, name string) (string, error)

	// Provider returns the provider name.
	Provider() string
}

// RefreshableProvider can reload secrets without restart.
type RefreshableProvider interface {
	SecretProvider

	// Refresh drops cached values so the next GetSecret re-reads them.
	Refresh(ctx context.Context) error
}
