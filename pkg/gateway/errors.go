package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"mercator-hq/chatrelay/pkg/providers"
)

// Kind is the stable, machine-readable category of a failed completion.
type Kind string

const (
	// KindTransport covers connection failures, cancelled requests and
	// unexpected provider status codes.
	KindTransport Kind = "transport"

	// KindAuth means the provider rejected the API key.
	KindAuth Kind = "auth"

	// KindTimeout means no response arrived within the request timeout, or
	// no outbound slot freed up within the pool timeout.
	KindTimeout Kind = "timeout"

	// KindMalformedResponse means the response envelope could not be
	// decoded or carried no choices.
	KindMalformedResponse Kind = "malformed_response"

	// KindRateLimited means the provider throttled the request.
	KindRateLimited Kind = "rate_limited"
)

// Error is returned by Complete for every failure. Detail is short and safe
// to show to end users; Err keeps the full provider error for logging.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

// Error implements the error interface as "kind: detail".
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Unwrap returns the underlying provider error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps an error from a provider into a gateway Error. An error that
// already is a gateway Error is returned unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}

	var authErr *providers.AuthError
	if errors.As(err, &authErr) {
		return &Error{Kind: KindAuth, Detail: "the provider rejected the API key", Err: err}
	}

	var rateLimitErr *providers.RateLimitError
	if errors.As(err, &rateLimitErr) {
		detail := "the provider is throttling requests"
		if rateLimitErr.RetryAfter > 0 {
			detail = fmt.Sprintf("%s, retry after %s", detail, rateLimitErr.RetryAfter)
		}
		return &Error{Kind: KindRateLimited, Detail: detail, Err: err}
	}

	var timeoutErr *providers.TimeoutError
	if errors.As(err, &timeoutErr) {
		detail := "no response from the provider in time"
		if timeoutErr.Timeout > 0 {
			detail = fmt.Sprintf("no response from the provider within %s", timeoutErr.Timeout)
		}
		return &Error{Kind: KindTimeout, Detail: detail, Err: err}
	}

	var parseErr *providers.ParseError
	if errors.As(err, &parseErr) {
		return &Error{Kind: KindMalformedResponse, Detail: "the provider response could not be decoded", Err: err}
	}

	var providerErr *providers.ProviderError
	if errors.As(err, &providerErr) {
		return &Error{Kind: KindTransport, Detail: providerDetail(providerErr), Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Detail: "no response from the provider in time", Err: err}
	}

	return &Error{Kind: KindTransport, Detail: "the provider request failed", Err: err}
}

// providerDetail summarizes a ProviderError without echoing the response
// body, which may quote request content back.
func providerDetail(err *providers.ProviderError) string {
	switch {
	case err.StatusCode >= 500:
		return fmt.Sprintf("the provider is unavailable (status %d)", err.StatusCode)
	case err.StatusCode == http.StatusNotFound:
		return "the model or endpoint was not found (status 404)"
	case err.StatusCode > 0:
		return fmt.Sprintf("the provider refused the request (status %d)", err.StatusCode)
	case errors.Is(err, context.Canceled):
		return "the request was cancelled"
	default:
		return "could not reach the provider"
	}
}
