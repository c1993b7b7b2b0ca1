// Package gateway is the synchronous adapter between conversations and the
// completion API.
//
// Complete passes the full ordered history to the provider, makes exactly
// one attempt, and reduces every failure to a *Error carrying a stable Kind
// (transport, auth, timeout, malformed_response, rate_limited) and a short
// detail that is safe to show to end users:
//
//	gw := gateway.New(provider, gateway.Config{MaxConcurrent: 8, PoolTimeout: 5 * time.Second}, logger, collector)
//	reply, err := gw.Complete(ctx, history, gateway.OptionsFromConfig(&cfg.Provider))
//	var gwErr *gateway.Error
//	if errors.As(err, &gwErr) && gwErr.Kind == gateway.KindTimeout { ... }
//
// A blank model reply is a success with empty text. Retries and fallback
// text are left to the caller.
package gateway
