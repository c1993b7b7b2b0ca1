// Package conversation defines the identity and message types shared by
// the history store, the rate limiter, and the relay service.
//
// A conversation is the exchange between one user and one chat, identified
// by Key. Key is a comparable value type and is used directly as a map key
// by every per-conversation registry.
package conversation
