// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package auth

import "errors"

var (
	// ErrMissingToken is returned when the upgrade URL carries no token.
	ErrMissingToken = errors.New("missing token")

	// ErrTokenInvalid is returned for a malformed token, a bad signature
	// or an unexpected signing method.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned when the exp claim has elapsed.
	ErrTokenExpired = errors.New("token expired")

	// ErrPayloadInvalid is returned when the verified payload fails validation.
	ErrPayloadInvalid = errors.New("invalid token payload")
)

// Reason returns a short label for an authentication error, suitable for
// metric labels and log fields.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrPayloadInvalid):
		return "payload_invalid"
	case errors.Is(err, ErrTokenInvalid):
		return "token_invalid"
	default:
		return "unknown"
	}
}
