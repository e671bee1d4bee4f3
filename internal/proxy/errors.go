// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package proxy

import "errors"

var (
	// ErrInvalidTarget is returned when a route target is not an absolute
	// http(s) URL.
	ErrInvalidTarget = errors.New("invalid proxy target")

	// ErrInvalidRewrite is returned when a rewrite pattern does not compile.
	ErrInvalidRewrite = errors.New("invalid rewrite rule")

	// ErrCircuitOpen is returned by the breaker transport while the upstream
	// circuit is open or saturated in the half-open state.
	ErrCircuitOpen = errors.New("upstream circuit open")
)
