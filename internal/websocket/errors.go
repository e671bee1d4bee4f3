// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package websocket

import "errors"

var (
	// ErrConnectionClosed is returned when sending on a closed transport.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrSendBufferFull is returned when a slow client's send queue is full.
	ErrSendBufferFull = errors.New("send buffer full")
)
