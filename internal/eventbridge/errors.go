// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package eventbridge

import "errors"

// ErrInvalidEvent is returned when a delivery body cannot be decoded into
// a broker event or carries no routing key.
var ErrInvalidEvent = errors.New("invalid broker event")

// ErrRoutingPanic wraps a panic recovered while routing a delivery.
var ErrRoutingPanic = errors.New("panic while routing event")

// ErrNilBroker is returned by New when no broker is supplied.
var ErrNilBroker = errors.New("broker cannot be nil")

// ErrNilRooms is returned by New when no room broadcaster is supplied.
var ErrNilRooms = errors.New("room broadcaster cannot be nil")
