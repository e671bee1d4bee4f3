// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package eventbridge

import "context"

// Delivery is one message handed to a subscription handler. Exactly one of
// Ack or Nack takes effect; later calls are no-ops.
type Delivery interface {
	// RoutingKey is the key the message was published with, if the
	// transport exposes it. May be empty.
	RoutingKey() string
	Body() []byte
	Ack() error
	Nack() error
}

// DeliveryHandler processes one delivery and settles it.
type DeliveryHandler func(ctx context.Context, d Delivery)

// Subscription is an open consumer on a queue.
type Subscription interface {
	Close() error
}

// Broker is the topic-routed message broker the bridge consumes from.
type Broker interface {
	// Connect opens the broker connection.
	Connect(ctx context.Context) error

	// Subscribe binds queue to exchange with a wildcard routing-key pattern
	// (# matches zero or more segments, * exactly one) and starts
	// delivering to handler until the subscription is closed.
	Subscribe(ctx context.Context, exchange, pattern, queue string, handler DeliveryHandler) (Subscription, error)

	// Close releases the broker connection. Safe to call when not connected.
	Close() error
}
