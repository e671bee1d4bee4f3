// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

/*
Package eventbridge republishes platform events from the message broker
into WebSocket rooms.

Each entry of Routes binds one routing-key prefix to a durable queue
named "<queue prefix>.<route prefix>":

	payments.#  ->  user:<senderId|userId> and role:admin
	auth.#      ->  user:<userId>, dropped without userId
	admin.#     ->  role:admin
	user.#      ->  user:<userId>, dropped without userId

Routed and dropped deliveries are acked, even when some room members
could not be sent to. Malformed events and routing panics are nacked so
the broker redelivers them. Delivery is at least once
and the bridge does not deduplicate, so a redelivered event reaches its
rooms again.

The Broker interface hides the transport; eventprocessor provides the
Watermill/NATS JetStream implementation.
*/
package eventbridge
