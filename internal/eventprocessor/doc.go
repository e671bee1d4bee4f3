// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

// Package eventprocessor adapts Watermill subscribers to the event bridge's
// Broker contract and provides the NATS JetStream plumbing behind it.
//
// # Components
//
//   - WatermillBroker: one Watermill subscriber per queue, a consume loop per
//     subscription and exactly-once settlement of every delivery.
//   - NewNATSBroker: production factory. Connects to NATS, provisions the
//     event stream with StreamInitializer, and creates watermill-nats
//     JetStream subscribers bound to that stream.
//   - StreamInitializer: idempotent create-or-update of the JetStream stream.
//   - EmbeddedServer: in-process nats-server with JetStream for single-binary
//     development deployments.
//
// # Routing Keys
//
// Bindings use AMQP-style wildcards. SubjectForPattern translates them to
// NATS subjects:
//
//	payments.#       -> payments.>
//	auth.*.login     -> auth.*.login
//
// The subject a message was published on is exposed as the delivery's
// routing key.
//
// # Delivery Semantics
//
// Ack and Nack map to Watermill's msg.Ack and msg.Nack and fire at most
// once. A handler that settles neither is nacked when it returns. Redelivery
// after a nack is governed by the stream consumer (MaxDeliver, AckWait).
package eventprocessor
