// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

/*
Package services adapts gateway components to suture.Service.

  - GatewayService: ListenAndServe plus the ordered gateway shutdown
  - BridgeService: best-effort event bridge start, retried by supervisor backoff
  - EmbeddedNATSService: health polling and restart of the in-process NATS server

Each wrapper depends on a small interface rather than the concrete
package, so tests use hand-written doubles. Every Serve returns ctx.Err()
after a clean shutdown and a wrapped error on failure, which suture treats
as a restart request.
*/
package services
