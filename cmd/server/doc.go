// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

/*
Command server runs Relaygate, a single listener that serves three things:

  - authenticated WebSocket connections on WS_PATH (default /ws), grouped
    into user, role, payment and custom rooms
  - streaming reverse proxy routes mounted from the proxy.routes list
  - operational endpoints under /api/v1 and Prometheus metrics on /metrics

When BROKER_ENABLED=true, platform events consumed from NATS JetStream are
routed into rooms by the event bridge. NATS_EMBEDDED=true runs the broker
inside the process.

# Startup

 1. Configuration: .env, config.yaml and environment variables (Koanf v2)
 2. Logging: zerolog, optionally mirrored to a rotating file
 3. Connection server, room and connection registries
 4. Proxy routes, each with its own transport and optional circuit breaker
 5. Embedded NATS server and event bridge (if enabled)
 6. Supervisor tree (suture v4), which runs until SIGINT or SIGTERM

# Shutdown

On SIGINT or SIGTERM the gateway stops the event bridge, stops the
heartbeat monitor, closes every connection with 1001 (going away), clears
the rooms and then drains the HTTP listener within SHUTDOWN_TIMEOUT.

# Example

	export JWT_SECRET=$(openssl rand -base64 48)
	export CORS_ORIGINS=https://app.example.com
	export NATS_URL=nats://nats:4222
	./relaygate
*/
package main
