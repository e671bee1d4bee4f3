// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

/*
Package config provides centralized configuration management for Relaygate.

Configuration is layered with Koanf v2. Each layer overrides the previous one:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/relaygate/config.yaml)
 3. Mapped environment variables

A .env file in the working directory is read into the process environment
by Load before the layers are applied.

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT: listener address (default: 0.0.0.0:8080)
  - HTTP_READ_HEADER_TIMEOUT, HTTP_IDLE_TIMEOUT, SHUTDOWN_TIMEOUT
  - ENVIRONMENT: development, staging or production

Security:
  - JWT_SECRET: HS256 secret used to verify WebSocket tokens (required)
  - CORS_ORIGINS: comma-separated allowed origins (default: *)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

WebSocket:
  - WS_PATH (default: /ws)
  - WS_HEARTBEAT_INTERVAL (default: 30s)
  - WS_WRITE_WAIT, WS_HANDSHAKE_TIMEOUT, WS_MAX_MESSAGE_SIZE, WS_SEND_BUFFER
  - WS_INBOUND_RATE, WS_INBOUND_BURST: per-connection inbound message limit
  - WS_MAX_ROOMS: rooms per connection, auto-joined included (default: 100, 0 = unlimited)

Event bridge:
  - BROKER_ENABLED, NATS_URL, NATS_EMBEDDED, NATS_STORE_DIR, NATS_STREAM_NAME
  - BROKER_EXCHANGE (default: platform.events)
  - BROKER_QUEUE_PREFIX (default: gateway)
  - BROKER_MAX_DELIVER, BROKER_ACK_WAIT, BROKER_RECONNECT_WAIT, BROKER_CLOSE_TIMEOUT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER, LOG_FILE

Proxy routes are lists of nested objects and are read from the YAML file only:

	proxy:
	  routes:
	    - prefix: /api/chat
	      target: http://chat-service:3000
	      timeout: 60s
	      rewrite:
	        - pattern: "^/api/chat"
	          replacement: "/chat"
	      breaker:
	        enabled: true
	        failure_threshold: 5

# Validation

Validate rejects a missing JWT secret, wildcard CORS origins in production,
malformed proxy targets, uncompilable rewrite patterns and duplicate or
colliding route prefixes. Validation errors name the offending variable.
*/
package config
