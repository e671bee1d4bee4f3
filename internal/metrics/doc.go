// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

/*
Package metrics provides Prometheus metrics collection and export for observability.

Collectors are registered with the default registry through promauto and are
exposed at /metrics by the API router:

	curl http://localhost:8080/metrics

# Available Metrics

HTTP:
  - api_requests_total{method,endpoint,status_code}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests
  - api_rate_limit_hits_total{endpoint}

WebSocket:
  - websocket_connections, websocket_connections_accepted_total
  - websocket_auth_failures_total{reason}
  - websocket_rooms
  - websocket_messages_sent_total, websocket_messages_received_total{type}
  - websocket_broadcast_deliveries_total{result}
  - websocket_heartbeat_terminations_total
  - websocket_errors_total{error_type}

Event bridge:
  - event_bridge_deliveries_total{prefix,outcome}
  - event_bridge_running

Proxy:
  - proxy_requests_total{route,status_code}
  - proxy_request_duration_seconds{route}
  - proxy_upstream_errors_total{route,kind}
  - circuit_breaker_state{name}, circuit_breaker_transitions_total{name,from,to}

The Record* helpers are the intended entry points; callers never touch
label values directly.
*/
package metrics
