// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

/*
Package api builds the gateway's HTTP handler tree with the Chi router.

Routes:

	GET  {ws_path}, {ws_path}/*      WebSocket upgrade (token in ?token=)
	GET  /api/v1/health/live         liveness, always 200
	GET  /api/v1/health/ready        200 once the listener is up
	GET  /api/v1/health/bridge       event bridge status, 503 while down
	GET  /api/v1/ws/stats            connection and room counts
	GET  /api/v1/ws/rooms/{name}     member count and type of one room
	GET  /metrics                    Prometheus exposition
	*    {prefix}, {prefix}/*        streaming proxy per configured route

Global middleware, in order: request ID, Recoverer, Prometheus metrics,
CORS. RealIP applies to the upgrade and operational routes only; proxy
mounts keep the TCP peer so X-Forwarded-For and X-Real-IP sent upstream
cannot be forged. Operational endpoints and proxied routes are rate
limited per client IP with go-chi/httprate; upgrades are not.

Operational responses share one JSON envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}

Proxied responses are relayed untouched and never wrapped.
*/
package api
