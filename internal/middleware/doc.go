// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

/*
Package middleware provides HTTP middleware shared by the gateway router.

Key Components:

  - RequestID: assigns or propagates X-Request-ID and seeds the logging context
  - PrometheusMetrics: request count, latency and in-flight instrumentation

Both are chi-compatible (func(http.Handler) http.Handler):

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

The request ID is written back onto the inbound request headers, so
proxied upstreams receive the same X-Request-ID the client sees.

The metrics wrapper keeps http.Hijacker, http.Flusher and Unwrap working.
WebSocket upgrades therefore pass through it, and streamed proxy bodies are
flushed as they arrive. Hijacked requests are recorded with status 101.
Endpoint labels use the chi route pattern so path parameters do not
create new series.

There is no compression middleware: gzip buffering would defeat the
streaming proxy and is irrelevant to upgraded connections.
*/
package middleware
