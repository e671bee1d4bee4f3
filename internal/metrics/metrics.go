// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_connections_accepted_total",
			Help: "Total number of accepted WebSocket connections",
		},
	)

	WSAuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_auth_failures_total",
			Help: "Total number of rejected WebSocket upgrades by reason",
		},
		[]string{"reason"},
	)

	WSRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_rooms",
			Help: "Current number of non-empty rooms",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received by type",
		},
		[]string{"type"},
	)

	WSBroadcastDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_broadcast_deliveries_total",
			Help: "Per-member broadcast delivery outcomes (sent, failed, skipped)",
		},
		[]string{"result"},
	)

	WSHeartbeatTerminations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_heartbeat_terminations_total",
			Help: "Total number of connections terminated for missing heartbeats",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Event Bridge Metrics
	BridgeDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_bridge_deliveries_total",
			Help: "Broker deliveries handled by the event bridge by prefix and outcome",
		},
		[]string{"prefix", "outcome"}, // outcome: routed, dropped, nacked
	)

	BridgeRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_bridge_running",
			Help: "Whether the event bridge subscriptions are open (1) or not (0)",
		},
	)

	// Proxy Metrics
	ProxyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxy_requests_total",
			Help: "Total number of proxied requests",
		},
		[]string{"route", "status_code"},
	)

	ProxyRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proxy_request_duration_seconds",
			Help:    "Time until the upstream response headers were relayed",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"route"},
	)

	ProxyUpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxy_upstream_errors_total",
			Help: "Total number of upstream failures by kind (timeout, unavailable, circuit_open, canceled)",
		},
		[]string{"route", "kind"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts a rate limit rejection.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// SetActiveConnections publishes the current connection count.
func SetActiveConnections(n int) {
	WSConnections.Set(float64(n))
}

// RecordConnectionAccepted counts a completed WebSocket handshake.
func RecordConnectionAccepted() {
	WSConnectionsTotal.Inc()
}

// RecordAuthFailure counts a rejected upgrade.
func RecordAuthFailure(reason string) {
	WSAuthFailures.WithLabelValues(reason).Inc()
}

// SetActiveRooms publishes the current room count.
func SetActiveRooms(n int) {
	WSRooms.Set(float64(n))
}

// RecordMessageSent counts an outbound frame.
func RecordMessageSent() {
	WSMessagesSent.Inc()
}

// RecordMessageReceived counts an inbound client message by type.
func RecordMessageReceived(msgType string) {
	WSMessagesReceived.WithLabelValues(msgType).Inc()
}

// RecordBroadcast records per-member outcomes of one room broadcast.
func RecordBroadcast(sent, failed, skipped int) {
	if sent > 0 {
		WSBroadcastDeliveries.WithLabelValues("sent").Add(float64(sent))
	}
	if failed > 0 {
		WSBroadcastDeliveries.WithLabelValues("failed").Add(float64(failed))
	}
	if skipped > 0 {
		WSBroadcastDeliveries.WithLabelValues("skipped").Add(float64(skipped))
	}
}

// RecordHeartbeatTermination counts a connection terminated by the heartbeat monitor.
func RecordHeartbeatTermination() {
	WSHeartbeatTerminations.Inc()
}

// RecordWSError counts a WebSocket error by type.
func RecordWSError(errorType string) {
	WSErrors.WithLabelValues(errorType).Inc()
}

// RecordBridgeDelivery records how the event bridge handled one delivery.
func RecordBridgeDelivery(prefix, outcome string) {
	BridgeDeliveries.WithLabelValues(prefix, outcome).Inc()
}

// SetBridgeRunning publishes the bridge health signal.
func SetBridgeRunning(running bool) {
	if running {
		BridgeRunning.Set(1)
		return
	}
	BridgeRunning.Set(0)
}

// RecordProxyRequest records a proxied request outcome.
func RecordProxyRequest(route string, statusCode int, duration time.Duration) {
	ProxyRequestsTotal.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	ProxyRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordProxyUpstreamError counts an upstream failure.
func RecordProxyUpstreamError(route, kind string) {
	ProxyUpstreamErrors.WithLabelValues(route, kind).Inc()
}

// Circuit breaker state values for CircuitBreakerState.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

// RecordBreakerTransition updates the breaker gauge and transition counter.
func RecordBreakerTransition(name, from, to string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}
