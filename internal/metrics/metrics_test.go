// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/ws/stats", "200"))
	RecordAPIRequest("GET", "/api/v1/ws/stats", "200", 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/ws/stats", "200"))

	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("after dec = %v, want %v", got, before)
	}
}

func TestRecordBroadcast(t *testing.T) {
	sent := testutil.ToFloat64(WSBroadcastDeliveries.WithLabelValues("sent"))
	failed := testutil.ToFloat64(WSBroadcastDeliveries.WithLabelValues("failed"))
	skipped := testutil.ToFloat64(WSBroadcastDeliveries.WithLabelValues("skipped"))

	RecordBroadcast(4, 1, 2)

	if d := testutil.ToFloat64(WSBroadcastDeliveries.WithLabelValues("sent")) - sent; d != 4 {
		t.Errorf("sent delta = %v, want 4", d)
	}
	if d := testutil.ToFloat64(WSBroadcastDeliveries.WithLabelValues("failed")) - failed; d != 1 {
		t.Errorf("failed delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(WSBroadcastDeliveries.WithLabelValues("skipped")) - skipped; d != 2 {
		t.Errorf("skipped delta = %v, want 2", d)
	}
}

func TestGauges(t *testing.T) {
	SetActiveConnections(7)
	if got := testutil.ToFloat64(WSConnections); got != 7 {
		t.Errorf("websocket_connections = %v, want 7", got)
	}

	SetActiveRooms(3)
	if got := testutil.ToFloat64(WSRooms); got != 3 {
		t.Errorf("websocket_rooms = %v, want 3", got)
	}

	SetBridgeRunning(true)
	if got := testutil.ToFloat64(BridgeRunning); got != 1 {
		t.Errorf("event_bridge_running = %v, want 1", got)
	}
	SetBridgeRunning(false)
	if got := testutil.ToFloat64(BridgeRunning); got != 0 {
		t.Errorf("event_bridge_running = %v, want 0", got)
	}
}

func TestRecordProxyMetrics(t *testing.T) {
	before := testutil.ToFloat64(ProxyRequestsTotal.WithLabelValues("/api/chat", "504"))
	RecordProxyRequest("/api/chat", 504, 120*time.Millisecond)
	if d := testutil.ToFloat64(ProxyRequestsTotal.WithLabelValues("/api/chat", "504")) - before; d != 1 {
		t.Errorf("proxy_requests_total delta = %v, want 1", d)
	}

	errBefore := testutil.ToFloat64(ProxyUpstreamErrors.WithLabelValues("/api/chat", "timeout"))
	RecordProxyUpstreamError("/api/chat", "timeout")
	if d := testutil.ToFloat64(ProxyUpstreamErrors.WithLabelValues("/api/chat", "timeout")) - errBefore; d != 1 {
		t.Errorf("proxy_upstream_errors_total delta = %v, want 1", d)
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	RecordBreakerTransition("proxy:/api/chat", "closed", "open", BreakerOpen)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("proxy:/api/chat")); got != BreakerOpen {
		t.Errorf("circuit_breaker_state = %v, want %d", got, BreakerOpen)
	}
}

func TestRecordCounters(t *testing.T) {
	authBefore := testutil.ToFloat64(WSAuthFailures.WithLabelValues("token_expired"))
	RecordAuthFailure("token_expired")
	if d := testutil.ToFloat64(WSAuthFailures.WithLabelValues("token_expired")) - authBefore; d != 1 {
		t.Errorf("auth failure delta = %v", d)
	}

	bridgeBefore := testutil.ToFloat64(BridgeDeliveries.WithLabelValues("auth", "dropped"))
	RecordBridgeDelivery("auth", "dropped")
	if d := testutil.ToFloat64(BridgeDeliveries.WithLabelValues("auth", "dropped")) - bridgeBefore; d != 1 {
		t.Errorf("bridge delivery delta = %v", d)
	}

	hbBefore := testutil.ToFloat64(WSHeartbeatTerminations)
	RecordHeartbeatTermination()
	if d := testutil.ToFloat64(WSHeartbeatTerminations) - hbBefore; d != 1 {
		t.Errorf("heartbeat termination delta = %v", d)
	}
}
