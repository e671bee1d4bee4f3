// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/relaygate/internal/eventbridge"
	"github.com/tomtom215/relaygate/internal/websocket"
)

// Handler serves the operational endpoints.
type Handler struct {
	gateway   Gateway
	bridge    BridgeHealth
	startTime time.Time
}

// NewHandler creates a handler. bridge may be nil when the event bridge
// is disabled.
func NewHandler(gateway Gateway, bridge BridgeHealth) *Handler {
	return &Handler{
		gateway:   gateway,
		bridge:    bridge,
		startTime: time.Now(),
	}
}

// HealthLive returns 200 while the process is alive, regardless of
// dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 200 once the listener is up and 503 before that and
// during shutdown. The event bridge does not affect readiness.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.gateway.Ready() {
		writeError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "gateway is not accepting connections")
		return
	}
	writeSuccess(w, r, http.StatusOK, map[string]interface{}{
		"ready":       true,
		"connections": h.gateway.Connections().Count(),
	})
}

// BridgeStatus is the body of the bridge health endpoint.
type BridgeStatus struct {
	Enabled bool `json:"enabled"`
	eventbridge.Health
}

// HealthBridge reports event bridge status: 503 while an enabled bridge
// is not running, 200 otherwise.
func (h *Handler) HealthBridge(w http.ResponseWriter, r *http.Request) {
	if h.bridge == nil {
		writeSuccess(w, r, http.StatusOK, BridgeStatus{Enabled: false})
		return
	}

	status := BridgeStatus{Enabled: true, Health: h.bridge.Health()}
	if !status.Running {
		writeJSON(w, http.StatusServiceUnavailable, APIResponse{
			Success: false,
			Data:    status,
			Error:   &APIError{Code: ErrCodeServiceUnavailable, Message: "event bridge is not running"},
			Meta:    newMeta(r),
		})
		return
	}
	writeSuccess(w, r, http.StatusOK, status)
}

// WebSocketStats is the body of the stats endpoint.
type WebSocketStats struct {
	Connections      websocket.RegistryStats `json:"connections"`
	Rooms            int                     `json:"rooms"`
	HeartbeatRunning bool                    `json:"heartbeatRunning"`
}

// WebSocketStats reports connection and room counts.
func (h *Handler) WebSocketStats(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, http.StatusOK, WebSocketStats{
		Connections:      h.gateway.Connections().Stats(),
		Rooms:            h.gateway.Rooms().RoomCount(),
		HeartbeatRunning: h.gateway.Heartbeat().IsRunning(),
	})
}

// RoomInfo reports a room's member count and type. Rooms without members
// do not exist and report zero members.
func (h *Handler) RoomInfo(w http.ResponseWriter, r *http.Request) {
	// chi matches on the escaped path when one is set, so "team%2Falpha"
	// arrives still encoded.
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid room name")
		return
	}
	room := websocket.ParseRoom(name)
	writeSuccess(w, r, http.StatusOK, h.gateway.Rooms().RoomInfo(room))
}
