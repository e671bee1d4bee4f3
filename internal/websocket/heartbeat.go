// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package websocket

import (
	"sync"
	"time"

	"github.com/tomtom215/relaygate/internal/logging"
	"github.com/tomtom215/relaygate/internal/metrics"
)

// DefaultHeartbeatInterval is the probe interval used when none is configured.
const DefaultHeartbeatInterval = 30 * time.Second

// ConnectionSource supplies the connections to probe.
type ConnectionSource interface {
	All() []*Connection
}

// HeartbeatMonitor probes every connection once per interval. A connection
// that has not answered the previous ping is terminated on the next tick,
// so a silent peer is dropped after exactly two intervals.
type HeartbeatMonitor struct {
	source   ConnectionSource
	interval time.Duration
	onDead   func(*Connection)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewHeartbeatMonitor creates a stopped monitor. onDead is called after a
// connection has been terminated and may be nil.
func NewHeartbeatMonitor(source ConnectionSource, interval time.Duration, onDead func(*Connection)) *HeartbeatMonitor {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &HeartbeatMonitor{
		source:   source,
		interval: interval,
		onDead:   onDead,
	}
}

// Start launches the ticker goroutine. Starting a running monitor logs a
// warning and does nothing.
func (h *HeartbeatMonitor) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		logging.Warn().Msg("heartbeat monitor already running")
		return
	}
	h.running = true
	h.stopCh = make(chan struct{})
	h.doneCh = make(chan struct{})

	go h.run(h.stopCh, h.doneCh)
	logging.Info().Dur("interval", h.interval).Msg("heartbeat monitor started")
}

// Stop halts the ticker and waits for an in-flight sweep to finish.
// Stopping a stopped monitor is a no-op.
func (h *HeartbeatMonitor) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	stopCh, doneCh := h.stopCh, h.doneCh
	h.mu.Unlock()

	close(stopCh)
	<-doneCh
	logging.Info().Msg("heartbeat monitor stopped")
}

// IsRunning reports whether the ticker is active.
func (h *HeartbeatMonitor) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

func (h *HeartbeatMonitor) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			h.sweep()
		}
	}
}

// sweep runs one probe cycle and returns the number of terminated connections.
func (h *HeartbeatMonitor) sweep() int {
	terminated := 0
	for _, c := range h.source.All() {
		if !c.IsAlive() {
			if err := c.Terminate(); err != nil {
				logging.Debug().Err(err).Uint64("conn_id", c.id).Msg("terminate after missed heartbeat")
			}
			terminated++
			metrics.RecordHeartbeatTermination()
			logging.Info().
				Uint64("conn_id", c.id).
				Str("user_id", c.userID).
				Time("last_activity", c.LastActivityAt()).
				Msg("connection terminated after missed heartbeat")
			if h.onDead != nil {
				h.onDead(c)
			}
			continue
		}

		c.markPending()
		if err := c.Ping(); err != nil {
			logging.Debug().Err(err).Uint64("conn_id", c.id).Msg("heartbeat ping failed")
		}
	}
	return terminated
}
