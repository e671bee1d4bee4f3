// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package services

import (
	"context"
	"fmt"
	"time"
)

// Bridge matches the lifecycle of *eventbridge.EventBridge.
type Bridge interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
}

// BridgeService starts the event bridge in the background of a running
// gateway. A failed Start is returned to the supervisor, whose backoff
// schedules the retry; the gateway keeps serving meanwhile.
type BridgeService struct {
	bridge          Bridge
	shutdownTimeout time.Duration
	name            string
}

// NewBridgeService creates an event bridge service wrapper.
func NewBridgeService(bridge Bridge, shutdownTimeout time.Duration) *BridgeService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &BridgeService{
		bridge:          bridge,
		shutdownTimeout: shutdownTimeout,
		name:            "event-bridge",
	}
}

// Serve implements suture.Service.
func (b *BridgeService) Serve(ctx context.Context) error {
	if !b.bridge.IsRunning() {
		if err := b.bridge.Start(ctx); err != nil {
			return fmt.Errorf("event bridge start failed: %w", err)
		}
	}

	<-ctx.Done()

	// The gateway's shutdown may already have stopped the bridge; Stop
	// tolerates that.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), b.shutdownTimeout)
	defer cancel()

	if err := b.bridge.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("event bridge stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (b *BridgeService) String() string {
	return b.name
}
