// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Gateway matches the listener lifecycle of *websocket.ConnectionServer.
type Gateway interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// GatewayService runs the gateway listener under supervision.
//
// ListenAndServe runs in a goroutine. When the context is canceled the
// gateway's own ordered shutdown runs with a fresh context bounded by
// shutdownTimeout: event bridge, heartbeat, connections, rooms, listener.
//
//	srv := websocket.NewConnectionServer(opts, authn, conns, rooms)
//	tree.AddAPIService(services.NewGatewayService(srv, 15*time.Second))
type GatewayService struct {
	gateway         Gateway
	shutdownTimeout time.Duration
	name            string
}

// NewGatewayService creates a gateway service wrapper.
func NewGatewayService(gateway Gateway, shutdownTimeout time.Duration) *GatewayService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &GatewayService{
		gateway:         gateway,
		shutdownTimeout: shutdownTimeout,
		name:            "gateway",
	}
}

// Serve implements suture.Service. A listener failure is returned so the
// supervisor restarts the service; http.ErrServerClosed is not a failure.
func (g *GatewayService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := g.gateway.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("gateway listener failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), g.shutdownTimeout)
		defer cancel()

		if err := g.gateway.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("gateway shutdown failed: %w", err)
		}

		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer for logging.
func (g *GatewayService) String() string {
	return g.name
}
