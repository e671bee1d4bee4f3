// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrEmbeddedServerStopped is returned when the embedded NATS server exits
// while it should be running.
var ErrEmbeddedServerStopped = errors.New("embedded NATS server stopped unexpectedly")

const defaultHealthPollInterval = time.Second

// EmbeddedServer matches *eventprocessor.EmbeddedServer.
type EmbeddedServer interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// EmbeddedNATSService supervises an in-process NATS server. The server is
// started before the tree so the broker knows its URL; the service polls
// its health, recreates it through start after a crash and shuts it down
// when the tree stops.
type EmbeddedNATSService struct {
	mu     sync.Mutex
	server EmbeddedServer
	start  func() (EmbeddedServer, error)

	pollInterval    time.Duration
	shutdownTimeout time.Duration
	name            string
}

// NewEmbeddedNATSService wraps a running server. start recreates it with
// the same configuration; it may be nil when restarts are not wanted.
func NewEmbeddedNATSService(initial EmbeddedServer, start func() (EmbeddedServer, error), shutdownTimeout time.Duration) *EmbeddedNATSService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EmbeddedNATSService{
		server:          initial,
		start:           start,
		pollInterval:    defaultHealthPollInterval,
		shutdownTimeout: shutdownTimeout,
		name:            "embedded-nats",
	}
}

// Serve implements suture.Service.
func (s *EmbeddedNATSService) Serve(ctx context.Context) error {
	srv, err := s.ensureRunning()
	if err != nil {
		return err
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("embedded NATS shutdown failed: %w", err)
			}
			return ctx.Err()

		case <-ticker.C:
			if !srv.IsRunning() {
				return ErrEmbeddedServerStopped
			}
		}
	}
}

func (s *EmbeddedNATSService) ensureRunning() (EmbeddedServer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil && s.server.IsRunning() {
		return s.server, nil
	}
	if s.start == nil {
		return nil, ErrEmbeddedServerStopped
	}

	srv, err := s.start()
	if err != nil {
		return nil, fmt.Errorf("restart embedded NATS server: %w", err)
	}
	s.server = srv
	return srv, nil
}

// String implements fmt.Stringer for logging.
func (s *EmbeddedNATSService) String() string {
	return s.name
}
