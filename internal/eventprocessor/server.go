// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package eventprocessor

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/relaygate/internal/logging"
)

// readyTimeout bounds how long NewEmbeddedServer waits for the listener.
const readyTimeout = 30 * time.Second

// EmbeddedServer runs nats-server with JetStream inside the gateway process.
type EmbeddedServer struct {
	server    *server.Server
	config    ServerConfig
	clientURL string
}

// NewEmbeddedServer creates and starts an embedded NATS server. A Port of
// -1 picks a random free port.
func NewEmbeddedServer(cfg *ServerConfig) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName:         "relaygate-events",
		Host:               cfg.Host,
		Port:               cfg.Port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.JetStreamMaxMem,
		JetStreamMaxStore:  cfg.JetStreamMaxStore,
		MaxPayload:         1024 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.SetLogger(natsServerLogger{}, false, false)

	go ns.Start()

	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within %s", readyTimeout)
	}

	logging.Info().Str("url", ns.ClientURL()).Str("store_dir", cfg.StoreDir).Msg("embedded NATS server started")

	return &EmbeddedServer{
		server:    ns,
		config:    *cfg,
		clientURL: ns.ClientURL(),
	}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server and waits for it to exit or for ctx to end.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning returns server health status.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// JetStreamEnabled returns whether JetStream is enabled.
func (s *EmbeddedServer) JetStreamEnabled() bool {
	return s.server.JetStreamEnabled()
}

// natsServerLogger routes nats-server output through the global logger.
type natsServerLogger struct{}

func (natsServerLogger) Noticef(format string, v ...interface{}) {
	logging.Info().Str("component", "nats-server").Msg(fmt.Sprintf(format, v...))
}

func (natsServerLogger) Warnf(format string, v ...interface{}) {
	logging.Warn().Str("component", "nats-server").Msg(fmt.Sprintf(format, v...))
}

func (natsServerLogger) Fatalf(format string, v ...interface{}) {
	logging.Error().Str("component", "nats-server").Msg(fmt.Sprintf(format, v...))
}

func (natsServerLogger) Errorf(format string, v ...interface{}) {
	logging.Error().Str("component", "nats-server").Msg(fmt.Sprintf(format, v...))
}

func (natsServerLogger) Debugf(format string, v ...interface{}) {
	logging.Debug().Str("component", "nats-server").Msg(fmt.Sprintf(format, v...))
}

func (natsServerLogger) Tracef(format string, v ...interface{}) {
	logging.Debug().Str("component", "nats-server").Msg(fmt.Sprintf(format, v...))
}
