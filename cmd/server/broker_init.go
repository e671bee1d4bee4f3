// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/relaygate/internal/config"
	"github.com/tomtom215/relaygate/internal/eventbridge"
	"github.com/tomtom215/relaygate/internal/eventprocessor"
	"github.com/tomtom215/relaygate/internal/logging"
	"github.com/tomtom215/relaygate/internal/supervisor/services"
)

// brokerComponents holds what BROKER_ENABLED=true adds to the process.
type brokerComponents struct {
	// embedded is nil unless NATS_EMBEDDED=true.
	embedded     *eventprocessor.EmbeddedServer
	serverConfig eventprocessor.ServerConfig
	bridge       *eventbridge.EventBridge
}

// initBroker starts the embedded NATS server when configured and builds a
// stopped event bridge feeding rooms. The bridge is started by the
// supervisor so that an unreachable broker is retried with backoff.
func initBroker(cfg *config.Config, rooms eventbridge.RoomBroadcaster) (*brokerComponents, error) {
	bc := &brokerComponents{serverConfig: embeddedServerConfig(cfg.Broker)}

	url := cfg.Broker.URL
	if cfg.Broker.EmbeddedServer {
		srv, err := eventprocessor.NewEmbeddedServer(&bc.serverConfig)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		bc.embedded = srv
		url = srv.ClientURL()
	}

	broker, err := eventprocessor.NewNATSBroker(subscriberConfig(cfg.Broker, url), streamConfig(cfg.Broker))
	if err != nil {
		bc.shutdownEmbedded()
		return nil, fmt.Errorf("create NATS broker: %w", err)
	}

	bridge, err := eventbridge.New(broker, rooms, eventbridge.Config{
		Exchange:    cfg.Broker.Exchange,
		QueuePrefix: cfg.Broker.QueuePrefix,
	})
	if err != nil {
		bc.shutdownEmbedded()
		return nil, fmt.Errorf("create event bridge: %w", err)
	}
	bc.bridge = bridge

	logging.Info().
		Str("url", url).
		Bool("embedded", bc.embedded != nil).
		Str("exchange", cfg.Broker.Exchange).
		Str("queue_prefix", cfg.Broker.QueuePrefix).
		Msg("event bridge configured")

	return bc, nil
}

// startEmbedded restarts the embedded server after a crash. It is handed to
// the supervisor.
func (bc *brokerComponents) startEmbedded() (services.EmbeddedServer, error) {
	srv, err := eventprocessor.NewEmbeddedServer(&bc.serverConfig)
	if err != nil {
		return nil, err
	}
	return srv, nil
}

func (bc *brokerComponents) shutdownEmbedded() {
	if bc.embedded == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bc.embedded.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("embedded NATS server did not stop cleanly")
	}
}

func subscriberConfig(b config.BrokerConfig, url string) eventprocessor.SubscriberConfig {
	sc := eventprocessor.DefaultSubscriberConfig(url)
	if b.StreamName != "" {
		sc.StreamName = b.StreamName
	}
	if b.MaxDeliver != 0 {
		sc.MaxDeliver = b.MaxDeliver
	}
	if b.AckWait > 0 {
		sc.AckWaitTimeout = b.AckWait
	}
	if b.ReconnectWait > 0 {
		sc.ReconnectWait = b.ReconnectWait
	}
	if b.CloseTimeout > 0 {
		sc.CloseTimeout = b.CloseTimeout
	}
	return sc
}

func streamConfig(b config.BrokerConfig) eventprocessor.StreamConfig {
	stream := eventprocessor.DefaultStreamConfig()
	if b.StreamName != "" {
		stream.Name = b.StreamName
	}
	return stream
}

func embeddedServerConfig(b config.BrokerConfig) eventprocessor.ServerConfig {
	sc := eventprocessor.DefaultServerConfig()
	if b.StoreDir != "" {
		sc.StoreDir = b.StoreDir
	}
	return sc
}
