// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package eventprocessor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/relaygate/internal/logging"
)

// NewNATSBroker builds the production broker: Connect dials NATS and
// provisions the event stream, and every queue gets its own durable
// JetStream subscriber bound to that stream.
func NewNATSBroker(cfg SubscriberConfig, stream StreamConfig) (*WatermillBroker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.StreamName == "" {
		cfg.StreamName = stream.Name
	}

	logger := logging.NewWatermillLogger("nats-subscriber")
	connector := &natsConnector{cfg: cfg, stream: stream}
	factory := func(queue string) (message.Subscriber, error) {
		return newJetStreamSubscriber(cfg, queue, logger)
	}
	return NewWatermillBroker(factory, connector), nil
}

// natsConnector owns the management connection used for stream
// provisioning and connectivity checks.
type natsConnector struct {
	cfg    SubscriberConfig
	stream StreamConfig

	mu sync.Mutex
	nc *natsgo.Conn
}

func (c *natsConnector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nc != nil && !c.nc.IsClosed() {
		return nil
	}

	nc, err := natsgo.Connect(c.cfg.URL,
		natsgo.Name("relaygate-bridge"),
		natsgo.MaxReconnects(c.cfg.MaxReconnects),
		natsgo.ReconnectWait(c.cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS connection lost")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS connection restored")
		}),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS at %s: %w", c.cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return fmt.Errorf("create JetStream context: %w", err)
	}

	initializer, err := NewStreamInitializer(js, &c.stream)
	if err != nil {
		nc.Close()
		return err
	}
	if _, err := initializer.EnsureStream(ctx); err != nil {
		nc.Close()
		return err
	}

	c.nc = nc
	logging.Info().
		Str("url", nc.ConnectedUrl()).
		Str("stream", c.stream.Name).
		Msg("connected to NATS JetStream")
	return nil
}

func (c *natsConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nc == nil {
		return nil
	}
	c.nc.Close()
	c.nc = nil
	return nil
}

// newJetStreamSubscriber creates a durable queue subscriber. The queue name
// is used as the queue group and, sanitized, as the durable consumer name.
func newJetStreamSubscriber(cfg SubscriberConfig, queue string, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("relaygate-" + queue),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Subscriber disconnected", err, watermill.LogFields{"queue": queue})
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Subscriber reconnected", watermill.LogFields{
				"queue": queue,
				"url":   nc.ConnectedUrl(),
			})
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(cfg.MaxDeliver),
		natsgo.MaxAckPending(cfg.MaxAckPending),
		natsgo.AckWait(cfg.AckWaitTimeout),
		natsgo.DeliverNew(),
		natsgo.BindStream(cfg.StreamName),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: queue,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &subjectUnmarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    false, // bound to the provisioned stream
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    DurableName(queue),
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	return sub, nil
}

// DurableName converts a queue name into a valid JetStream consumer name.
func DurableName(queue string) string {
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(queue)
}

// subjectUnmarshaler records the NATS subject as the routing key.
type subjectUnmarshaler struct {
	wmNats.NATSMarshaler
}

func (u *subjectUnmarshaler) Unmarshal(natsMsg *natsgo.Msg) (*message.Message, error) {
	msg, err := u.NATSMarshaler.Unmarshal(natsMsg)
	if err != nil {
		return nil, err
	}
	msg.Metadata.Set(RoutingKeyMetadataKey, natsMsg.Subject)
	return msg, nil
}
