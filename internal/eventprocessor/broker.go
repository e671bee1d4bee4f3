// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/relaygate/internal/eventbridge"
	"github.com/tomtom215/relaygate/internal/logging"
)

// RoutingKeyMetadataKey is the message metadata entry holding the subject
// or routing key a message was published with.
const RoutingKeyMetadataKey = "routing_key"

// SubscriberFactory creates the Watermill subscriber that consumes one queue.
type SubscriberFactory func(queue string) (message.Subscriber, error)

// Connector opens and releases the transport shared by all subscriptions.
type Connector interface {
	Connect(ctx context.Context) error
	Close() error
}

// WatermillBroker implements eventbridge.Broker on Watermill subscribers.
type WatermillBroker struct {
	newSubscriber SubscriberFactory
	connector     Connector

	mu        sync.Mutex
	connected bool
	subs      map[*subscription]struct{}
}

var _ eventbridge.Broker = (*WatermillBroker)(nil)

// NewWatermillBroker creates a disconnected broker. connector may be nil
// when the subscribers need no shared connection.
func NewWatermillBroker(factory SubscriberFactory, connector Connector) *WatermillBroker {
	return &WatermillBroker{
		newSubscriber: factory,
		connector:     connector,
		subs:          make(map[*subscription]struct{}),
	}
}

// Connect opens the shared connection. Connecting twice is a no-op.
func (b *WatermillBroker) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connected {
		return nil
	}
	if b.connector != nil {
		if err := b.connector.Connect(ctx); err != nil {
			return err
		}
	}
	b.connected = true
	return nil
}

// IsConnected reports whether Connect succeeded and Close has not run.
func (b *WatermillBroker) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// Subscribe creates a subscriber for queue and consumes the subject derived
// from pattern until the returned subscription is closed. The exchange
// names the event namespace and is recorded for diagnostics; subjects are
// the routing keys themselves.
func (b *WatermillBroker) Subscribe(ctx context.Context, exchange, pattern, queue string, handler eventbridge.DeliveryHandler) (eventbridge.Subscription, error) {
	if !b.IsConnected() {
		return nil, ErrNotConnected
	}

	topic := SubjectForPattern(pattern)
	sub, err := b.newSubscriber(queue)
	if err != nil {
		return nil, fmt.Errorf("create subscriber for %s: %w", queue, err)
	}

	// The consume loop outlives the caller's context and ends on Close.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	messages, err := sub.Subscribe(runCtx, topic)
	if err != nil {
		cancel()
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s to %s: %w", queue, topic, err)
	}

	s := &subscription{
		broker:     b,
		subscriber: sub,
		cancel:     cancel,
		done:       make(chan struct{}),
		queue:      queue,
		topic:      topic,
	}

	go s.consume(runCtx, messages, handler)

	b.mu.Lock()
	if !b.connected {
		b.mu.Unlock()
		_ = s.Close()
		return nil, ErrNotConnected
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	logging.Debug().
		Str("exchange", exchange).
		Str("queue", queue).
		Str("subject", topic).
		Msg("watermill subscription opened")
	return s, nil
}

// Close closes every open subscription and then the shared connection.
func (b *WatermillBroker) Close() error {
	b.mu.Lock()
	if !b.connected {
		b.mu.Unlock()
		return nil
	}
	b.connected = false
	subs := make([]*subscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	var errs []error
	for _, s := range subs {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.connector != nil {
		if err := b.connector.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (b *WatermillBroker) forget(s *subscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

// subscription is one queue consumer.
type subscription struct {
	broker     *WatermillBroker
	subscriber message.Subscriber
	cancel     context.CancelFunc
	done       chan struct{}
	queue      string
	topic      string

	closeOnce sync.Once
	closeErr  error
}

func (s *subscription) consume(ctx context.Context, messages <-chan *message.Message, handler eventbridge.DeliveryHandler) {
	defer close(s.done)

	for msg := range messages {
		d := &delivery{msg: msg}
		handler(ctx, d)
		if !d.settled.Load() {
			logging.Warn().
				Str("queue", s.queue).
				Str("message_uuid", msg.UUID).
				Msg("handler returned without settling delivery, nacking")
			_ = d.Nack()
		}
	}
}

// Close stops consumption and waits for the in-flight delivery to finish.
func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if err := s.subscriber.Close(); err != nil {
			s.closeErr = fmt.Errorf("close subscriber %s: %w", s.queue, err)
		}
		<-s.done
		s.broker.forget(s)
	})
	return s.closeErr
}

// delivery settles a Watermill message at most once.
type delivery struct {
	msg     *message.Message
	settled atomic.Bool
}

func (d *delivery) RoutingKey() string { return d.msg.Metadata.Get(RoutingKeyMetadataKey) }

func (d *delivery) Body() []byte { return d.msg.Payload }

func (d *delivery) Ack() error {
	if !d.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	d.msg.Ack()
	return nil
}

func (d *delivery) Nack() error {
	if !d.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	d.msg.Nack()
	return nil
}
