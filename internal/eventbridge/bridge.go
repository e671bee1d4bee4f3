// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package eventbridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/relaygate/internal/logging"
	"github.com/tomtom215/relaygate/internal/metrics"
	"github.com/tomtom215/relaygate/internal/websocket"
)

// Delivery outcomes reported to metrics and Health.
const (
	OutcomeRouted  = "routed"
	OutcomeDropped = "dropped"
	OutcomeFailed  = "failed"
)

// RoomBroadcaster fans a message out to the members of one room.
type RoomBroadcaster interface {
	Broadcast(room websocket.RoomID, msg websocket.Message) websocket.BroadcastResult
}

// Config names the exchange and the queues the bridge binds.
type Config struct {
	Exchange    string
	QueuePrefix string
}

// DefaultConfig returns the platform exchange and gateway queue prefix.
func DefaultConfig() Config {
	return Config{
		Exchange:    "platform.events",
		QueuePrefix: "gateway",
	}
}

// QueueName returns the queue bound for a route prefix.
func (c Config) QueueName(prefix string) string {
	return c.QueuePrefix + "." + prefix
}

// Health is a point-in-time view of the bridge.
type Health struct {
	Running       bool      `json:"running"`
	Subscriptions int       `json:"subscriptions"`
	Routed        uint64    `json:"routed"`
	Dropped       uint64    `json:"dropped"`
	Failed        uint64    `json:"failed"`
	LastEventAt   time.Time `json:"last_event_at,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
}

// EventBridge consumes platform events from the broker and republishes
// them into websocket rooms according to Routes. Deliveries are acked
// after routing, including deliberate drops, and nacked on any error.
type EventBridge struct {
	broker Broker
	rooms  RoomBroadcaster
	cfg    Config

	mu      sync.Mutex
	running bool
	subs    []Subscription

	routed      atomic.Uint64
	dropped     atomic.Uint64
	failed      atomic.Uint64
	lastEventAt atomic.Int64
	lastError   atomic.Value // string
}

// New creates a stopped bridge.
func New(broker Broker, rooms RoomBroadcaster, cfg Config) (*EventBridge, error) {
	if broker == nil {
		return nil, ErrNilBroker
	}
	if rooms == nil {
		return nil, ErrNilRooms
	}
	defaults := DefaultConfig()
	if cfg.Exchange == "" {
		cfg.Exchange = defaults.Exchange
	}
	if cfg.QueuePrefix == "" {
		cfg.QueuePrefix = defaults.QueuePrefix
	}
	return &EventBridge{broker: broker, rooms: rooms, cfg: cfg}, nil
}

// Start connects the broker and opens one subscription per route. A second
// call while running logs a warning and returns nil. If any step fails,
// everything opened so far is closed and the error is returned.
func (b *EventBridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		logging.Warn().Msg("event bridge already running")
		return nil
	}

	if err := b.broker.Connect(ctx); err != nil {
		b.recordError(err)
		return fmt.Errorf("connect broker: %w", err)
	}

	subs := make([]Subscription, 0, len(Routes))
	for _, route := range Routes {
		queue := b.cfg.QueueName(route.Prefix)
		sub, err := b.broker.Subscribe(ctx, b.cfg.Exchange, route.Pattern(), queue, b.handlerFor(route))
		if err != nil {
			closeAll(subs)
			if cerr := b.broker.Close(); cerr != nil {
				logging.Warn().Err(cerr).Msg("failed to close broker after subscribe error")
			}
			b.recordError(err)
			return fmt.Errorf("subscribe %s to %s: %w", queue, route.Pattern(), err)
		}
		subs = append(subs, sub)
		logging.Info().
			Str("exchange", b.cfg.Exchange).
			Str("pattern", route.Pattern()).
			Str("queue", queue).
			Msg("event bridge subscribed")
	}

	b.subs = subs
	b.running = true
	metrics.SetBridgeRunning(true)
	logging.Info().Int("subscriptions", len(subs)).Msg("event bridge started")
	return nil
}

// Stop closes every subscription and then the broker connection. It is
// safe to call when Start never ran or failed. If ctx ends first, Stop
// returns its error and the close completes in the background.
func (b *EventBridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	metrics.SetBridgeRunning(false)

	done := make(chan error, 1)
	go func() {
		errs := closeAll(subs)
		if err := b.broker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close broker: %w", err))
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		logging.Info().Msg("event bridge stopped")
		return err
	case <-ctx.Done():
		logging.Warn().Err(ctx.Err()).Msg("event bridge stop interrupted")
		return ctx.Err()
	}
}

// IsRunning reports whether all subscriptions are open.
func (b *EventBridge) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Health returns counters and the last error observed.
func (b *EventBridge) Health() Health {
	b.mu.Lock()
	h := Health{Running: b.running, Subscriptions: len(b.subs)}
	b.mu.Unlock()

	h.Routed = b.routed.Load()
	h.Dropped = b.dropped.Load()
	h.Failed = b.failed.Load()
	if ts := b.lastEventAt.Load(); ts > 0 {
		h.LastEventAt = time.Unix(0, ts).UTC()
	}
	if msg, ok := b.lastError.Load().(string); ok {
		h.LastError = msg
	}
	return h
}

func (b *EventBridge) handlerFor(route Route) DeliveryHandler {
	return func(_ context.Context, d Delivery) {
		b.handle(route, d)
	}
}

// handle routes one delivery and settles it. Panics are recovered and
// turned into a nack.
func (b *EventBridge) handle(route Route, d Delivery) {
	b.lastEventAt.Store(time.Now().UnixNano())

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrRoutingPanic, r)
			logging.Error().
				Str("prefix", route.Prefix).
				Str("routing_key", d.RoutingKey()).
				Interface("panic", r).
				Msg("event bridge recovered from panic")
			b.fail(route, d, err)
		}
	}()

	outcome, err := b.route(route, d)
	if err != nil {
		logging.Warn().
			Err(err).
			Str("prefix", route.Prefix).
			Str("routing_key", d.RoutingKey()).
			Msg("event bridge failed to process delivery")
		b.fail(route, d, err)
		return
	}

	if err := d.Ack(); err != nil {
		logging.Warn().Err(err).Str("prefix", route.Prefix).Msg("event bridge ack failed")
	}
	metrics.RecordBridgeDelivery(route.Prefix, outcome)
	if outcome == OutcomeDropped {
		b.dropped.Add(1)
	} else {
		b.routed.Add(1)
	}
}

func (b *EventBridge) route(route Route, d Delivery) (string, error) {
	ev, err := DecodeEvent(d.Body())
	if err != nil {
		return "", err
	}

	routingKey := ev.Type
	if routingKey == "" {
		routingKey = d.RoutingKey()
	}
	if routingKey == "" {
		return "", fmt.Errorf("%w: no routing key", ErrInvalidEvent)
	}

	rooms, ok := route.Targets(ev.Data)
	if !ok {
		logging.Warn().
			Str("prefix", route.Prefix).
			Str("routing_key", routingKey).
			Msg("event dropped: missing userId")
		return OutcomeDropped, nil
	}

	msg := websocket.NewMessage(websocket.MessageTypeEvent, websocket.EventPayload{
		EventType: EventType(routingKey),
		Data:      ev.Data,
	})
	for _, room := range rooms {
		res := b.rooms.Broadcast(room, msg)
		logging.Debug().
			Str("routing_key", routingKey).
			Str("room", res.Room).
			Int("sent", res.Sent).
			Int("failed", res.Failed).
			Msg("event bridged to room")
	}
	return OutcomeRouted, nil
}

func (b *EventBridge) fail(route Route, d Delivery, err error) {
	b.failed.Add(1)
	b.recordError(err)
	metrics.RecordBridgeDelivery(route.Prefix, OutcomeFailed)
	if nerr := d.Nack(); nerr != nil {
		logging.Warn().Err(nerr).Str("prefix", route.Prefix).Msg("event bridge nack failed")
	}
}

func (b *EventBridge) recordError(err error) {
	b.lastError.Store(err.Error())
}

func closeAll(subs []Subscription) []error {
	var errs []error
	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscription: %w", err))
		}
	}
	return errs
}
