// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package eventprocessor

import (
	"fmt"
	"time"
)

// SubscriberConfig holds JetStream subscriber configuration.
type SubscriberConfig struct {
	URL string

	// StreamName is the JetStream stream the subscribers bind to. Binding
	// is required for wildcard subjects such as "payments.>".
	StreamName string

	// SubscribersCount is the number of goroutines consuming each queue.
	// One keeps per-queue delivery order.
	SubscribersCount int

	AckWaitTimeout time.Duration
	MaxDeliver     int
	MaxAckPending  int
	CloseTimeout   time.Duration
	MaxReconnects  int
	ReconnectWait  time.Duration
}

// DefaultSubscriberConfig returns production defaults for subscribers.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		StreamName:       DefaultStreamName,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       5,
		MaxAckPending:    1000,
		CloseTimeout:     10 * time.Second,
		MaxReconnects:    -1, // unlimited
		ReconnectWait:    2 * time.Second,
	}
}

// Validate checks the fields the subscriber factory depends on.
func (c SubscriberConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: subscriber URL is required", ErrInvalidConfig)
	}
	if c.SubscribersCount < 1 {
		return fmt.Errorf("%w: subscribers count must be at least 1", ErrInvalidConfig)
	}
	if c.AckWaitTimeout <= 0 {
		return fmt.Errorf("%w: ack wait must be positive", ErrInvalidConfig)
	}
	return nil
}

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns production defaults for the embedded server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   256 << 20, // 256MB
		JetStreamMaxStore: 1 << 30,   // 1GB
	}
}

// DefaultStreamName is the stream carrying platform events.
const DefaultStreamName = "PLATFORM_EVENTS"

// StreamConfig defines the platform event stream.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns the platform event stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name: DefaultStreamName,
		Subjects: []string{
			"payments.>",
			"auth.>",
			"admin.>",
			"user.>",
		},
		MaxAge:          24 * time.Hour,
		MaxBytes:        1 << 30, // 1GB
		MaxMsgs:         -1,      // unlimited
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}
