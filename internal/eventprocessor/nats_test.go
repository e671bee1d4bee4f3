// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package eventprocessor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/relaygate/internal/eventbridge"
)

func startEmbeddedServer(t *testing.T) *EmbeddedServer {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping embedded NATS test in short mode")
	}

	cfg := DefaultServerConfig()
	cfg.Port = -1
	cfg.StoreDir = t.TempDir()

	srv, err := NewEmbeddedServer(&cfg)
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func TestEmbeddedServer_Lifecycle(t *testing.T) {
	srv := startEmbeddedServer(t)

	if !srv.IsRunning() {
		t.Error("IsRunning() = false")
	}
	if !srv.JetStreamEnabled() {
		t.Error("JetStreamEnabled() = false")
	}
	if srv.ClientURL() == "" {
		t.Error("ClientURL() is empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after Shutdown")
	}
}

func TestNATSBroker_ProvisionsStreamAndDelivers(t *testing.T) {
	srv := startEmbeddedServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := DefaultSubscriberConfig(srv.ClientURL())
	cfg.AckWaitTimeout = 2 * time.Second
	broker, err := NewNATSBroker(cfg, DefaultStreamConfig())
	if err != nil {
		t.Fatalf("NewNATSBroker() error = %v", err)
	}
	t.Cleanup(func() { _ = broker.Close() })

	if err := broker.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	defer nc.Close()
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatal(err)
	}

	stream, err := js.Stream(ctx, DefaultStreamName)
	if err != nil {
		t.Fatalf("stream not provisioned: %v", err)
	}
	if info := stream.CachedInfo(); len(info.Config.Subjects) != 4 {
		t.Errorf("stream subjects = %v", info.Config.Subjects)
	}

	var (
		mu    sync.Mutex
		keys  []string
		count atomic.Int32
	)
	_, err = broker.Subscribe(ctx, "platform.events", "payments.#", "gateway.payments",
		func(_ context.Context, d eventbridge.Delivery) {
			mu.Lock()
			keys = append(keys, d.RoutingKey())
			mu.Unlock()
			_ = d.Ack()
			count.Add(1)
		})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if _, err := js.Publish(ctx, "payments.payment.created", []byte(`{"type":"payments.payment.created","data":{}}`)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	// Not bound by the payments subscription.
	if _, err := js.Publish(ctx, "auth.user.login", []byte(`{}`)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitForCount(t, "JetStream delivery", &count, 1)
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(keys) != 1 || keys[0] != "payments.payment.created" {
		t.Errorf("routing keys = %v, want [payments.payment.created]", keys)
	}
}

func TestNATSBroker_ConnectFailure(t *testing.T) {
	cfg := DefaultSubscriberConfig("nats://127.0.0.1:1")
	cfg.MaxReconnects = 0
	broker, err := NewNATSBroker(cfg, DefaultStreamConfig())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := broker.Connect(ctx); err == nil {
		t.Fatal("Connect() succeeded against closed port")
	}
	if broker.IsConnected() {
		t.Error("IsConnected() = true after failed Connect")
	}
}

func TestNewNATSBroker_InvalidConfig(t *testing.T) {
	if _, err := NewNATSBroker(SubscriberConfig{}, DefaultStreamConfig()); err == nil {
		t.Error("NewNATSBroker() accepted empty config")
	}
}
