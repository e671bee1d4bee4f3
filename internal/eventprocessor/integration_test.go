// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

//go:build integration

package eventprocessor

import (
	"context"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/relaygate/internal/eventbridge"
	"github.com/tomtom215/relaygate/internal/testinfra"
)

// TestIntegration_BridgeOverNATSContainer drives the full path from a
// JetStream publish to room broadcasts against a real NATS server.
func TestIntegration_BridgeOverNATSContainer(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testinfra.NewNATSContainer(ctx)
	if err != nil {
		t.Fatalf("NewNATSContainer() error = %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, container)

	broker, err := NewNATSBroker(DefaultSubscriberConfig(container.URL), DefaultStreamConfig())
	if err != nil {
		t.Fatal(err)
	}

	rooms := &roomRecorder{}
	bridge, err := eventbridge.New(broker, rooms, eventbridge.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := bridge.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer bridge.Stop(ctx) //nolint:errcheck

	nc, err := natsgo.Connect(container.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer nc.Close()
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := js.Publish(ctx, "payments.payment.created",
		[]byte(`{"type":"payments.payment.created","data":{"senderId":"u1"}}`)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitForCount(t, "room broadcasts", &rooms.count, 2)

	deadline := time.Now().Add(5 * time.Second)
	for bridge.Health().Routed < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h := bridge.Health(); h.Routed != 1 || h.Failed != 0 {
		t.Errorf("Health() = %+v, want one routed event", h)
	}
}
