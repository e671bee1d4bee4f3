// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

// Package testinfra provides shared test infrastructure.
//
// MockUpstream is a recording httptest backend used by the proxy tests.
//
// Files tagged integration use testcontainers-go to run real dependencies:
//
//	func TestBridge(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    nats, err := testinfra.NewNATSContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, nats)
//	    broker, _ := eventprocessor.NewNATSBroker(
//	        eventprocessor.DefaultSubscriberConfig(nats.URL),
//	        eventprocessor.DefaultStreamConfig())
//	}
//
// Run them with:
//
//	go test -tags integration ./...
package testinfra
