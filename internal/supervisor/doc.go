// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

/*
Package supervisor runs Relaygate's long-lived services under suture v4.

	relaygate
	├── broker-layer
	│   └── embedded-nats   (NATS_EMBEDDED=true)
	├── messaging-layer
	│   └── event-bridge    (BROKER_ENABLED=true)
	└── edge-layer
	    └── gateway         (HTTP, WebSocket and proxy listener)

Each layer counts failures on its own, so a bridge that keeps losing its
broker connection is restarted with backoff without touching the gateway.
Supervisor events (start, stop, panic, backoff) are logged through
sutureslog into the process slog logger, which itself forwards to zerolog.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
	    return err
	}
	tree.AddEdgeService(services.NewGatewayService(server, cfg.Server.ShutdownTimeout))
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

The service adapters live in the services subpackage.
*/
package supervisor
