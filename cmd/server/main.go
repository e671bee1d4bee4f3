// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/relaygate/internal/api"
	"github.com/tomtom215/relaygate/internal/auth"
	"github.com/tomtom215/relaygate/internal/config"
	"github.com/tomtom215/relaygate/internal/logging"
	"github.com/tomtom215/relaygate/internal/proxy"
	"github.com/tomtom215/relaygate/internal/supervisor"
	"github.com/tomtom215/relaygate/internal/supervisor/services"
	ws "github.com/tomtom215/relaygate/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logging is not configured yet; the default logger still works.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(loggingConfig(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		logging.Fatal().Err(err).Msg("Relaygate stopped with an error")
	}
	logging.Info().Msg("Relaygate stopped")
}

//nolint:gocyclo // sequential wiring of the gateway components
func run(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("environment", cfg.Server.Environment).
		Str("ws_path", cfg.WebSocket.Path).
		Int("proxy_routes", len(cfg.Proxy.Routes)).
		Bool("broker_enabled", cfg.Broker.Enabled).
		Msg("Starting Relaygate")

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS_ORIGINS=* accepts every origin; set explicit origins outside development")
	}

	jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret)
	if err != nil {
		return fmt.Errorf("create JWT manager: %w", err)
	}

	conns := ws.NewConnectionRegistry()
	rooms := ws.NewRoomRegistry()
	server := ws.NewConnectionServer(gatewayOptions(cfg), auth.NewTokenAuthenticator(jwtManager), conns, rooms)

	mounts := make([]api.ProxyMount, 0, len(cfg.Proxy.Routes))
	for _, route := range cfg.Proxy.Routes {
		p, err := proxy.NewFromConfig(route)
		if err != nil {
			return fmt.Errorf("proxy route %s: %w", route.Prefix, err)
		}
		mounts = append(mounts, api.ProxyMount{Prefix: route.Prefix, Handler: p})
		logging.Info().Str("prefix", route.Prefix).Str("target", route.Target).Msg("Proxy route mounted")
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	routerCfg := api.RouterConfig{
		WebSocketPath: cfg.WebSocket.Path,
		Gateway:       server,
		Proxies:       mounts,
		Middleware:    api.NewChiMiddleware(middlewareConfig(cfg.Security)),
	}

	if cfg.Broker.Enabled {
		broker, err := initBroker(cfg, rooms)
		if err != nil {
			return err
		}
		if broker.embedded != nil {
			tree.AddBrokerService(services.NewEmbeddedNATSService(broker.embedded, broker.startEmbedded, cfg.Server.ShutdownTimeout))
		}
		tree.AddMessagingService(services.NewBridgeService(broker.bridge, cfg.Server.ShutdownTimeout))
		server.SetBridge(broker.bridge)
		routerCfg.Bridge = broker.bridge
	}

	server.SetHandler(api.NewRouter(routerCfg).SetupChi())
	tree.AddEdgeService(services.NewGatewayService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Supervisor tree starting")

	err = tree.Serve(ctx)

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	return nil
}

func loggingConfig(cfg *config.Config) logging.Config {
	lc := cfg.Logging
	out := logging.DefaultConfig()
	out.Service = "relaygate"
	out.Environment = cfg.Server.Environment
	out.Level = lc.Level
	out.Format = lc.Format
	out.Caller = lc.Caller
	out.Output = os.Stderr
	if lc.File != "" {
		out.File = logging.FileConfig{
			Path:       lc.File,
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		}
	}
	return out
}

func gatewayOptions(cfg *config.Config) ws.Options {
	return ws.Options{
		Addr:              cfg.Server.Addr(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		HeartbeatInterval: cfg.WebSocket.HeartbeatInterval,
		WriteWait:         cfg.WebSocket.WriteWait,
		HandshakeTimeout:  cfg.WebSocket.HandshakeTimeout,
		MaxMessageSize:    cfg.WebSocket.MaxMessageSize,
		SendBuffer:        cfg.WebSocket.SendBuffer,
		InboundRate:       cfg.WebSocket.InboundRate,
		InboundBurst:      cfg.WebSocket.InboundBurst,
		MaxRooms:          cfg.WebSocket.MaxRooms,
		CheckOrigin:       originChecker(cfg.Security.CORSOrigins),
	}
}

func middlewareConfig(sc config.SecurityConfig) *api.ChiMiddlewareConfig {
	mc := api.DefaultChiMiddlewareConfig()
	mc.CORSAllowedOrigins = sc.CORSOrigins
	mc.RateLimitRequests = sc.RateLimitReqs
	mc.RateLimitWindow = sc.RateLimitWindow
	mc.RateLimitDisabled = sc.RateLimitDisabled
	return mc
}
