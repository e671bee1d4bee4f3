// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/relaygate/internal/eventbridge"
	"github.com/tomtom215/relaygate/internal/middleware"
	"github.com/tomtom215/relaygate/internal/websocket"
)

// Gateway is the connection server as seen by the HTTP surface.
type Gateway interface {
	HandleUpgrade(w http.ResponseWriter, r *http.Request)
	Ready() bool
	Connections() *websocket.ConnectionRegistry
	Rooms() *websocket.RoomRegistry
	Heartbeat() *websocket.HeartbeatMonitor
}

// BridgeHealth reports event bridge status. A nil BridgeHealth means the
// bridge is disabled.
type BridgeHealth interface {
	Health() eventbridge.Health
}

// ProxyMount serves one upstream under a path prefix.
type ProxyMount struct {
	Prefix  string
	Handler http.Handler
}

// RouterConfig wires the router.
type RouterConfig struct {
	WebSocketPath string
	Gateway       Gateway
	Bridge        BridgeHealth
	Proxies       []ProxyMount
	Middleware    *ChiMiddleware
}

// Router builds the gateway's HTTP handler tree.
type Router struct {
	cfg     RouterConfig
	handler *Handler
}

// NewRouter creates a router.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.WebSocketPath == "" {
		cfg.WebSocketPath = "/ws"
	}
	if cfg.Middleware == nil {
		cfg.Middleware = NewChiMiddleware(nil)
	}
	return &Router{
		cfg:     cfg,
		handler: NewHandler(cfg.Gateway, cfg.Bridge),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	mw := router.cfg.Middleware

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(mw.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, ErrCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	// RealIP rewrites RemoteAddr from client headers, so it stays off the
	// proxy mounts: they build X-Forwarded-For and X-Real-IP from the peer.
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.RealIP)

		// WebSocket upgrades on the configured path and anything below it.
		wsPath := strings.TrimSuffix(router.cfg.WebSocketPath, "/")
		r.Get(wsPath, router.cfg.Gateway.HandleUpgrade)
		r.Get(wsPath+"/*", router.cfg.Gateway.HandleUpgrade)

		r.Route("/api/v1/health", func(r chi.Router) {
			r.Use(mw.RateLimitHealth())
			r.Get("/live", router.handler.HealthLive)
			r.Get("/ready", router.handler.HealthReady)
			r.Get("/bridge", router.handler.HealthBridge)
		})

		r.Route("/api/v1/ws", func(r chi.Router) {
			r.Use(mw.RateLimit("ws"))
			r.Get("/stats", router.handler.WebSocketStats)
			r.Get("/rooms/{name}", router.handler.RoomInfo)
		})

		r.With(mw.RateLimitHealth()).Handle("/metrics", promhttp.Handler())
	})

	for _, mount := range router.cfg.Proxies {
		prefix := strings.TrimSuffix(mount.Prefix, "/")
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit(prefix))
			r.Handle(prefix, mount.Handler)
			r.Handle(prefix+"/*", mount.Handler)
		})
	}

	return r
}
