// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// minProductionSecretLength is the minimum JWT secret length accepted in production.
const minProductionSecretLength = 32

// minRoomsPerConnection covers the user, role and broadcast rooms every
// connection joins on connect.
const minRoomsPerConnection = 3

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateWebSocket(); err != nil {
		return err
	}

	if err := c.validateBroker(); err != nil {
		return err
	}

	if err := c.validateProxy(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be one of development, staging, production (got %q)", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if err := c.validateJWTSecret(); err != nil {
		return err
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	return c.validateRateLimits()
}

// validateJWTSecret requires a secret everywhere and a strong one in production.
func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required to verify WebSocket tokens")
	}
	if c.IsProduction() && len(c.Security.JWTSecret) < minProductionSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in production", minProductionSecretLength)
	}
	return nil
}

// validateCORS rejects wildcard origins in production.
func (c *Config) validateCORS() error {
	if c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production; " +
			"set specific origins: CORS_ORIGINS=https://app.example.com,https://admin.example.com")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if CORS configuration has security concerns
// that should be logged at startup.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.hasWildcardCORS()
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
	}
	return nil
}

func (c *Config) validateWebSocket() error {
	ws := c.WebSocket
	if !strings.HasPrefix(ws.Path, "/") || ws.Path == "/" {
		return fmt.Errorf("WS_PATH must start with / and name a path (got %q)", ws.Path)
	}
	if ws.HeartbeatInterval < time.Second {
		return fmt.Errorf("WS_HEARTBEAT_INTERVAL must be at least 1s")
	}
	if ws.WriteWait <= 0 {
		return fmt.Errorf("WS_WRITE_WAIT must be positive")
	}
	if ws.MaxMessageSize < 1 {
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE must be at least 1 byte")
	}
	if ws.SendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be at least 1")
	}
	if ws.InboundRate < 0 {
		return fmt.Errorf("WS_INBOUND_RATE must not be negative")
	}
	if ws.InboundRate > 0 && ws.InboundBurst < 1 {
		return fmt.Errorf("WS_INBOUND_BURST must be at least 1 when WS_INBOUND_RATE is set")
	}
	if ws.MaxRooms != 0 && ws.MaxRooms < minRoomsPerConnection {
		return fmt.Errorf("WS_MAX_ROOMS must be 0 (unlimited) or at least %d to cover the auto-joined rooms", minRoomsPerConnection)
	}
	return nil
}

// validateBroker validates the event bridge transport (only if enabled).
func (c *Config) validateBroker() error {
	b := c.Broker
	if !b.Enabled {
		return nil
	}
	if b.URL == "" && !b.EmbeddedServer {
		return fmt.Errorf("NATS_URL is required when BROKER_ENABLED=true and NATS_EMBEDDED=false")
	}
	if b.Exchange == "" {
		return fmt.Errorf("BROKER_EXCHANGE must not be empty")
	}
	if b.QueuePrefix == "" {
		return fmt.Errorf("BROKER_QUEUE_PREFIX must not be empty")
	}
	if strings.ContainsAny(b.StreamName, ".*> ") {
		return fmt.Errorf("NATS_STREAM_NAME must not contain '.', '*', '>' or spaces (got %q)", b.StreamName)
	}
	if b.EmbeddedServer && b.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	if b.MaxDeliver == 0 || b.MaxDeliver < -1 {
		return fmt.Errorf("BROKER_MAX_DELIVER must be positive or -1 for unlimited")
	}
	if b.AckWait < time.Second {
		return fmt.Errorf("BROKER_ACK_WAIT must be at least 1s")
	}
	return nil
}

func (c *Config) validateProxy() error {
	seen := make(map[string]bool, len(c.Proxy.Routes))
	for i := range c.Proxy.Routes {
		route := &c.Proxy.Routes[i]
		if err := c.validateProxyRoute(route); err != nil {
			return fmt.Errorf("proxy.routes[%d]: %w", i, err)
		}
		if seen[route.Prefix] {
			return fmt.Errorf("proxy.routes[%d]: duplicate prefix %q", i, route.Prefix)
		}
		seen[route.Prefix] = true
	}
	return nil
}

func (c *Config) validateProxyRoute(route *ProxyRouteConfig) error {
	if !strings.HasPrefix(route.Prefix, "/") || route.Prefix == "/" {
		return fmt.Errorf("prefix must start with / and name a path (got %q)", route.Prefix)
	}
	if route.Prefix == c.WebSocket.Path || strings.HasPrefix(route.Prefix, c.WebSocket.Path+"/") {
		return fmt.Errorf("prefix %q collides with the WebSocket path", route.Prefix)
	}

	target, err := url.Parse(route.Target)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", route.Target, err)
	}
	if (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return fmt.Errorf("target must be an absolute http(s) URL (got %q)", route.Target)
	}

	for j, rule := range route.Rewrite {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("rewrite[%d]: invalid pattern %q: %w", j, rule.Pattern, err)
		}
	}

	if route.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if route.Breaker.Enabled && route.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("breaker.failure_threshold must be at least 1 when the breaker is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error (got %q)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console (got %q)", c.Logging.Format)
	}
	return nil
}
