// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all gateway configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	WebSocket WebSocketConfig `koanf:"websocket"`
	Broker    BrokerConfig    `koanf:"broker"`
	Proxy     ProxyConfig     `koanf:"proxy"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds the listener settings shared by the WebSocket endpoint,
// the proxied routes and the operational endpoints.
type ServerConfig struct {
	Port              int           `koanf:"port"`
	Host              string        `koanf:"host"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	Environment       string        `koanf:"environment"` // development, staging, production
}

// Addr returns the host:port the listener binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds token verification and HTTP hardening settings.
type SecurityConfig struct {
	// JWTSecret is the HS256 secret shared with the token issuer.
	JWTSecret         string        `koanf:"jwt_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// WebSocketConfig holds connection server and heartbeat settings.
type WebSocketConfig struct {
	Path              string        `koanf:"path"`
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	WriteWait         time.Duration `koanf:"write_wait"`
	HandshakeTimeout  time.Duration `koanf:"handshake_timeout"`
	MaxMessageSize    int64         `koanf:"max_message_size"`
	SendBuffer        int           `koanf:"send_buffer"`

	// InboundRate is the sustained client messages per second allowed per
	// connection. Zero disables inbound rate limiting.
	InboundRate  float64 `koanf:"inbound_rate"`
	InboundBurst int     `koanf:"inbound_burst"`

	// MaxRooms caps the rooms a single connection may belong to, including
	// its three auto-joined rooms. Zero disables the cap.
	MaxRooms int `koanf:"max_rooms"`
}

// BrokerConfig holds the event bridge transport settings.
type BrokerConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	Exchange       string        `koanf:"exchange"`
	QueuePrefix    string        `koanf:"queue_prefix"`
	StreamName     string        `koanf:"stream_name"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxDeliver     int           `koanf:"max_deliver"`
	AckWait        time.Duration `koanf:"ack_wait"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
	CloseTimeout   time.Duration `koanf:"close_timeout"`
}

// ProxyConfig lists the upstream services mounted on the gateway.
type ProxyConfig struct {
	Routes []ProxyRouteConfig `koanf:"routes"`
}

// ProxyRouteConfig mounts one upstream target under a path prefix.
type ProxyRouteConfig struct {
	Prefix       string              `koanf:"prefix"`
	Target       string              `koanf:"target"`
	Rewrite      []RewriteRuleConfig `koanf:"rewrite"`
	Timeout      time.Duration       `koanf:"timeout"`
	PreserveHost bool                `koanf:"preserve_host"`
	ChangeOrigin bool                `koanf:"change_origin"`
	Breaker      BreakerConfig       `koanf:"breaker"`
}

// RewriteRuleConfig is one regex path rewrite.
type RewriteRuleConfig struct {
	Pattern     string `koanf:"pattern"`
	Replacement string `koanf:"replacement"`
}

// BreakerConfig configures the optional upstream circuit breaker.
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
	OpenTimeout      time.Duration `koanf:"open_timeout"`
	HalfOpenRequests uint32        `koanf:"half_open_requests"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`

	// File is an optional rotating log file path.
	File string `koanf:"file"`
}

// Load reads a .env file into the process environment when present and then
// loads the layered configuration.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadWithKoanf()
}

// IsProduction reports whether the gateway runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
