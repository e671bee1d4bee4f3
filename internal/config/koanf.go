// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/relaygate/config.yaml",
	"/etc/relaygate/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			Host:              "0.0.0.0",
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			Environment:       "development",
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			RateLimitReqs:     300,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		WebSocket: WebSocketConfig{
			Path:              "/ws",
			HeartbeatInterval: 30 * time.Second,
			WriteWait:         10 * time.Second,
			HandshakeTimeout:  10 * time.Second,
			MaxMessageSize:    64 * 1024,
			SendBuffer:        256,
			InboundRate:       20,
			InboundBurst:      40,
			MaxRooms:          100,
		},
		Broker: BrokerConfig{
			Enabled:        true,
			URL:            "nats://127.0.0.1:4222",
			Exchange:       "platform.events",
			QueuePrefix:    "gateway",
			StreamName:     "PLATFORM_EVENTS",
			EmbeddedServer: false,
			StoreDir:       "/data/nats/jetstream",
			MaxDeliver:     5,
			AckWait:        30 * time.Second,
			ReconnectWait:  2 * time.Second,
			CloseTimeout:   10 * time.Second,
		},
		Proxy: ProxyConfig{
			Routes: []ProxyRouteConfig{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in defaults
//  2. Config File: optional YAML config file
//  3. Environment Variables: override any mapped setting
//
// Proxy routes are only configurable from the YAML file since they are
// lists of nested objects.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// JWT_SECRET -> security.jwt_secret, WS_HEARTBEAT_INTERVAL -> websocket.heartbeat_interval
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":                "server.port",
	"http_host":                "server.host",
	"http_read_header_timeout": "server.read_header_timeout",
	"http_idle_timeout":        "server.idle_timeout",
	"shutdown_timeout":         "server.shutdown_timeout",
	"environment":              "server.environment",

	// Security
	"jwt_secret":          "security.jwt_secret",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// WebSocket
	"ws_path":               "websocket.path",
	"ws_heartbeat_interval": "websocket.heartbeat_interval",
	"ws_write_wait":         "websocket.write_wait",
	"ws_handshake_timeout":  "websocket.handshake_timeout",
	"ws_max_message_size":   "websocket.max_message_size",
	"ws_send_buffer":        "websocket.send_buffer",
	"ws_inbound_rate":       "websocket.inbound_rate",
	"ws_inbound_burst":      "websocket.inbound_burst",
	"ws_max_rooms":          "websocket.max_rooms",

	// Broker
	"broker_enabled":        "broker.enabled",
	"nats_url":              "broker.url",
	"broker_exchange":       "broker.exchange",
	"broker_queue_prefix":   "broker.queue_prefix",
	"nats_stream_name":      "broker.stream_name",
	"nats_embedded":         "broker.embedded_server",
	"nats_store_dir":        "broker.store_dir",
	"broker_max_deliver":    "broker.max_deliver",
	"broker_ack_wait":       "broker.ack_wait",
	"broker_reconnect_wait": "broker.reconnect_wait",
	"broker_close_timeout":  "broker.close_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
	"log_file":   "logging.file",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped variables return "" and are skipped so that unrelated
// environment variables never pollute the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
