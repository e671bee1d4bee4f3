// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package main

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/relaygate/internal/config"
	"github.com/tomtom215/relaygate/internal/eventprocessor"
)

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"wildcard", []string{"*"}, "https://evil.example.com", true},
		{"exact match", []string{"https://app.example.com"}, "https://app.example.com", true},
		{"case insensitive", []string{"https://App.Example.com/"}, "https://app.example.com", true},
		{"other origin", []string{"https://app.example.com"}, "https://evil.example.com", false},
		{"no origin header", []string{"https://app.example.com"}, "", true},
		{"empty allow list", nil, "https://app.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := originChecker(tt.allowed)(r); got != tt.want {
				t.Errorf("originChecker(%v)(%q) = %v, want %v", tt.allowed, tt.origin, got, tt.want)
			}
		})
	}
}

func TestSubscriberConfig(t *testing.T) {
	t.Parallel()

	defaults := subscriberConfig(config.BrokerConfig{}, "nats://localhost:4222")
	want := eventprocessor.DefaultSubscriberConfig("nats://localhost:4222")
	if defaults != want {
		t.Errorf("zero broker config = %+v, want defaults %+v", defaults, want)
	}

	sc := subscriberConfig(config.BrokerConfig{
		StreamName:    "EVENTS",
		MaxDeliver:    -1,
		AckWait:       5 * time.Second,
		ReconnectWait: time.Second,
		CloseTimeout:  3 * time.Second,
	}, "nats://broker:4222")
	if sc.URL != "nats://broker:4222" || sc.StreamName != "EVENTS" {
		t.Errorf("URL/StreamName = %q/%q", sc.URL, sc.StreamName)
	}
	if sc.MaxDeliver != -1 || sc.AckWaitTimeout != 5*time.Second {
		t.Errorf("MaxDeliver/AckWait = %d/%v", sc.MaxDeliver, sc.AckWaitTimeout)
	}
	if sc.ReconnectWait != time.Second || sc.CloseTimeout != 3*time.Second {
		t.Errorf("ReconnectWait/CloseTimeout = %v/%v", sc.ReconnectWait, sc.CloseTimeout)
	}
}

func TestStreamAndServerConfig(t *testing.T) {
	t.Parallel()

	if got := streamConfig(config.BrokerConfig{}).Name; got != eventprocessor.DefaultStreamName {
		t.Errorf("default stream name = %q", got)
	}
	if got := streamConfig(config.BrokerConfig{StreamName: "EVENTS"}).Name; got != "EVENTS" {
		t.Errorf("stream name = %q, want EVENTS", got)
	}
	if got := embeddedServerConfig(config.BrokerConfig{StoreDir: "/tmp/js"}).StoreDir; got != "/tmp/js" {
		t.Errorf("store dir = %q, want /tmp/js", got)
	}
}

func TestGatewayOptionsAndMiddleware(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 9090, IdleTimeout: time.Minute},
		Security: config.SecurityConfig{
			CORSOrigins:     []string{"https://app.example.com"},
			RateLimitReqs:   50,
			RateLimitWindow: 30 * time.Second,
		},
		WebSocket: config.WebSocketConfig{
			HeartbeatInterval: 15 * time.Second,
			SendBuffer:        64,
			InboundRate:       5,
			InboundBurst:      10,
			MaxRooms:          20,
		},
	}

	opts := gatewayOptions(cfg)
	if opts.Addr != "127.0.0.1:9090" || opts.IdleTimeout != time.Minute {
		t.Errorf("Addr/IdleTimeout = %q/%v", opts.Addr, opts.IdleTimeout)
	}
	if opts.HeartbeatInterval != 15*time.Second || opts.SendBuffer != 64 {
		t.Errorf("HeartbeatInterval/SendBuffer = %v/%d", opts.HeartbeatInterval, opts.SendBuffer)
	}
	if opts.InboundRate != 5 || opts.InboundBurst != 10 {
		t.Errorf("InboundRate/InboundBurst = %v/%d", opts.InboundRate, opts.InboundBurst)
	}
	if opts.MaxRooms != 20 {
		t.Errorf("MaxRooms = %d, want 20", opts.MaxRooms)
	}
	if opts.CheckOrigin == nil {
		t.Fatal("CheckOrigin should be set")
	}

	mc := middlewareConfig(cfg.Security)
	if mc.RateLimitRequests != 50 || mc.RateLimitWindow != 30*time.Second {
		t.Errorf("rate limit = %d/%v", mc.RateLimitRequests, mc.RateLimitWindow)
	}
	if len(mc.CORSAllowedOrigins) != 1 || mc.CORSAllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("CORSAllowedOrigins = %v", mc.CORSAllowedOrigins)
	}
}

func TestLoggingConfig(t *testing.T) {
	t.Parallel()

	lc := loggingConfig(&config.Config{
		Server:  config.ServerConfig{Environment: "staging"},
		Logging: config.LoggingConfig{Level: "debug", Format: "console"},
	})
	if lc.Level != "debug" || lc.Format != "console" || lc.File.Path != "" {
		t.Errorf("loggingConfig = %+v", lc)
	}
	if lc.Service != "relaygate" || lc.Environment != "staging" {
		t.Errorf("Service/Environment = %q/%q", lc.Service, lc.Environment)
	}
	withFile := loggingConfig(&config.Config{
		Logging: config.LoggingConfig{Level: "info", Format: "json", File: "/var/log/relaygate.log"},
	})
	if withFile.File.Path != "/var/log/relaygate.log" || withFile.File.MaxSizeMB == 0 {
		t.Errorf("File = %+v", withFile.File)
	}
}
