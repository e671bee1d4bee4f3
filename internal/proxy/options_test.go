// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package proxy

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/relaygate/internal/config"
)

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	opts, err := OptionsFromConfig(config.ProxyRouteConfig{
		Prefix:       "/api/chat",
		Target:       "http://chat:3000/base",
		Rewrite:      []config.RewriteRuleConfig{{Pattern: "^/api/chat", Replacement: ""}},
		Timeout:      5 * time.Second,
		PreserveHost: true,
		Breaker:      config.BreakerConfig{Enabled: true, FailureThreshold: 3},
	})
	if err != nil {
		t.Fatalf("OptionsFromConfig() error = %v", err)
	}
	if opts.Name != "/api/chat" || opts.Target.Host != "chat:3000" || opts.Timeout != 5*time.Second {
		t.Errorf("opts = %+v", opts)
	}
	if got := opts.RewritePath("/api/chat/rooms"); got != "/rooms" {
		t.Errorf("RewritePath() = %q, want /rooms", got)
	}
	if !opts.keepsInboundHost() {
		t.Error("keepsInboundHost() should be true with PreserveHost")
	}
	if opts.Breaker == nil || opts.Breaker.FailureThreshold != 3 {
		t.Errorf("Breaker = %+v", opts.Breaker)
	}
}

func TestOptionsFromConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		route config.ProxyRouteConfig
		want  error
	}{
		{"relative target", config.ProxyRouteConfig{Target: "chat:3000"}, ErrInvalidTarget},
		{"ftp target", config.ProxyRouteConfig{Target: "ftp://files"}, ErrInvalidTarget},
		{"bad pattern", config.ProxyRouteConfig{
			Target:  "http://chat",
			Rewrite: []config.RewriteRuleConfig{{Pattern: "(["}},
		}, ErrInvalidRewrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := OptionsFromConfig(tt.route); !errors.Is(err, tt.want) {
				t.Errorf("OptionsFromConfig() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{}); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("New(no target) error = %v, want ErrInvalidTarget", err)
	}

	p, err := NewFromConfig(config.ProxyRouteConfig{Target: "https://reports.internal"})
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	if p.Name() != "reports.internal" {
		t.Errorf("Name() = %q, want target host", p.Name())
	}
	if p.opts.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", p.opts.Timeout, DefaultTimeout)
	}
	if p.breaker != nil {
		t.Error("breaker should be disabled by default")
	}
}
