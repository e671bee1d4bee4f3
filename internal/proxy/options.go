// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package proxy

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/tomtom215/relaygate/internal/config"
)

// DefaultTimeout bounds connecting to the upstream and waiting for its
// response headers.
const DefaultTimeout = 30 * time.Second

// RewriteRule replaces every match of Pattern in the request path.
type RewriteRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// BreakerSettings configures the upstream circuit breaker.
type BreakerSettings struct {
	// FailureThreshold is the number of consecutive transport failures
	// that opens the circuit.
	FailureThreshold uint32

	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration

	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32
}

// Options is the immutable configuration of one StreamingProxy.
type Options struct {
	// Name labels metrics and logs. Defaults to the target host.
	Name string

	Target   *url.URL
	Rewrites []RewriteRule

	// Timeout applies to the upstream dial and to the wait for response
	// headers. Streaming bodies are not bounded. Zero means DefaultTimeout.
	Timeout time.Duration

	// PreserveHost forwards the inbound Host header unless ChangeOrigin
	// is also set.
	PreserveHost bool
	ChangeOrigin bool

	// Breaker enables the circuit breaker when non-nil.
	Breaker *BreakerSettings

	// Transport overrides the upstream transport. Timeout is not applied
	// to a custom transport.
	Transport http.RoundTripper
}

// RewritePath applies every rule in order, each to the output of the
// previous one. A path matched by two rules is rewritten twice.
func (o *Options) RewritePath(path string) string {
	for _, rule := range o.Rewrites {
		path = rule.Pattern.ReplaceAllString(path, rule.Replacement)
	}
	return path
}

func (o *Options) keepsInboundHost() bool {
	return o.PreserveHost && !o.ChangeOrigin
}

// OptionsFromConfig compiles a configured route.
func OptionsFromConfig(route config.ProxyRouteConfig) (Options, error) {
	target, err := url.Parse(route.Target)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %q: %w", ErrInvalidTarget, route.Target, err)
	}
	if (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return Options{}, fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidTarget, route.Target)
	}

	rewrites := make([]RewriteRule, 0, len(route.Rewrite))
	for i, rule := range route.Rewrite {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return Options{}, fmt.Errorf("%w: rewrite[%d] %q: %w", ErrInvalidRewrite, i, rule.Pattern, err)
		}
		rewrites = append(rewrites, RewriteRule{Pattern: re, Replacement: rule.Replacement})
	}

	opts := Options{
		Name:         route.Prefix,
		Target:       target,
		Rewrites:     rewrites,
		Timeout:      route.Timeout,
		PreserveHost: route.PreserveHost,
		ChangeOrigin: route.ChangeOrigin,
	}
	if route.Breaker.Enabled {
		opts.Breaker = &BreakerSettings{
			FailureThreshold: route.Breaker.FailureThreshold,
			OpenTimeout:      route.Breaker.OpenTimeout,
			HalfOpenRequests: route.Breaker.HalfOpenRequests,
		}
	}
	return opts, nil
}
