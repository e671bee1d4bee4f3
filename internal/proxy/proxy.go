// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package proxy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/relaygate/internal/config"
	"github.com/tomtom215/relaygate/internal/logging"
	"github.com/tomtom215/relaygate/internal/metrics"
)

// statusClientClosedRequest is recorded when the client hangs up before
// the upstream answers. Nothing is written to the client.
const statusClientClosedRequest = 499

// Upstream error kinds used as metric labels.
const (
	errorKindTimeout     = "timeout"
	errorKindUnavailable = "unavailable"
	errorKindCircuitOpen = "circuit_open"
	errorKindCanceled    = "canceled"
)

// StreamingProxy forwards requests to a single upstream target. Request
// and response bodies are streamed in both directions without buffering.
type StreamingProxy struct {
	opts    Options
	rp      *httputil.ReverseProxy
	breaker *breakerTransport
	logger  zerolog.Logger
}

// NewFromConfig compiles a configured route and builds its proxy.
func NewFromConfig(route config.ProxyRouteConfig) (*StreamingProxy, error) {
	opts, err := OptionsFromConfig(route)
	if err != nil {
		return nil, err
	}
	return New(opts)
}

// New builds a proxy for opts.Target.
func New(opts Options) (*StreamingProxy, error) {
	if opts.Target == nil || (opts.Target.Scheme != "http" && opts.Target.Scheme != "https") || opts.Target.Host == "" {
		return nil, fmt.Errorf("%w: target must be an absolute http(s) URL", ErrInvalidTarget)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Name == "" {
		opts.Name = opts.Target.Host
	}

	p := &StreamingProxy{
		opts:   opts,
		logger: logging.WithComponent("proxy").With().Str("upstream", opts.Name).Logger(),
	}

	transport := opts.Transport
	if transport == nil {
		transport = newUpstreamTransport(opts.Timeout)
	}
	if opts.Breaker != nil {
		p.breaker = newBreakerTransport(opts.Name, *opts.Breaker, transport)
		transport = p.breaker
	}

	p.rp = &httputil.ReverseProxy{
		Rewrite:       p.rewrite,
		Transport:     transport,
		FlushInterval: -1,
		ErrorHandler:  p.handleError,
		ErrorLog:      log.New(p.logger, "", 0),
	}
	return p, nil
}

// newUpstreamTransport bounds the dial and the wait for response headers.
func newUpstreamTransport(timeout time.Duration) *http.Transport {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		base = &http.Transport{}
	}
	t := base.Clone()
	t.Proxy = nil
	t.DialContext = (&net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.ResponseHeaderTimeout = timeout
	return t
}

// Name returns the metrics label of the proxy.
func (p *StreamingProxy) Name() string {
	return p.opts.Name
}

// ServeHTTP implements http.Handler.
func (p *StreamingProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rw := &responseWriter{ResponseWriter: w}

	p.rp.ServeHTTP(rw, r)

	status := rw.status
	if !rw.wroteHeader {
		status = statusClientClosedRequest
	}
	metrics.RecordProxyRequest(p.opts.Name, status, time.Since(start))
}

func (p *StreamingProxy) rewrite(pr *httputil.ProxyRequest) {
	pr.Out.URL.Path = p.opts.RewritePath(pr.In.URL.Path)
	pr.Out.URL.RawPath = ""
	pr.SetURL(p.opts.Target)

	// Rewrite hooks receive the outbound request without X-Forwarded-*;
	// restore the inbound chain so SetXForwarded appends to it.
	pr.Out.Header["X-Forwarded-For"] = pr.In.Header["X-Forwarded-For"]
	pr.SetXForwarded()
	pr.Out.Header.Del("X-Real-IP")
	if ip := clientIP(pr.In.RemoteAddr); ip != "" {
		pr.Out.Header.Set("X-Real-IP", ip)
	}

	pr.Out.Header.Del("Content-Length")
	pr.Out.Header.Del("Transfer-Encoding")

	if p.opts.keepsInboundHost() {
		pr.Out.Host = pr.In.Host
	}
}

func (p *StreamingProxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	kind, status := classifyError(err)
	metrics.RecordProxyUpstreamError(p.opts.Name, kind)

	event := p.logger.Warn()
	if kind == errorKindCanceled {
		event = p.logger.Debug()
	}
	event.Err(err).
		Str("kind", kind).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("proxy upstream request failed")

	if kind == errorKindCanceled {
		return
	}
	if hs, ok := w.(interface{ HeadersSent() bool }); ok && hs.HeadersSent() {
		return
	}
	w.WriteHeader(status)
}

// classifyError maps an upstream failure to a metric label and the status
// sent to the client.
func classifyError(err error) (string, int) {
	if errors.Is(err, ErrCircuitOpen) {
		return errorKindCircuitOpen, http.StatusBadGateway
	}
	if errors.Is(err, context.Canceled) {
		return errorKindCanceled, statusClientClosedRequest
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errorKindTimeout, http.StatusGatewayTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errorKindTimeout, http.StatusGatewayTimeout
	}
	return errorKindUnavailable, http.StatusBadGateway
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
