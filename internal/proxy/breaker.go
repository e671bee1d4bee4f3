// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/relaygate/internal/logging"
	"github.com/tomtom215/relaygate/internal/metrics"
)

const (
	defaultBreakerOpenTimeout = 30 * time.Second
	defaultHalfOpenRequests   = 1
	defaultFailureThreshold   = 5
)

// breakerTransport counts transport failures (refused, reset, timed out)
// per upstream and rejects requests while the circuit is open. Upstream
// responses, including 5xx, are relayed unchanged and count as successes.
type breakerTransport struct {
	next http.RoundTripper
	cb   *gobreaker.CircuitBreaker[*http.Response]
}

func newBreakerTransport(name string, settings BreakerSettings, next http.RoundTripper) *breakerTransport {
	openTimeout := settings.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = defaultBreakerOpenTimeout
	}
	halfOpen := settings.HalfOpenRequests
	if halfOpen == 0 {
		halfOpen = defaultHalfOpenRequests
	}
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = defaultFailureThreshold
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(metrics.BreakerClosed)

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpen,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A client that hangs up says nothing about the upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("upstream", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("proxy circuit breaker state transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), breakerStateValue(to))
		},
	})

	return &breakerTransport{next: next, cb: cb}
}

func (b *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		return b.next.RoundTrip(req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	return resp, err
}

// State reports the current circuit state.
func (b *breakerTransport) State() gobreaker.State {
	return b.cb.State()
}

func breakerStateValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	default:
		return metrics.BreakerClosed
	}
}
