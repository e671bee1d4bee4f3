// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/relaygate/internal/logging"
)

func TestRequestID_GeneratesNewID(t *testing.T) {
	t.Parallel()

	var capturedID, headerID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
		headerID = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	responseID := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(responseID); err != nil {
		t.Fatalf("response X-Request-ID %q is not a UUID: %v", responseID, err)
	}
	if capturedID != responseID {
		t.Errorf("context ID %q != response ID %q", capturedID, responseID)
	}
	if headerID != responseID {
		t.Errorf("request header ID %q != response ID %q", headerID, responseID)
	}
}

func TestRequestID_InboundID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		inbound string
		reused  bool
	}{
		{"well formed", "req-12345", true},
		{"too long", strings.Repeat("a", maxRequestIDLength+1), false},
		{"control characters", "abc\x01def", false},
		{"spaces", "two words", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var captured string
			handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				captured = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set(RequestIDHeader, tt.inbound)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got := captured == tt.inbound; got != tt.reused {
				t.Errorf("inbound ID reused = %v, want %v (captured %q)", got, tt.reused, captured)
			}
		})
	}
}

func TestRequestID_LoggingContext(t *testing.T) {
	t.Parallel()

	var requestID, correlationID string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		requestID = logging.RequestIDFromContext(r.Context())
		correlationID = logging.CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "trace-me")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if requestID != "trace-me" {
		t.Errorf("logging request ID = %q, want trace-me", requestID)
	}
	if correlationID == "" {
		t.Error("expected a correlation ID in the logging context")
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	t.Parallel()

	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}
