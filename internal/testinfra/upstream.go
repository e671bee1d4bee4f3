// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package testinfra

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// UpstreamCapture is one request received by a MockUpstream.
type UpstreamCapture struct {
	Method   string
	Path     string
	RawQuery string
	Host     string
	Headers  http.Header
	Body     []byte
}

// MockUpstream is a backend service stand-in that records every request
// it receives.
type MockUpstream struct {
	Server *httptest.Server

	mu           sync.Mutex
	captures     []UpstreamCapture
	status       int
	body         []byte
	responseFunc func(w http.ResponseWriter, r *http.Request)
}

// NewMockUpstream starts a recording upstream closed at test cleanup.
func NewMockUpstream(t *testing.T) *MockUpstream {
	t.Helper()

	m := &MockUpstream{status: http.StatusOK}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body.Close()
		}

		m.mu.Lock()
		m.captures = append(m.captures, UpstreamCapture{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Host:     r.Host,
			Headers:  r.Header.Clone(),
			Body:     body,
		})
		respond := m.responseFunc
		status, respBody := m.status, m.body
		m.mu.Unlock()

		if respond != nil {
			respond(w, r)
			return
		}
		w.WriteHeader(status)
		if respBody != nil {
			w.Write(respBody) //nolint:errcheck
		}
	}))
	t.Cleanup(m.Server.Close)
	return m
}

// SetResponse sets the status and body of the default handler (default: 200, empty).
func (m *MockUpstream) SetResponse(status int, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.body = body
}

// SetResponseFunc replaces the default handler. The request body has
// already been recorded and consumed when fn runs.
func (m *MockUpstream) SetResponseFunc(fn func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responseFunc = fn
}

// URL returns the server URL.
func (m *MockUpstream) URL() string {
	return m.Server.URL
}

// Captures returns a copy of the recorded requests.
func (m *MockUpstream) Captures() []UpstreamCapture {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]UpstreamCapture, len(m.captures))
	copy(out, m.captures)
	return out
}

// Last returns the most recent request, or false if none arrived.
func (m *MockUpstream) Last() (UpstreamCapture, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.captures) == 0 {
		return UpstreamCapture{}, false
	}
	return m.captures[len(m.captures)-1], true
}

// WaitForCaptures waits until at least n requests arrived or timeout elapses.
func (m *MockUpstream) WaitForCaptures(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		count := len(m.captures)
		m.mu.Unlock()
		if count >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
