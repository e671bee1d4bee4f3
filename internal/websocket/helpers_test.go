// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package websocket

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/relaygate/internal/auth"
	"github.com/tomtom215/relaygate/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// fakeTransport records frames instead of writing to a socket.
type fakeTransport struct {
	mu        sync.Mutex
	sent      [][]byte
	closeCode int

	open       atomic.Bool
	pings      atomic.Int32
	terminated atomic.Bool

	sendErr  error
	closeErr error
	panics   bool
}

func newFakeTransport() *fakeTransport {
	t := &fakeTransport{}
	t.open.Store(true)
	return t
}

func (t *fakeTransport) Send(data []byte) error {
	if t.panics {
		panic("boom")
	}
	if !t.open.Load() {
		return ErrConnectionClosed
	}
	if t.sendErr != nil {
		return t.sendErr
	}
	t.mu.Lock()
	t.sent = append(t.sent, data)
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) Ping() error {
	if !t.open.Load() {
		return ErrConnectionClosed
	}
	t.pings.Add(1)
	return nil
}

func (t *fakeTransport) Close(code int, _ string) error {
	t.mu.Lock()
	t.closeCode = code
	t.mu.Unlock()
	t.open.Store(false)
	return t.closeErr
}

func (t *fakeTransport) Terminate() error {
	t.terminated.Store(true)
	t.open.Store(false)
	return nil
}

func (t *fakeTransport) IsOpen() bool { return t.open.Load() }

func (t *fakeTransport) sentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

func (t *fakeTransport) lastCloseCode() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeCode
}

var errSendFailed = errors.New("send failed")

func newTestConn(userID string, role auth.Role) (*Connection, *fakeTransport) {
	t := newFakeTransport()
	return NewConnection(t, auth.Identity{UserID: userID, Email: userID + "@example.com", Role: role}, nil), t
}
