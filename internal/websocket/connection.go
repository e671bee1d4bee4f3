// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package websocket

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/relaygate/internal/auth"
	"github.com/tomtom215/relaygate/internal/metrics"
)

// Transport is the write side of an accepted socket.
type Transport interface {
	// Send queues a text frame. It fails with ErrConnectionClosed once the
	// transport is closed.
	Send(data []byte) error

	// Ping sends a ping control frame.
	Ping() error

	// Close sends a close frame with code and reason, then closes the socket.
	Close(code int, reason string) error

	// Terminate closes the socket without a close handshake.
	Terminate() error

	// IsOpen reports whether the transport still accepts frames.
	IsOpen() bool
}

// connIDCounter generates unique, monotonically increasing connection IDs.
// Snapshots are sorted by ID so iteration order is deterministic.
var connIDCounter atomic.Uint64

// Connection is one accepted, authenticated socket.
type Connection struct {
	id        uint64
	sessionID string
	userID    string
	role      auth.Role

	transport Transport
	limiter   *rate.Limiter

	alive        atomic.Bool
	connectedAt  time.Time
	lastActivity atomic.Int64

	mu    sync.Mutex
	rooms map[string]struct{}

	// closing is set when teardown starts; RoomRegistry refuses to add a
	// closing connection to any room.
	closing      atomic.Bool
	teardownOnce sync.Once
}

// NewConnection wraps an accepted transport for an authenticated identity.
// A nil limiter disables inbound rate limiting.
func NewConnection(t Transport, id auth.Identity, limiter *rate.Limiter) *Connection {
	now := time.Now()
	c := &Connection{
		id:          connIDCounter.Add(1),
		sessionID:   uuid.NewString(),
		userID:      id.UserID,
		role:        id.Role,
		transport:   t,
		limiter:     limiter,
		connectedAt: now,
		rooms:       make(map[string]struct{}),
	}
	c.alive.Store(true)
	c.lastActivity.Store(now.UnixNano())
	return c
}

// ID returns the connection's unique identifier for deterministic ordering
func (c *Connection) ID() uint64 { return c.id }

// SessionID returns a random identifier used to correlate log lines.
func (c *Connection) SessionID() string { return c.sessionID }

// UserID returns the authenticated user.
func (c *Connection) UserID() string { return c.userID }

// Role returns the authenticated role.
func (c *Connection) Role() auth.Role { return c.role }

// ConnectedAt returns the handshake time.
func (c *Connection) ConnectedAt() time.Time { return c.connectedAt }

// LastActivityAt returns the time of the last inbound frame or pong.
func (c *Connection) LastActivityAt() time.Time {
	return time.Unix(0, c.lastActivity.Load())
}

// Touch records inbound activity.
func (c *Connection) Touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}

// IsAlive reports whether the peer answered the last ping.
func (c *Connection) IsAlive() bool { return c.alive.Load() }

// MarkAlive records a pong.
func (c *Connection) MarkAlive() {
	c.alive.Store(true)
	c.Touch()
}

func (c *Connection) markPending() {
	c.alive.Store(false)
}

// IsOpen reports whether the transport still accepts frames.
func (c *Connection) IsOpen() bool { return c.transport.IsOpen() }

// Send encodes msg and queues it.
func (c *Connection) Send(msg Message) error {
	data, err := MarshalMessage(msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.Type, err)
	}
	return c.SendRaw(data)
}

// SendRaw queues an encoded frame.
func (c *Connection) SendRaw(data []byte) error {
	if err := c.transport.Send(data); err != nil {
		return err
	}
	metrics.RecordMessageSent()
	return nil
}

// Ping sends a heartbeat probe.
func (c *Connection) Ping() error { return c.transport.Ping() }

// Close closes the socket with a close handshake.
func (c *Connection) Close(code int, reason string) error {
	return c.transport.Close(code, reason)
}

// Terminate closes the socket without a close handshake.
func (c *Connection) Terminate() error { return c.transport.Terminate() }

// allowInbound applies the per-connection inbound rate limit.
func (c *Connection) allowInbound() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// Rooms returns the sorted names of the rooms the connection belongs to.
func (c *Connection) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	rooms := make([]string, 0, len(c.rooms))
	for name := range c.rooms {
		rooms = append(rooms, name)
	}
	sort.Strings(rooms)
	return rooms
}

// inRoom reports membership from the connection's own view.
func (c *Connection) inRoom(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[name]
	return ok
}

func (c *Connection) roomCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rooms)
}

func (c *Connection) addRoom(name string) {
	c.mu.Lock()
	c.rooms[name] = struct{}{}
	c.mu.Unlock()
}

func (c *Connection) removeRoom(name string) {
	c.mu.Lock()
	delete(c.rooms, name)
	c.mu.Unlock()
}

func (c *Connection) clearRooms() {
	c.mu.Lock()
	clear(c.rooms)
	c.mu.Unlock()
}

// sortByID orders connections by ID in place.
func sortByID(conns []*Connection) {
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].id < conns[j].id
	})
}
