// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package websocket

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/relaygate/internal/logging"
	"github.com/tomtom215/relaygate/internal/metrics"
)

// BroadcastResult counts per-member delivery outcomes.
type BroadcastResult struct {
	Room    string `json:"room"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Skipped int    `json:"skipped"`
}

// RoomInfo describes one room.
type RoomInfo struct {
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
	Type        string `json:"type"`
}

// RoomRegistry holds room membership. Rooms exist only while they have
// members: the first Join creates a room and the last Leave deletes it.
//
// The lock is never held during socket I/O; Broadcast snapshots the
// members and sends after releasing it.
type RoomRegistry struct {
	mu          sync.RWMutex
	rooms       map[string]map[*Connection]struct{}
	memberships map[*Connection]map[string]struct{}
}

// NewRoomRegistry creates an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:       make(map[string]map[*Connection]struct{}),
		memberships: make(map[*Connection]map[string]struct{}),
	}
}

// Join adds c to room. It reports whether c was added: false when c was
// already a member or its teardown has started.
func (r *RoomRegistry) Join(c *Connection, room RoomID) bool {
	name := room.String()

	r.mu.Lock()
	// Checked under the lock: a teardown that set closing before LeaveAll
	// can never be followed by a membership added here.
	if c.closing.Load() {
		r.mu.Unlock()
		return false
	}
	members, ok := r.rooms[name]
	if !ok {
		members = make(map[*Connection]struct{})
		r.rooms[name] = members
	}
	if _, already := members[c]; already {
		r.mu.Unlock()
		return false
	}
	members[c] = struct{}{}

	joined, ok := r.memberships[c]
	if !ok {
		joined = make(map[string]struct{})
		r.memberships[c] = joined
	}
	joined[name] = struct{}{}
	c.addRoom(name)
	roomCount := len(r.rooms)
	r.mu.Unlock()

	metrics.SetActiveRooms(roomCount)
	logging.Debug().Uint64("conn_id", c.id).Str("room", name).Msg("joined room")
	return true
}

// Leave removes c from room. It reports whether c was a member.
func (r *RoomRegistry) Leave(c *Connection, room RoomID) bool {
	name := room.String()

	r.mu.Lock()
	members, ok := r.rooms[name]
	if !ok {
		r.mu.Unlock()
		return false
	}
	if _, member := members[c]; !member {
		r.mu.Unlock()
		return false
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, name)
	}
	if joined, ok := r.memberships[c]; ok {
		delete(joined, name)
		if len(joined) == 0 {
			delete(r.memberships, c)
		}
	}
	c.removeRoom(name)
	roomCount := len(r.rooms)
	r.mu.Unlock()

	metrics.SetActiveRooms(roomCount)
	logging.Debug().Uint64("conn_id", c.id).Str("room", name).Msg("left room")
	return true
}

// LeaveAll removes c from every room it belongs to and returns how many
// rooms it left.
func (r *RoomRegistry) LeaveAll(c *Connection) int {
	r.mu.Lock()
	joined := r.memberships[c]
	for name := range joined {
		if members, ok := r.rooms[name]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(r.rooms, name)
			}
		}
	}
	delete(r.memberships, c)
	c.clearRooms()
	left, roomCount := len(joined), len(r.rooms)
	r.mu.Unlock()

	metrics.SetActiveRooms(roomCount)
	return left
}

// Broadcast sends msg to every open member of room. A missing room is a
// no-op. Each member is isolated: a failing or panicking send is counted
// and the rest still receive the message.
func (r *RoomRegistry) Broadcast(room RoomID, msg Message) BroadcastResult {
	name := room.String()
	result := BroadcastResult{Room: name}

	members := r.Members(room)
	if len(members) == 0 {
		return result
	}

	data, err := MarshalMessage(msg)
	if err != nil {
		logging.Error().Err(err).Str("room", name).Str("type", msg.Type).Msg("failed to encode broadcast message")
		result.Failed = len(members)
		metrics.RecordBroadcast(0, result.Failed, 0)
		return result
	}

	for _, c := range members {
		if !c.IsOpen() {
			result.Skipped++
			continue
		}
		if err := sendIsolated(c, data); err != nil {
			result.Failed++
			logging.Warn().Err(err).Uint64("conn_id", c.id).Str("room", name).Msg("broadcast send failed")
			continue
		}
		result.Sent++
	}

	metrics.RecordBroadcast(result.Sent, result.Failed, result.Skipped)
	logging.Debug().
		Str("room", name).
		Str("type", msg.Type).
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("broadcast complete")
	return result
}

// sendIsolated converts a panic in a member's send into an error.
func sendIsolated(c *Connection, data []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("send panicked: %v", rec)
		}
	}()
	return c.SendRaw(data)
}

// RoomInfo describes room. A missing room reports zero members.
func (r *RoomRegistry) RoomInfo(room RoomID) RoomInfo {
	name := room.String()

	r.mu.RLock()
	count := len(r.rooms[name])
	r.mu.RUnlock()

	return RoomInfo{
		Name:        name,
		MemberCount: count,
		Type:        room.Kind().TypeName(),
	}
}

// Members returns the members of room sorted by connection ID.
func (r *RoomRegistry) Members(room RoomID) []*Connection {
	r.mu.RLock()
	set := r.rooms[room.String()]
	members := make([]*Connection, 0, len(set))
	for c := range set {
		members = append(members, c)
	}
	r.mu.RUnlock()

	sortByID(members)
	return members
}

// RoomsOf returns the sorted room names c belongs to.
func (r *RoomRegistry) RoomsOf(c *Connection) []string {
	r.mu.RLock()
	joined := r.memberships[c]
	names := make([]string, 0, len(joined))
	for name := range joined {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Rooms returns the sorted names of all rooms.
func (r *RoomRegistry) Rooms() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// RoomCount returns the number of rooms.
func (r *RoomRegistry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Clear drops every room and membership.
func (r *RoomRegistry) Clear() {
	r.mu.Lock()
	for c := range r.memberships {
		c.clearRooms()
	}
	clear(r.rooms)
	clear(r.memberships)
	r.mu.Unlock()

	metrics.SetActiveRooms(0)
	logging.Info().Msg("cleared all rooms")
}
