// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package eventbridge

import (
	"github.com/tomtom215/relaygate/internal/auth"
	"github.com/tomtom215/relaygate/internal/websocket"
)

// Route binds one routing-key prefix to its target rooms.
type Route struct {
	// Prefix is the first routing-key segment and the queue suffix.
	Prefix string

	// Targets returns the rooms an event is delivered to. ok is false when
	// the event lacks the identity the route needs and must be dropped.
	Targets func(data map[string]interface{}) (rooms []websocket.RoomID, ok bool)
}

// Pattern is the wildcard binding for the route.
func (r Route) Pattern() string { return r.Prefix + ".#" }

// Routes is the fixed routing table, one subscription per entry.
var Routes = []Route{
	{Prefix: "payments", Targets: paymentTargets},
	{Prefix: "auth", Targets: userTargets},
	{Prefix: "admin", Targets: adminTargets},
	{Prefix: "user", Targets: userTargets},
}

// paymentTargets always includes the admin role room. The user room is
// added when the event names a sender or user.
func paymentTargets(data map[string]interface{}) ([]websocket.RoomID, bool) {
	rooms := make([]websocket.RoomID, 0, 2)
	if id, ok := stringField(data, "senderId"); ok {
		rooms = append(rooms, websocket.UserRoom(id))
	} else if id, ok := stringField(data, "userId"); ok {
		rooms = append(rooms, websocket.UserRoom(id))
	}
	return append(rooms, websocket.RoleRoom(auth.RoleAdmin)), true
}

func userTargets(data map[string]interface{}) ([]websocket.RoomID, bool) {
	id, ok := stringField(data, "userId")
	if !ok {
		return nil, false
	}
	return []websocket.RoomID{websocket.UserRoom(id)}, true
}

func adminTargets(map[string]interface{}) ([]websocket.RoomID, bool) {
	return []websocket.RoomID{websocket.RoleRoom(auth.RoleAdmin)}, true
}
