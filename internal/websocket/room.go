// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package websocket

import (
	"strings"

	"github.com/tomtom215/relaygate/internal/auth"
)

// RoomKind discriminates the RoomID variants.
type RoomKind int

const (
	RoomKindCustom RoomKind = iota
	RoomKindUser
	RoomKindRole
	RoomKindPayment
	RoomKindBroadcast
)

const (
	userRoomPrefix    = "user:"
	roleRoomPrefix    = "role:"
	paymentRoomPrefix = "payment:"
	broadcastRoomName = "broadcast"
)

// TypeName returns the room type reported by RoomInfo. Custom rooms are
// reported as broadcast rooms.
func (k RoomKind) TypeName() string {
	switch k {
	case RoomKindUser:
		return "user"
	case RoomKindRole:
		return "role"
	case RoomKindPayment:
		return "payment"
	default:
		return "broadcast"
	}
}

// RoomID identifies a room. The zero value is the custom room with an empty
// name and is never joined.
type RoomID struct {
	kind  RoomKind
	value string
}

// UserRoom is the private room of one user.
func UserRoom(userID string) RoomID {
	return RoomID{kind: RoomKindUser, value: userID}
}

// RoleRoom is the shared room of every connection holding role.
func RoleRoom(role auth.Role) RoomID {
	return RoomID{kind: RoomKindRole, value: role.Lower()}
}

// PaymentRoom follows a single payment.
func PaymentRoom(paymentID string) RoomID {
	return RoomID{kind: RoomKindPayment, value: paymentID}
}

// BroadcastRoom is joined by every connection.
func BroadcastRoom() RoomID {
	return RoomID{kind: RoomKindBroadcast}
}

// CustomRoom is any other client-chosen name.
func CustomRoom(name string) RoomID {
	return RoomID{kind: RoomKindCustom, value: name}
}

// Kind returns the variant.
func (r RoomID) Kind() RoomKind { return r.kind }

// Value returns the variant's argument: the user id, lower-case role,
// payment id or custom name. Empty for the broadcast room.
func (r RoomID) Value() string { return r.value }

// String returns the wire name of the room.
func (r RoomID) String() string {
	switch r.kind {
	case RoomKindUser:
		return userRoomPrefix + r.value
	case RoomKindRole:
		return roleRoomPrefix + r.value
	case RoomKindPayment:
		return paymentRoomPrefix + r.value
	case RoomKindBroadcast:
		return broadcastRoomName
	default:
		return r.value
	}
}

// ParseRoom classifies a wire name. ParseRoom(r.String()) == r for every
// room built by the constructors. Classification is textual only.
func ParseRoom(name string) RoomID {
	switch {
	case name == broadcastRoomName:
		return BroadcastRoom()
	case strings.HasPrefix(name, userRoomPrefix):
		return RoomID{kind: RoomKindUser, value: strings.TrimPrefix(name, userRoomPrefix)}
	case strings.HasPrefix(name, roleRoomPrefix):
		return RoomID{kind: RoomKindRole, value: strings.TrimPrefix(name, roleRoomPrefix)}
	case strings.HasPrefix(name, paymentRoomPrefix):
		return RoomID{kind: RoomKindPayment, value: strings.TrimPrefix(name, paymentRoomPrefix)}
	default:
		return CustomRoom(name)
	}
}
