// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package websocket

import (
	"testing"

	"github.com/tomtom215/relaygate/internal/auth"
)

func TestRoomID_StringAndParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		room     RoomID
		wire     string
		kind     RoomKind
		typeName string
	}{
		{UserRoom("u1"), "user:u1", RoomKindUser, "user"},
		{RoleRoom(auth.RoleVendor), "role:vendor", RoomKindRole, "role"},
		{PaymentRoom("p-42"), "payment:p-42", RoomKindPayment, "payment"},
		{BroadcastRoom(), "broadcast", RoomKindBroadcast, "broadcast"},
		{CustomRoom("lobby"), "lobby", RoomKindCustom, "broadcast"},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			if got := tt.room.String(); got != tt.wire {
				t.Errorf("String() = %q, want %q", got, tt.wire)
			}
			parsed := ParseRoom(tt.wire)
			if parsed != tt.room {
				t.Errorf("ParseRoom(%q) = %+v, want %+v", tt.wire, parsed, tt.room)
			}
			if parsed.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", parsed.Kind(), tt.kind)
			}
			if parsed.Kind().TypeName() != tt.typeName {
				t.Errorf("TypeName() = %q, want %q", parsed.Kind().TypeName(), tt.typeName)
			}
		})
	}
}

func TestParseRoom_Textual(t *testing.T) {
	t.Parallel()

	if r := ParseRoom("user:"); r.Kind() != RoomKindUser || r.Value() != "" {
		t.Errorf("ParseRoom(user:) = %+v", r)
	}
	if r := ParseRoom("broadcaster"); r.Kind() != RoomKindCustom {
		t.Errorf("ParseRoom(broadcaster) kind = %v, want custom", r.Kind())
	}
	if r := ParseRoom("role:ADMIN"); r.String() != "role:ADMIN" {
		t.Errorf("role round trip = %q", r.String())
	}
}
