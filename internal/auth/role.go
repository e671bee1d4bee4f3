// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package auth

import "strings"

// Role is the platform role carried in the token payload.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
	RoleVendor   Role = "VENDOR"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleCustomer, RoleVendor}

// Valid reports whether r is one of the platform roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleVendor:
		return true
	}
	return false
}

// Lower returns the role in lower case, as used in room names.
func (r Role) Lower() string {
	return strings.ToLower(string(r))
}

// ParseRole parses a role case-insensitively.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Identity is the verified user behind a connection.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}
