// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package websocket

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/relaygate/internal/auth"
	"github.com/tomtom215/relaygate/internal/logging"
	"github.com/tomtom215/relaygate/internal/metrics"
)

// RegistryStats is a point-in-time view of the registry.
type RegistryStats struct {
	Total  int            `json:"total"`
	ByUser map[string]int `json:"byUser"`
	ByRole map[string]int `json:"byRole"`
}

// ConnectionRegistry tracks live connections by user. One user may hold
// many connections (tabs, devices). A user key is never kept with an
// empty set.
type ConnectionRegistry struct {
	mu     sync.RWMutex
	byUser map[string]map[*Connection]struct{}
	owners map[*Connection]string
}

// NewConnectionRegistry creates an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		byUser: make(map[string]map[*Connection]struct{}),
		owners: make(map[*Connection]string),
	}
}

// Add registers a connection under its user.
func (r *ConnectionRegistry) Add(c *Connection) {
	r.mu.Lock()
	set, ok := r.byUser[c.userID]
	if !ok {
		set = make(map[*Connection]struct{})
		r.byUser[c.userID] = set
	}
	set[c] = struct{}{}
	r.owners[c] = c.userID
	userConns, total := len(set), len(r.owners)
	r.mu.Unlock()

	metrics.SetActiveConnections(total)
	logging.Info().
		Uint64("conn_id", c.id).
		Str("user_id", c.userID).
		Int("user_connections", userConns).
		Int("total_connections", total).
		Msg("connection registered")
}

// Remove unregisters a connection. Removing an unknown connection is a no-op
// and returns false.
func (r *ConnectionRegistry) Remove(c *Connection) bool {
	r.mu.Lock()
	userID, ok := r.owners[c]
	if !ok {
		r.mu.Unlock()
		logging.Warn().Uint64("conn_id", c.id).Str("user_id", c.userID).Msg("remove of unregistered connection ignored")
		return false
	}
	delete(r.owners, c)
	set := r.byUser[userID]
	delete(set, c)
	userConns := len(set)
	if userConns == 0 {
		delete(r.byUser, userID)
	}
	total := len(r.owners)
	r.mu.Unlock()

	metrics.SetActiveConnections(total)
	logging.Info().
		Uint64("conn_id", c.id).
		Str("user_id", userID).
		Int("user_connections", userConns).
		Int("total_connections", total).
		Msg("connection unregistered")
	return true
}

// ByUser returns the connections of one user.
func (r *ConnectionRegistry) ByUser(userID string) []*Connection {
	r.mu.RLock()
	set := r.byUser[userID]
	conns := make([]*Connection, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	sortByID(conns)
	return conns
}

// ByRole returns the connections holding role. Roles are not indexed, so
// this scans every connection.
func (r *ConnectionRegistry) ByRole(role auth.Role) []*Connection {
	r.mu.RLock()
	conns := make([]*Connection, 0)
	for c := range r.owners {
		if c.role == role {
			conns = append(conns, c)
		}
	}
	r.mu.RUnlock()

	sortByID(conns)
	return conns
}

// All returns every registered connection.
func (r *ConnectionRegistry) All() []*Connection {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.owners))
	for c := range r.owners {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	sortByID(conns)
	return conns
}

// Contains reports whether c is registered.
func (r *ConnectionRegistry) Contains(c *Connection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.owners[c]
	return ok
}

// Count returns the number of registered connections.
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners)
}

// Stats returns a snapshot of connection counts.
func (r *ConnectionRegistry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		Total:  len(r.owners),
		ByUser: make(map[string]int, len(r.byUser)),
		ByRole: make(map[string]int),
	}
	for userID, set := range r.byUser {
		stats.ByUser[userID] = len(set)
	}
	for c := range r.owners {
		stats.ByRole[string(c.role)]++
	}
	return stats
}

// CloseAll closes every connection with 1001 (going away) and empties the
// registry. Individual close failures are logged and do not stop the sweep.
// It returns the number of connections that were registered.
func (r *ConnectionRegistry) CloseAll() int {
	conns := r.All()

	for _, c := range conns {
		if err := c.Close(websocket.CloseGoingAway, "server shutting down"); err != nil {
			logging.Warn().Err(err).Uint64("conn_id", c.id).Msg("failed to close connection during shutdown")
		}
	}

	r.mu.Lock()
	clear(r.byUser)
	clear(r.owners)
	r.mu.Unlock()

	metrics.SetActiveConnections(0)
	logging.Info().Int("connections_closed", len(conns)).Msg("closed all websocket connections")
	return len(conns)
}
