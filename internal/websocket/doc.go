// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

/*
Package websocket implements the real-time half of the gateway: authenticated
WebSocket connections, room membership and fan-out, and liveness probing.

# Components

  - ConnectionServer: authenticates upgrades (token query parameter), auto-joins
    each connection to its user, role and broadcast rooms, dispatches client
    messages and runs the ordered shutdown.
  - ConnectionRegistry: live connections grouped by user.
  - RoomRegistry: named rooms and their members. Empty rooms are deleted.
  - HeartbeatMonitor: pings every connection once per interval and terminates
    peers that missed the previous ping.

# Rooms

Room names are typed by prefix:

	user:<id>        private room of one user
	role:<role>      every connection holding the role (lower-case)
	payment:<id>     followers of one payment
	broadcast        every connection
	<anything else>  custom rooms joined by subscribe

# Wire Protocol

Every frame is a JSON envelope:

	{"type":"subscribe","payload":{"room":"payment:p1"},"timestamp":"2026-01-01T00:00:00.000Z","id":"req-7"}

Clients send ping, subscribe, unsubscribe and message. The server sends
connected, pong, subscribed, unsubscribed, event and error. Replies echo the
request id. Bad input produces an error message and never closes the socket.

# Concurrency

Registries are guarded by RWMutex and never perform I/O under their lock.
Each connection has one read goroutine and one write goroutine; Send only
enqueues and fails fast with ErrSendBufferFull when the queue is full.
*/
package websocket
