// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package websocket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/relaygate/internal/auth"
	"github.com/tomtom215/relaygate/internal/logging"
	"github.com/tomtom215/relaygate/internal/metrics"
	"github.com/tomtom215/relaygate/internal/validation"
)

// Authenticator verifies an upgrade request URL.
type Authenticator interface {
	Authenticate(u *url.URL) (*auth.Identity, error)
}

// Bridge is the event bridge as seen by the server during shutdown.
type Bridge interface {
	Stop(ctx context.Context) error
}

// Options configures a ConnectionServer.
type Options struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration

	HeartbeatInterval time.Duration
	WriteWait         time.Duration
	HandshakeTimeout  time.Duration
	MaxMessageSize    int64
	SendBuffer        int

	// InboundRate is messages per second per connection; zero disables limiting.
	InboundRate  float64
	InboundBurst int

	// MaxRooms caps the rooms one connection may belong to, auto-joined
	// rooms included. Zero means no cap.
	MaxRooms int

	// CheckOrigin validates the Origin header of upgrade requests.
	// nil applies gorilla's same-origin check.
	CheckOrigin func(r *http.Request) bool
}

// DefaultOptions returns the gateway defaults.
func DefaultOptions() Options {
	return Options{
		Addr:              ":8080",
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		HeartbeatInterval: DefaultHeartbeatInterval,
		WriteWait:         10 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		MaxMessageSize:    64 * 1024,
		SendBuffer:        256,
		InboundRate:       20,
		InboundBurst:      40,
		MaxRooms:          DefaultMaxRooms,
	}
}

// DefaultMaxRooms is the default per-connection room cap.
const DefaultMaxRooms = 100

// unauthorizedResponse is written to the raw socket when authentication
// fails. No WebSocket protocol has been negotiated at that point.
const unauthorizedResponse = "HTTP/1.1 401 Unauthorized\r\n\r\n"

// ConnectionServer accepts WebSocket upgrades, registers connections,
// dispatches client messages and orchestrates shutdown. It owns the HTTP
// listener; the handler tree is injected with SetHandler.
type ConnectionServer struct {
	opts      Options
	auth      Authenticator
	conns     *ConnectionRegistry
	rooms     *RoomRegistry
	heartbeat *HeartbeatMonitor
	upgrader  websocket.Upgrader

	httpServer *http.Server

	bridgeMu sync.RWMutex
	bridge   Bridge

	listening    atomic.Bool
	shuttingDown atomic.Bool
}

// NewConnectionServer wires the server to its registries.
func NewConnectionServer(opts Options, authn Authenticator, conns *ConnectionRegistry, rooms *RoomRegistry) *ConnectionServer {
	defaults := DefaultOptions()
	if opts.WriteWait <= 0 {
		opts.WriteWait = defaults.WriteWait
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = defaults.MaxMessageSize
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaults.SendBuffer
	}

	s := &ConnectionServer{
		opts:  opts,
		auth:  authn,
		conns: conns,
		rooms: rooms,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: opts.HandshakeTimeout,
			CheckOrigin:      opts.CheckOrigin,
		},
	}
	s.heartbeat = NewHeartbeatMonitor(conns, opts.HeartbeatInterval, s.teardown)
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           http.HandlerFunc(s.HandleUpgrade),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		IdleTimeout:       opts.IdleTimeout,
		// No WriteTimeout: proxied bodies and hijacked sockets are long-lived.
	}
	return s
}

// SetHandler installs the HTTP handler tree. Call before serving.
func (s *ConnectionServer) SetHandler(h http.Handler) {
	s.httpServer.Handler = h
}

// SetBridge registers the event bridge stopped first during shutdown.
func (s *ConnectionServer) SetBridge(b Bridge) {
	s.bridgeMu.Lock()
	s.bridge = b
	s.bridgeMu.Unlock()
}

func (s *ConnectionServer) getBridge() Bridge {
	s.bridgeMu.RLock()
	defer s.bridgeMu.RUnlock()
	return s.bridge
}

// Connections returns the connection registry.
func (s *ConnectionServer) Connections() *ConnectionRegistry { return s.conns }

// Rooms returns the room registry.
func (s *ConnectionServer) Rooms() *RoomRegistry { return s.rooms }

// Heartbeat returns the heartbeat monitor.
func (s *ConnectionServer) Heartbeat() *HeartbeatMonitor { return s.heartbeat }

// Ready reports whether the listener is up and the server is not shutting down.
func (s *ConnectionServer) Ready() bool {
	return s.listening.Load() && !s.shuttingDown.Load()
}

// ListenAndServe binds the configured address and serves until Shutdown.
// It returns http.ErrServerClosed after a graceful shutdown.
func (s *ConnectionServer) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *ConnectionServer) Serve(ln net.Listener) error {
	if s.shuttingDown.Load() {
		_ = ln.Close()
		return http.ErrServerClosed
	}

	if !s.heartbeat.IsRunning() {
		s.heartbeat.Start()
	}
	s.listening.Store(true)
	defer s.listening.Store(false)

	logging.Info().Str("addr", ln.Addr().String()).Msg("gateway listening")
	return s.httpServer.Serve(ln)
}

// Shutdown stops the gateway in order: event bridge, heartbeat monitor,
// open connections (1001), rooms, listener. Every step tolerates a
// component that is already stopped or empty, so Shutdown may be called
// more than once.
func (s *ConnectionServer) Shutdown(ctx context.Context) error {
	if s.shuttingDown.Swap(true) {
		logging.Debug().Msg("gateway shutdown already in progress")
	}
	start := time.Now()

	if b := s.getBridge(); b != nil {
		if err := b.Stop(ctx); err != nil {
			logging.Warn().Err(err).Msg("event bridge stop failed during shutdown")
		}
	}

	s.heartbeat.Stop()
	closed := s.conns.CloseAll()
	s.rooms.Clear()

	err := s.httpServer.Shutdown(ctx)

	logging.Info().
		Str("component", "connection-server").
		Int("connections_closed", closed).
		Dur("duration", time.Since(start)).
		Msg("gateway stopped")

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// HandleUpgrade authenticates and upgrades a WebSocket request. Requests
// that fail authentication receive a bare 401 status line on the raw
// socket and are never upgraded.
func (s *ConnectionServer) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	if s.shuttingDown.Load() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	identity, err := s.auth.Authenticate(r.URL)
	if err != nil {
		reason := auth.Reason(err)
		metrics.RecordAuthFailure(reason)
		logging.Ctx(r.Context()).Warn().
			Str("reason", reason).
			Str("remote_addr", r.RemoteAddr).
			Msg("websocket authentication failed")
		rejectUnauthorized(w)
		return
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		metrics.RecordWSError("upgrade")
		logging.Ctx(r.Context()).Warn().Err(err).Str("user_id", identity.UserID).Msg("websocket upgrade failed")
		return
	}

	transport := newGorillaTransport(wsConn, s.opts.SendBuffer, s.opts.WriteWait)
	c := NewConnection(transport, *identity, s.newLimiter())

	s.conns.Add(c)
	for _, room := range []RoomID{UserRoom(c.userID), RoleRoom(c.role), BroadcastRoom()} {
		s.rooms.Join(c, room)
	}

	if s.shuttingDown.Load() {
		_ = c.Close(websocket.CloseGoingAway, "server shutting down")
		s.teardown(c)
		return
	}

	metrics.RecordConnectionAccepted()
	logging.Info().
		Uint64("conn_id", c.id).
		Str("session_id", c.sessionID).
		Str("user_id", c.userID).
		Str("role", string(c.role)).
		Msg("websocket client connected")

	if err := c.Send(NewMessage(MessageTypeConnected, ConnectedPayload{UserID: c.userID, Rooms: c.Rooms()})); err != nil {
		logging.Warn().Err(err).Uint64("conn_id", c.id).Msg("failed to queue connected message")
	}

	go transport.writePump()
	go s.readPump(c, wsConn)
}

func (s *ConnectionServer) newLimiter() *rate.Limiter {
	if s.opts.InboundRate <= 0 {
		return nil
	}
	burst := s.opts.InboundBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(s.opts.InboundRate), burst)
}

// rejectUnauthorized writes a bare 401 status line to the hijacked socket
// and closes it.
func rejectUnauthorized(w http.ResponseWriter) {
	conn, bufrw, err := http.NewResponseController(w).Hijack()
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, _ = bufrw.WriteString(unauthorizedResponse)
	_ = bufrw.Flush()
}

// readPump reads client frames in arrival order until the socket fails.
func (s *ConnectionServer) readPump(c *Connection, wsConn *websocket.Conn) {
	defer s.teardown(c)

	wsConn.SetReadLimit(s.opts.MaxMessageSize)
	wsConn.SetPongHandler(func(string) error {
		c.MarkAlive()
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if c.IsOpen() && websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				metrics.RecordWSError("read")
				logging.Debug().Err(err).Uint64("conn_id", c.id).Msg("unexpected websocket close")
			}
			return
		}
		c.Touch()
		s.dispatch(c, data)
	}
}

// dispatch handles one client frame. Bad input gets an error reply and
// never closes the connection. A panic is contained to the frame.
func (s *ConnectionServer) dispatch(c *Connection, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordWSError("panic")
			logging.Error().
				Uint64("conn_id", c.id).
				Interface("panic", r).
				Msg("recovered from panic while handling client message")
		}
	}()

	if !c.allowInbound() {
		metrics.RecordWSError("rate_limited")
		s.reply(c, ErrorMessage("rate limit exceeded"), "")
		return
	}

	var in inboundMessage
	if err := json.Unmarshal(data, &in); err != nil {
		metrics.RecordWSError("malformed")
		s.reply(c, ErrorMessage("invalid message format"), "")
		return
	}
	if in.Type == "" {
		s.reply(c, ErrorMessage("message type is required"), in.ID)
		return
	}
	metrics.RecordMessageReceived(inboundTypeLabel(in.Type))

	switch in.Type {
	case MessageTypePing:
		s.reply(c, NewMessage(MessageTypePong, nil), in.ID)

	case MessageTypeSubscribe, MessageTypeUnsubscribe:
		room, ok := s.decodeRoom(c, in)
		if !ok {
			return
		}
		if in.Type == MessageTypeSubscribe {
			if s.atRoomLimit(c, room) {
				metrics.RecordWSError("room_limit")
				s.reply(c, ErrorMessage(fmt.Sprintf("room limit of %d reached", s.opts.MaxRooms)), in.ID)
				return
			}
			s.rooms.Join(c, room)
			s.reply(c, NewMessage(MessageTypeSubscribed, RoomPayload{Room: room.String()}), in.ID)
		} else {
			s.rooms.Leave(c, room)
			s.reply(c, NewMessage(MessageTypeUnsubscribed, RoomPayload{Room: room.String()}), in.ID)
		}

	default:
		logging.Debug().
			Uint64("conn_id", c.id).
			Str("type", in.Type).
			Msg("unhandled client message type")
	}
}

// inboundTypeLabel bounds the metric label to the known client types.
func inboundTypeLabel(msgType string) string {
	switch msgType {
	case MessageTypePing, MessageTypeSubscribe, MessageTypeUnsubscribe, MessageTypeMessage:
		return msgType
	default:
		return "unknown"
	}
}

// atRoomLimit reports whether joining room would exceed MaxRooms. Joining a
// room the connection is already in never counts.
func (s *ConnectionServer) atRoomLimit(c *Connection, room RoomID) bool {
	if s.opts.MaxRooms <= 0 {
		return false
	}
	return !c.inRoom(room.String()) && c.roomCount() >= s.opts.MaxRooms
}

func (s *ConnectionServer) decodeRoom(c *Connection, in inboundMessage) (RoomID, bool) {
	var p RoomPayload
	if len(in.Payload) > 0 {
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			s.reply(c, ErrorMessage("invalid "+in.Type+" payload"), in.ID)
			return RoomID{}, false
		}
	}
	if verr := validation.ValidateStruct(&p); verr != nil {
		s.reply(c, ErrorMessage(verr.Error()), in.ID)
		return RoomID{}, false
	}
	return ParseRoom(p.Room), true
}

func (s *ConnectionServer) reply(c *Connection, msg Message, id string) {
	if err := c.Send(msg.WithID(id)); err != nil {
		logging.Debug().Err(err).Uint64("conn_id", c.id).Str("type", msg.Type).Msg("reply dropped")
	}
}

// teardown runs once per connection. Rooms are left before the connection
// is unregistered.
func (s *ConnectionServer) teardown(c *Connection) {
	c.teardownOnce.Do(func() {
		c.closing.Store(true)
		left := s.rooms.LeaveAll(c)
		if !s.shuttingDown.Load() || s.conns.Contains(c) {
			s.conns.Remove(c)
		}
		_ = c.Terminate()

		logging.Info().
			Uint64("conn_id", c.id).
			Str("session_id", c.sessionID).
			Str("user_id", c.userID).
			Int("rooms_left", left).
			Dur("connected_for", time.Since(c.connectedAt)).
			Msg("websocket client disconnected")
	})
}
