// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/relaygate/internal/logging"
)

// gorillaTransport adapts a gorilla/websocket connection to Transport.
// Data frames go through a buffered queue drained by writePump; control
// frames use WriteControl, which gorilla allows concurrently with writes.
type gorillaTransport struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	writeWait time.Duration

	open      atomic.Bool
	closeOnce sync.Once
}

func newGorillaTransport(conn *websocket.Conn, buffer int, writeWait time.Duration) *gorillaTransport {
	t := &gorillaTransport{
		conn:      conn,
		send:      make(chan []byte, buffer),
		done:      make(chan struct{}),
		writeWait: writeWait,
	}
	t.open.Store(true)
	return t
}

func (t *gorillaTransport) Send(data []byte) error {
	if !t.open.Load() {
		return ErrConnectionClosed
	}
	select {
	case <-t.done:
		return ErrConnectionClosed
	case t.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (t *gorillaTransport) Ping() error {
	if !t.open.Load() {
		return ErrConnectionClosed
	}
	return t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(t.writeWait))
}

func (t *gorillaTransport) Close(code int, reason string) error {
	var err error
	t.closeOnce.Do(func() {
		t.open.Store(false)
		err = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), time.Now().Add(t.writeWait))
		close(t.done)
		if cerr := t.conn.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

func (t *gorillaTransport) Terminate() error {
	var err error
	t.closeOnce.Do(func() {
		t.open.Store(false)
		close(t.done)
		err = t.conn.Close()
	})
	return err
}

func (t *gorillaTransport) IsOpen() bool {
	return t.open.Load()
}

// writePump drains the send queue to the socket until the transport closes.
// A write failure terminates the transport, which ends the read pump too.
func (t *gorillaTransport) writePump() {
	for {
		// Priority 1: stop as soon as the transport is closed
		select {
		case <-t.done:
			return
		default:
		}

		select {
		case <-t.done:
			return
		case data := <-t.send:
			if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeWait)); err != nil {
				_ = t.Terminate()
				return
			}
			if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Debug().Err(err).Msg("websocket write failed")
				_ = t.Terminate()
				return
			}
		}
	}
}
