// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package websocket

import (
	"time"

	"github.com/goccy/go-json"
)

// Client-originated message types.
const (
	MessageTypePing        = "ping"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeMessage     = "message"
)

// Server-originated message types.
const (
	MessageTypePong         = "pong"
	MessageTypeSubscribed   = "subscribed"
	MessageTypeUnsubscribed = "unsubscribed"
	MessageTypeEvent        = "event"
	MessageTypeError        = "error"
	MessageTypeConnected    = "connected"
)

// timestampLayout is ISO-8601 in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Message is the wire envelope used in both directions.
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
	ID        string      `json:"id,omitempty"`
}

// NewMessage builds an outbound message stamped with the current time.
func NewMessage(msgType string, payload interface{}) Message {
	return Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: FormatTimestamp(time.Now()),
	}
}

// FormatTimestamp renders t in the envelope timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// WithID returns a copy of m carrying the correlation id.
func (m Message) WithID(id string) Message {
	m.ID = id
	return m
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// inboundMessage is the decoded form of a client frame. The payload is kept
// raw so each message type decodes its own shape.
type inboundMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	ID        string          `json:"id,omitempty"`
}

// ConnectedPayload confirms a completed handshake.
type ConnectedPayload struct {
	UserID string   `json:"userId"`
	Rooms  []string `json:"rooms"`
}

// RoomPayload names a room in subscribe and unsubscribe exchanges.
type RoomPayload struct {
	Room string `json:"room" validate:"roomname"`
}

// ErrorPayload describes a rejected client message.
type ErrorPayload struct {
	Message string `json:"message"`
}

// EventPayload carries a broker event to clients.
type EventPayload struct {
	EventType string      `json:"eventType"`
	Data      interface{} `json:"data"`
}

// ErrorMessage builds an error reply.
func ErrorMessage(text string) Message {
	return NewMessage(MessageTypeError, ErrorPayload{Message: text})
}
