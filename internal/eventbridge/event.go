// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package eventbridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// BrokerEvent is the body published by backend services.
type BrokerEvent struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp json.RawMessage        `json:"timestamp,omitempty"`
}

// DecodeEvent parses a delivery body.
func DecodeEvent(body []byte) (*BrokerEvent, error) {
	var ev BrokerEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	return &ev, nil
}

// EventType strips the first segment of a routing key:
// payments.payment.created becomes payment.created. Keys with a single
// segment are returned whole.
func EventType(routingKey string) string {
	if _, rest, found := strings.Cut(routingKey, "."); found && rest != "" {
		return rest
	}
	return routingKey
}

// stringField returns data[key] as a non-empty string. Numeric ids are
// formatted without exponent.
func stringField(data map[string]interface{}, key string) (string, bool) {
	switch v := data[key].(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return "", false
		}
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}
