// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the gateway. It caches struct
// metadata, so it is created once and reused by every caller.
//
// # Custom Tags
//
//   - notblank: the string must contain a non-whitespace character
//   - roomname: a room name accepted from clients (non-blank, at most
//     MaxRoomNameLength bytes, no control characters)
//
// # Usage
//
//	type subscribePayload struct {
//	    Room string `json:"room" validate:"roomname"`
//	}
//
//	if verr := validation.ValidateStruct(&p); verr != nil {
//	    reply(verr.Error())
//	}
//
// Errors are returned as *RequestValidationError, whose Error method joins
// one readable message per failed field.
package validation
