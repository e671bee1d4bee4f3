// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

/*
Package auth verifies the bearer tokens presented on WebSocket upgrade requests.

Tokens are HS256 JWTs issued by the platform's auth service and signed with
a secret shared with the gateway. The payload carries the user identity:

	{"userId": "u1", "email": "u1@example.com", "role": "VENDOR", "iat": ..., "exp": ...}

TokenAuthenticator reads the token from the "token" query parameter of the
upgrade URL, verifies it with JWTManager and validates the payload. Every
failure maps onto one of four sentinel errors:

  - ErrMissingToken: no token, or an empty one
  - ErrTokenInvalid: bad signature, malformed token or unexpected algorithm
  - ErrTokenExpired: the exp claim has elapsed
  - ErrPayloadInvalid: userId or email blank, or role outside ADMIN|CUSTOMER|VENDOR

The caller rejects the upgrade on any of them. Authentication has no side
effects; metrics and logging are left to the caller.
*/
package auth
