// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package auth

import (
	"net/url"
	"strings"
)

// TokenQueryParam is the upgrade URL query parameter holding the token.
const TokenQueryParam = "token"

// TokenAuthenticator authenticates WebSocket upgrade requests.
type TokenAuthenticator struct {
	manager *JWTManager
}

// NewTokenAuthenticator creates an authenticator backed by manager.
func NewTokenAuthenticator(manager *JWTManager) *TokenAuthenticator {
	return &TokenAuthenticator{manager: manager}
}

// Authenticate extracts the token from the request URL and verifies it.
func (a *TokenAuthenticator) Authenticate(u *url.URL) (*Identity, error) {
	if u == nil {
		return nil, ErrMissingToken
	}

	token := strings.TrimSpace(u.Query().Get(TokenQueryParam))
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := a.manager.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return claims.Identity(), nil
}
