// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/relaygate/internal/validation"
)

// Claims represents the JWT payload issued by the platform auth service.
// iat and exp are optional.
type Claims struct {
	UserID string `json:"userId" validate:"notblank"`
	Email  string `json:"email" validate:"notblank"`
	Role   string `json:"role" validate:"oneof=ADMIN CUSTOMER VENDOR"`
	jwt.RegisteredClaims
}

// Identity returns the identity carried by validated claims.
func (c *Claims) Identity() *Identity {
	return &Identity{
		UserID: c.UserID,
		Email:  c.Email,
		Role:   Role(c.Role),
	}
}

// JWTManager handles JWT token creation and validation
type JWTManager struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTManager creates a token manager for the shared HS256 secret.
func NewJWTManager(secret string) (*JWTManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}

	return &JWTManager{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// GenerateToken signs a token for the identity. A ttl of zero omits exp.
// The gateway itself never issues tokens; this serves tests and local tooling.
func (m *JWTManager) GenerateToken(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: id.UserID,
		Email:  id.Email,
		Role:   string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken verifies the signature and expiry of a token and validates
// its payload. Errors wrap ErrTokenInvalid, ErrTokenExpired or ErrPayloadInvalid.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	if verr := validation.ValidateStruct(claims); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrPayloadInvalid, verr.Error())
	}

	return claims, nil
}
