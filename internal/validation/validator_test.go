// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() should not return nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

type identityFixture struct {
	UserID string `json:"userId" validate:"notblank"`
	Role   string `json:"role" validate:"oneof=ADMIN CUSTOMER VENDOR"`
}

type roomFixture struct {
	Room string `json:"room" validate:"roomname"`
}

func TestValidateStruct_Valid(t *testing.T) {
	if err := ValidateStruct(&identityFixture{UserID: "u1", Role: "VENDOR"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateStruct(&roomFixture{Room: "payment:42"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantMsg   string
	}{
		{
			name:      "blank user id",
			input:     &identityFixture{UserID: "   ", Role: "ADMIN"},
			wantField: "userId",
			wantMsg:   "userId must not be blank",
		},
		{
			name:      "unknown role",
			input:     &identityFixture{UserID: "u1", Role: "admin"},
			wantField: "role",
			wantMsg:   "role must be one of: ADMIN CUSTOMER VENDOR",
		},
		{
			name:      "empty room",
			input:     &roomFixture{},
			wantField: "room",
			wantMsg:   "room must be a non-blank room name",
		},
		{
			name:      "room with control character",
			input:     &roomFixture{Room: "chat\x00"},
			wantField: "room",
		},
		{
			name:      "room too long",
			input:     &roomFixture{Room: strings.Repeat("r", MaxRoomNameLength+1)},
			wantField: "room",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !err.HasField(tt.wantField) {
				t.Errorf("expected field %q in %v", tt.wantField, err.Errors())
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want containing %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRequestValidationError_MultipleErrors(t *testing.T) {
	err := ValidateStruct(&identityFixture{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(err.Errors()), err.Errors())
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("expected joined messages, got %q", err.Error())
	}
	if err.Errors()[0].Tag() != "notblank" {
		t.Errorf("first tag = %q, want notblank", err.Errors()[0].Tag())
	}
}

func TestRequestValidationError_Empty(t *testing.T) {
	var ve RequestValidationError
	if ve.Error() != "validation failed" {
		t.Errorf("Error() = %q", ve.Error())
	}
}
