// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package eventprocessor

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
)

// mockJetStream records stream management calls.
type mockJetStream struct {
	streamErr error
	createErr error
	updateErr error

	created []jetstream.StreamConfig
	updated []jetstream.StreamConfig
}

func (m *mockJetStream) Stream(context.Context, string) (jetstream.Stream, error) {
	return nil, m.streamErr
}

func (m *mockJetStream) CreateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	m.created = append(m.created, cfg)
	return nil, m.createErr
}

func (m *mockJetStream) UpdateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	m.updated = append(m.updated, cfg)
	return nil, m.updateErr
}

func TestNewStreamInitializer_Validation(t *testing.T) {
	cfg := DefaultStreamConfig()

	if _, err := NewStreamInitializer(nil, &cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil JetStream: error = %v", err)
	}
	if _, err := NewStreamInitializer(&mockJetStream{}, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil config: error = %v", err)
	}
	empty := StreamConfig{Name: "X"}
	if _, err := NewStreamInitializer(&mockJetStream{}, &empty); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("no subjects: error = %v", err)
	}
}

func TestEnsureStream(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultStreamConfig()

	t.Run("creates missing stream", func(t *testing.T) {
		js := &mockJetStream{streamErr: jetstream.ErrStreamNotFound}
		si, err := NewStreamInitializer(js, &cfg)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := si.EnsureStream(ctx); err != nil {
			t.Fatalf("EnsureStream() error = %v", err)
		}
		if len(js.created) != 1 || len(js.updated) != 0 {
			t.Fatalf("created=%d updated=%d, want 1/0", len(js.created), len(js.updated))
		}
		got := js.created[0]
		if got.Name != "PLATFORM_EVENTS" || len(got.Subjects) != 4 {
			t.Errorf("stream config = %+v", got)
		}
		if got.Storage != jetstream.FileStorage || got.Retention != jetstream.LimitsPolicy {
			t.Errorf("storage/retention = %v/%v", got.Storage, got.Retention)
		}
	})

	t.Run("updates existing stream", func(t *testing.T) {
		js := &mockJetStream{}
		si, _ := NewStreamInitializer(js, &cfg)
		if _, err := si.EnsureStream(ctx); err != nil {
			t.Fatalf("EnsureStream() error = %v", err)
		}
		if len(js.created) != 0 || len(js.updated) != 1 {
			t.Errorf("created=%d updated=%d, want 0/1", len(js.created), len(js.updated))
		}
	})

	t.Run("propagates lookup errors", func(t *testing.T) {
		lookupErr := errors.New("timeout")
		js := &mockJetStream{streamErr: lookupErr}
		si, _ := NewStreamInitializer(js, &cfg)
		if _, err := si.EnsureStream(ctx); !errors.Is(err, lookupErr) {
			t.Errorf("EnsureStream() error = %v, want wrapped lookup error", err)
		}
		if len(js.created)+len(js.updated) != 0 {
			t.Error("no stream should be created or updated on lookup failure")
		}
	})

	t.Run("propagates create errors", func(t *testing.T) {
		createErr := errors.New("insufficient resources")
		js := &mockJetStream{streamErr: jetstream.ErrStreamNotFound, createErr: createErr}
		si, _ := NewStreamInitializer(js, &cfg)
		if _, err := si.EnsureStream(ctx); !errors.Is(err, createErr) {
			t.Errorf("EnsureStream() error = %v", err)
		}
	})
}

func TestStreamInitializer_IsHealthy(t *testing.T) {
	cfg := DefaultStreamConfig()

	si, _ := NewStreamInitializer(&mockJetStream{}, &cfg)
	if !si.IsHealthy(context.Background()) {
		t.Error("IsHealthy() = false for existing stream")
	}

	si, _ = NewStreamInitializer(&mockJetStream{streamErr: jetstream.ErrStreamNotFound}, &cfg)
	if si.IsHealthy(context.Background()) {
		t.Error("IsHealthy() = true for missing stream")
	}
	if si.Config().Name != cfg.Name {
		t.Errorf("Config().Name = %q", si.Config().Name)
	}
}
