// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package websocket

import (
	"errors"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/relaygate/internal/auth"
)

func TestConnectionRegistry_AddRemove(t *testing.T) {
	r := NewConnectionRegistry()
	c1, _ := newTestConn("u1", auth.RoleVendor)
	c2, _ := newTestConn("u1", auth.RoleVendor)
	c3, _ := newTestConn("u2", auth.RoleAdmin)

	r.Add(c1)
	r.Add(c2)
	r.Add(c3)

	if got := r.Count(); got != 3 {
		t.Fatalf("Count() = %d, want 3", got)
	}
	if got := r.ByUser("u1"); len(got) != 2 || got[0] != c1 || got[1] != c2 {
		t.Errorf("ByUser(u1) = %v, want [c1 c2] in ID order", got)
	}

	if !r.Remove(c1) {
		t.Error("first Remove should report true")
	}
	if r.Remove(c1) {
		t.Error("second Remove should report false")
	}
	if got := r.Count(); got != 2 {
		t.Errorf("Count() after idempotent remove = %d, want 2", got)
	}

	r.Remove(c2)
	r.mu.RLock()
	_, present := r.byUser["u1"]
	r.mu.RUnlock()
	if present {
		t.Error("user key with no connections must be deleted")
	}
	if got := r.ByUser("u1"); len(got) != 0 {
		t.Errorf("ByUser(u1) = %v, want empty", got)
	}
}

func TestConnectionRegistry_ByRoleAndStats(t *testing.T) {
	r := NewConnectionRegistry()
	a, _ := newTestConn("admin-1", auth.RoleAdmin)
	v1, _ := newTestConn("vendor-1", auth.RoleVendor)
	v2, _ := newTestConn("vendor-1", auth.RoleVendor)
	c, _ := newTestConn("cust-1", auth.RoleCustomer)
	for _, conn := range []*Connection{a, v1, v2, c} {
		r.Add(conn)
	}

	vendors := r.ByRole(auth.RoleVendor)
	if len(vendors) != 2 || vendors[0] != v1 || vendors[1] != v2 {
		t.Errorf("ByRole(VENDOR) = %v", vendors)
	}

	stats := r.Stats()
	if stats.Total != 4 {
		t.Errorf("Total = %d, want 4", stats.Total)
	}
	if stats.ByUser["vendor-1"] != 2 || stats.ByUser["admin-1"] != 1 {
		t.Errorf("ByUser = %v", stats.ByUser)
	}
	if stats.ByRole["VENDOR"] != 2 || stats.ByRole["ADMIN"] != 1 || stats.ByRole["CUSTOMER"] != 1 {
		t.Errorf("ByRole = %v", stats.ByRole)
	}

	// Snapshot, not a live view
	r.Remove(a)
	if stats.Total != 4 {
		t.Error("stats snapshot changed after Remove")
	}
}

func TestConnectionRegistry_AllSortedByID(t *testing.T) {
	r := NewConnectionRegistry()
	conns := make([]*Connection, 0, 10)
	for i := 0; i < 10; i++ {
		c, _ := newTestConn("u", auth.RoleCustomer)
		conns = append(conns, c)
	}
	for i := len(conns) - 1; i >= 0; i-- {
		r.Add(conns[i])
	}

	all := r.All()
	for i := 1; i < len(all); i++ {
		if all[i-1].ID() >= all[i].ID() {
			t.Fatalf("All() not sorted by ID at %d", i)
		}
	}
}

func TestConnectionRegistry_CloseAll(t *testing.T) {
	r := NewConnectionRegistry()

	if n := r.CloseAll(); n != 0 {
		t.Errorf("CloseAll() on empty registry = %d, want 0", n)
	}

	c1, t1 := newTestConn("u1", auth.RoleAdmin)
	c2, t2 := newTestConn("u2", auth.RoleVendor)
	c3, t3 := newTestConn("u3", auth.RoleVendor)
	t2.closeErr = errors.New("close failed")
	r.Add(c1)
	r.Add(c2)
	r.Add(c3)

	if n := r.CloseAll(); n != 3 {
		t.Errorf("CloseAll() = %d, want 3", n)
	}
	for i, ft := range []*fakeTransport{t1, t2, t3} {
		if code := ft.lastCloseCode(); code != websocket.CloseGoingAway {
			t.Errorf("transport %d close code = %d, want %d", i, code, websocket.CloseGoingAway)
		}
	}
	if r.Count() != 0 {
		t.Errorf("Count() after CloseAll = %d, want 0", r.Count())
	}
	if stats := r.Stats(); len(stats.ByUser) != 0 {
		t.Errorf("ByUser after CloseAll = %v", stats.ByUser)
	}
}

func TestConnectionRegistry_Concurrent(t *testing.T) {
	r := NewConnectionRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, _ := newTestConn("shared", auth.RoleCustomer)
			r.Add(c)
			_ = r.Stats()
			_ = r.ByRole(auth.RoleCustomer)
			r.Remove(c)
		}()
	}
	wg.Wait()

	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
	if len(r.Stats().ByUser) != 0 {
		t.Error("expected no user keys after concurrent add/remove")
	}
}
