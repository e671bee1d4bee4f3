// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/relaygate/internal/auth"
	"github.com/tomtom215/relaygate/internal/eventbridge"
	"github.com/tomtom215/relaygate/internal/logging"
	"github.com/tomtom215/relaygate/internal/proxy"
	"github.com/tomtom215/relaygate/internal/testinfra"
	"github.com/tomtom215/relaygate/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// nopTransport accepts every frame.
type nopTransport struct{}

func (nopTransport) Send([]byte) error       { return nil }
func (nopTransport) Ping() error             { return nil }
func (nopTransport) Close(int, string) error { return nil }
func (nopTransport) Terminate() error        { return nil }
func (nopTransport) IsOpen() bool            { return true }

type fakeGateway struct {
	ready     bool
	conns     *websocket.ConnectionRegistry
	rooms     *websocket.RoomRegistry
	heartbeat *websocket.HeartbeatMonitor
	upgrades  int
}

func newFakeGateway() *fakeGateway {
	conns := websocket.NewConnectionRegistry()
	return &fakeGateway{
		ready:     true,
		conns:     conns,
		rooms:     websocket.NewRoomRegistry(),
		heartbeat: websocket.NewHeartbeatMonitor(conns, time.Minute, nil),
	}
}

func (g *fakeGateway) HandleUpgrade(w http.ResponseWriter, _ *http.Request) {
	g.upgrades++
	w.WriteHeader(http.StatusTeapot)
}

func (g *fakeGateway) Ready() bool                                { return g.ready }
func (g *fakeGateway) Connections() *websocket.ConnectionRegistry { return g.conns }
func (g *fakeGateway) Rooms() *websocket.RoomRegistry             { return g.rooms }
func (g *fakeGateway) Heartbeat() *websocket.HeartbeatMonitor     { return g.heartbeat }

func (g *fakeGateway) connect(userID string, role auth.Role) *websocket.Connection {
	c := websocket.NewConnection(nopTransport{}, auth.Identity{UserID: userID, Role: role}, nil)
	g.conns.Add(c)
	for _, room := range []websocket.RoomID{websocket.UserRoom(userID), websocket.RoleRoom(role), websocket.BroadcastRoom()} {
		g.rooms.Join(c, room)
	}
	return c
}

type fakeBridge struct {
	health eventbridge.Health
}

func (b *fakeBridge) Health() eventbridge.Health { return b.health }

func newTestRouter(gw Gateway, bridge BridgeHealth, proxies ...ProxyMount) http.Handler {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://app.example.com"}
	return NewRouter(RouterConfig{
		WebSocketPath: "/ws",
		Gateway:       gw,
		Bridge:        bridge,
		Proxies:       proxies,
		Middleware:    NewChiMiddleware(cfg),
	}).SetupChi()
}

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestRouter_WebSocketPaths(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	router := newTestRouter(gw, nil)

	for _, path := range []string{"/ws", "/ws/", "/ws/notifications"} {
		if rec := serve(t, router, http.MethodGet, path); rec.Code != http.StatusTeapot {
			t.Errorf("GET %s status = %d, want upgrade handler", path, rec.Code)
		}
	}
	if gw.upgrades != 3 {
		t.Errorf("upgrades = %d, want 3", gw.upgrades)
	}
	if rec := serve(t, router, http.MethodGet, "/wsx"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /wsx status = %d, want 404", rec.Code)
	}
}

func TestRouter_HealthLive(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestRouter(newFakeGateway(), nil), http.MethodGet, "/api/v1/health/live")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode(t, rec)
	if !resp.Success || resp.Meta == nil || resp.Meta.RequestID == "" {
		t.Errorf("response = %+v, want success with request id", resp)
	}
	if rec.Header().Get("X-Request-ID") != resp.Meta.RequestID {
		t.Error("meta request_id should match the X-Request-ID header")
	}
}

func TestRouter_HealthReady(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	router := newTestRouter(gw, nil)

	if rec := serve(t, router, http.MethodGet, "/api/v1/health/ready"); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}

	gw.ready = false
	rec := serve(t, router, http.MethodGet, "/api/v1/health/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("not ready status = %d, want 503", rec.Code)
	}
	if resp := decode(t, rec); resp.Error == nil || resp.Error.Code != ErrCodeServiceUnavailable {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestRouter_HealthBridge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		bridge     BridgeHealth
		wantStatus int
		wantBody   string
	}{
		{"disabled", nil, http.StatusOK, `"enabled":false`},
		{"running", &fakeBridge{eventbridge.Health{Running: true, Subscriptions: 4, Routed: 7}}, http.StatusOK, `"routed":7`},
		{"down", &fakeBridge{eventbridge.Health{LastError: "connect: refused"}}, http.StatusServiceUnavailable, `connect: refused`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(t, newTestRouter(newFakeGateway(), tt.bridge), http.MethodGet, "/api/v1/health/bridge")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want containing %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRouter_WebSocketStats(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.connect("u1", auth.RoleVendor)
	gw.connect("u1", auth.RoleVendor)
	gw.connect("u2", auth.RoleAdmin)

	rec := serve(t, newTestRouter(gw, nil), http.MethodGet, "/api/v1/ws/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Data WebSocketStats `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Connections.Total != 3 || body.Data.Connections.ByUser["u1"] != 2 {
		t.Errorf("connections = %+v", body.Data.Connections)
	}
	// user:u1, user:u2, role:vendor, role:admin, broadcast
	if body.Data.Rooms != 5 {
		t.Errorf("rooms = %d, want 5", body.Data.Rooms)
	}
}

func TestRouter_RoomInfo(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.connect("u1", auth.RoleVendor)
	gw.connect("u2", auth.RoleVendor)
	router := newTestRouter(gw, nil)

	tests := []struct {
		path string
		want websocket.RoomInfo
	}{
		{"/api/v1/ws/rooms/role:vendor", websocket.RoomInfo{Name: "role:vendor", MemberCount: 2, Type: "role"}},
		{"/api/v1/ws/rooms/user:u1", websocket.RoomInfo{Name: "user:u1", MemberCount: 1, Type: "user"}},
		{"/api/v1/ws/rooms/payment:p1", websocket.RoomInfo{Name: "payment:p1", MemberCount: 0, Type: "payment"}},
	}
	for _, tt := range tests {
		rec := serve(t, router, http.MethodGet, tt.path)
		var body struct {
			Data websocket.RoomInfo `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Data != tt.want {
			t.Errorf("GET %s = %+v, want %+v", tt.path, body.Data, tt.want)
		}
	}
}

func TestRouter_RoomInfoEscapedName(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	c := gw.connect("u1", auth.RoleVendor)
	gw.rooms.Join(c, websocket.CustomRoom("team/alpha"))
	router := newTestRouter(gw, nil)

	rec := serve(t, router, http.MethodGet, "/api/v1/ws/rooms/team%2Falpha")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Data websocket.RoomInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := websocket.RoomInfo{Name: "team/alpha", MemberCount: 1, Type: "broadcast"}
	if body.Data != want {
		t.Errorf("room info = %+v, want %+v", body.Data, want)
	}
}

func TestRouter_ProxyForwardedHeaders(t *testing.T) {
	t.Parallel()

	upstream := testinfra.NewMockUpstream(t)
	target, err := url.Parse(upstream.URL())
	if err != nil {
		t.Fatalf("parse upstream URL: %v", err)
	}
	p, err := proxy.New(proxy.Options{Name: "orders", Target: target})
	if err != nil {
		t.Fatalf("proxy.New() error = %v", err)
	}
	gateway := httptest.NewServer(newTestRouter(newFakeGateway(), nil, ProxyMount{Prefix: "/api/orders", Handler: p}))
	t.Cleanup(gateway.Close)

	req, err := http.NewRequest(http.MethodGet, gateway.URL+"/api/orders/1", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("X-Forwarded-For", "9.9.9.9")
	req.Header.Set("X-Real-IP", "6.6.6.6")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET through gateway: %v", err)
	}
	_ = resp.Body.Close()

	got, ok := upstream.Last()
	if !ok {
		t.Fatal("upstream saw no request")
	}
	if xff := got.Headers.Get("X-Forwarded-For"); xff != "9.9.9.9, 127.0.0.1" {
		t.Errorf("upstream X-Forwarded-For = %q, want %q", xff, "9.9.9.9, 127.0.0.1")
	}
	if ip := got.Headers.Get("X-Real-IP"); ip != "127.0.0.1" {
		t.Errorf("upstream X-Real-IP = %q, want the TCP peer 127.0.0.1", ip)
	}
}

func TestRouter_ProxyMounts(t *testing.T) {
	t.Parallel()

	var paths []string
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	})
	router := newTestRouter(newFakeGateway(), nil, ProxyMount{Prefix: "/api/chat", Handler: upstream})

	for _, path := range []string{"/api/chat", "/api/chat/rooms/1"} {
		if rec := serve(t, router, http.MethodPost, path); rec.Code != http.StatusAccepted {
			t.Errorf("POST %s status = %d, want 202", path, rec.Code)
		}
	}
	if strings.Join(paths, ",") != "/api/chat,/api/chat/rooms/1" {
		t.Errorf("proxied paths = %v, want full inbound paths", paths)
	}
	if rec := serve(t, router, http.MethodGet, "/api/chatter"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /api/chatter status = %d, want 404", rec.Code)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	router := NewRouter(RouterConfig{
		Gateway:    newFakeGateway(),
		Middleware: NewChiMiddleware(cfg),
	}).SetupChi()

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = serve(t, router, http.MethodGet, "/api/v1/ws/stats")
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.Code)
	}
	if resp := decode(t, last); resp.Error == nil || resp.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestRouter_CORS(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeGateway(), nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/ws/stats", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouter_MetricsAndNotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeGateway(), nil)
	if rec := serve(t, router, http.MethodGet, "/metrics"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "# HELP") {
		t.Errorf("/metrics status = %d", rec.Code)
	}
	rec := serve(t, router, http.MethodGet, "/nope")
	if rec.Code != http.StatusNotFound || decode(t, rec).Error.Code != ErrCodeNotFound {
		t.Errorf("/nope = %d %s", rec.Code, rec.Body.String())
	}
}
