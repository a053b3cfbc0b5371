package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-presence/internal/auth"
	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/log"
	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
	"github.com/vovakirdan/wirechat-presence/internal/service/chat"
	"github.com/vovakirdan/wirechat-presence/internal/store/sqlite"
)

type testServer struct {
	server  *Server
	ts      *httptest.Server
	auth    *auth.Service
	store   *sqlite.SQLiteStore
	tracker *presence.Tracker
	hub     *core.Hub
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.JWTSecret = "test-secret"
	cfg.JWTIssuer = "test"
	cfg.JWTAudience = "test"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	return cfg
}

// startTestServer builds the full HTTP stack over an in-memory store.
func startTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := testConfig()
	logger := log.Nop()

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})
	hub := core.NewHub(logger)
	tracker := presence.NewTracker(logger, hub)

	server := NewServer(Deps{
		Hub:       hub,
		Auth:      authService,
		Store:     st,
		Chat:      chat.New(st, core.NewRouter(hub, logger)),
		Tracker:   tracker,
		Lifecycle: presence.NewLifecycle(authService, tracker, logger),
	}, &cfg, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testServer{server: server, ts: ts, auth: authService, store: st, tracker: tracker, hub: hub}
}

// registerUser creates a user and returns its id and a token.
func (s *testServer) registerUser(t *testing.T, username string) (int64, string) {
	t.Helper()

	ctx := context.Background()
	if _, err := s.auth.Register(ctx, username, username+"@example.com", "password123"); err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	res, err := s.auth.Login(ctx, username, "password123")
	if err != nil {
		t.Fatalf("failed to login %s: %v", username, err)
	}
	return res.UserID, res.Token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()

	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, s.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (s *testServer) wsURL(query string) string {
	u := strings.Replace(s.ts.URL, "http", "ws", 1) + "/ws"
	if query != "" {
		u += "?" + query
	}
	return u
}

// dialWS connects and consumes the welcome event.
func (s *testServer) dialWS(t *testing.T, ctx context.Context, token string) (*websocket.Conn, proto.EventWelcome) {
	t.Helper()

	var opts *websocket.DialOptions
	if token != "" {
		opts = &websocket.DialOptions{HTTPHeader: http.Header{"Authorization": []string{"Bearer " + token}}}
	}
	conn, _, err := websocket.Dial(ctx, s.wsURL(""), opts)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })

	var welcome proto.EventWelcome
	readEvent(t, ctx, conn, proto.EventNameWelcome, &welcome)
	return conn, welcome
}

type rawOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// readEvent reads until an event named name arrives, skipping others.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, name string, v any) {
	t.Helper()
	for {
		var out rawOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("waiting for %s: %v", name, err)
		}
		if out.Type == proto.OutboundTypeEvent && out.Event == name {
			if v != nil {
				if err := json.Unmarshal(out.Data, v); err != nil {
					t.Fatalf("decode %s: %v", name, err)
				}
			}
			return
		}
	}
}

// readError reads until an error frame arrives, skipping events.
func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) *proto.Error {
	t.Helper()
	for {
		var out rawOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("waiting for error: %v", err)
		}
		if out.Type == proto.OutboundTypeError {
			return out.Error
		}
	}
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func int64Ptr(v int64) *int64 { return &v }
