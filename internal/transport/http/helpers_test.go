package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/simplechat/internal/auth"
	"github.com/vovakirdan/simplechat/internal/config"
	"github.com/vovakirdan/simplechat/internal/core"
	"github.com/vovakirdan/simplechat/internal/proto"
	"github.com/vovakirdan/simplechat/internal/store"
	"github.com/vovakirdan/simplechat/internal/store/sqlite"
)

type testEnv struct {
	srv   *httptest.Server
	auth  *auth.Service
	store store.Store
}

func newTestEnv(t *testing.T, cfg config.ServerConfig) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	logger := zerolog.New(nil)
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "simplechat-test",
		Audience: "simplechat-test",
		TTL:      time.Hour,
	})
	hub := core.NewHub(st, core.Options{HistoryLimit: cfg.HistoryLimit, MaxMessageLength: cfg.MaxMessageLength}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(NewServer(hub, authService, st, &cfg, &logger).Handler)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-hub.Done()
		_ = st.Close()
	})

	return &testEnv{srv: srv, auth: authService, store: st}
}

// doJSON performs a request and decodes the response body into out when given.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := stdhttp.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) register(t *testing.T, username string) AuthResponse {
	t.Helper()

	var resp AuthResponse
	status := e.doJSON(t, stdhttp.MethodPost, "/api/user/register", "", CredentialsRequest{Username: username, Password: "secret123"}, &resp)
	if status != stdhttp.StatusCreated {
		t.Fatalf("register %s: status %d", username, status)
	}
	return resp
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

// connect dials and completes the hello handshake.
func (e *testEnv) connect(t *testing.T, token string) *websocket.Conn {
	t.Helper()

	conn := e.dial(t)
	writeFrame(t, conn, proto.InboundTypeHello, proto.HelloData{Token: token, Protocol: proto.ProtocolVersion})
	readEvent(t, conn, proto.EventNameWelcome)
	return conn
}

func writeFrame(t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) proto.Outbound {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var out proto.Outbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return out
}

// readEvent skips frames until the named event arrives.
func readEvent(t *testing.T, conn *websocket.Conn, name string) proto.Outbound {
	t.Helper()

	for range 20 {
		out := readFrame(t, conn)
		if out.Type == proto.OutboundTypeEvent && out.Event == name {
			return out
		}
	}
	t.Fatalf("event %s not received", name)
	return proto.Outbound{}
}

// readError skips frames until an error frame arrives.
func readError(t *testing.T, conn *websocket.Conn) *proto.Error {
	t.Helper()

	for range 20 {
		out := readFrame(t, conn)
		if out.Type == proto.OutboundTypeError {
			return out.Error
		}
	}
	t.Fatalf("error frame not received")
	return nil
}
