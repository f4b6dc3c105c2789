package chrome

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type wireRequest struct {
	ID        int64           `json:"id"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params"`
	SessionID string          `json:"sessionId"`
}

func (r wireRequest) param(t *testing.T) map[string]any {
	t.Helper()
	out := map[string]any{}
	if len(r.Params) == 0 {
		return out
	}
	if err := json.Unmarshal(r.Params, &out); err != nil {
		t.Fatalf("decode params of %s: %v", r.Method, err)
	}
	return out
}

type methodHandler func(params json.RawMessage) any

// fakeBrowser speaks just enough of the debugging protocol for session tests:
// the /json/version discovery document and a websocket that answers commands
// from per-method handlers.
type fakeBrowser struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []wireRequest
	handlers map[string]methodHandler
}

func newFakeBrowser(t *testing.T, targets []map[string]any) *fakeBrowser {
	t.Helper()

	b := &fakeBrowser{handlers: map[string]methodHandler{}}
	b.handle("Target.getTargets", func(json.RawMessage) any {
		return map[string]any{"targetInfos": targets}
	})
	b.handle("Target.createTarget", func(json.RawMessage) any {
		return map[string]any{"targetId": "NEW"}
	})
	b.handle("Target.attachToTarget", func(params json.RawMessage) any {
		var p struct {
			TargetID string `json:"targetId"`
		}
		_ = json.Unmarshal(params, &p)
		return map[string]any{"sessionId": "SESSION-" + p.TargetID}
	})

	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/json/version", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"Browser":              "HeadlessChrome/120.0",
			"webSocketDebuggerUrl": b.wsURL(),
		})
	})
	mux.HandleFunc("/devtools/browser/fake", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		b.serve(conn)
	})
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBrowser) wsURL() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http") + "/devtools/browser/fake"
}

func (b *fakeBrowser) handle(method string, fn methodHandler) {
	b.mu.Lock()
	b.handlers[method] = fn
	b.mu.Unlock()
}

func (b *fakeBrowser) serve(conn *websocket.Conn) {
	for {
		var req wireRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		b.mu.Lock()
		b.requests = append(b.requests, req)
		fn := b.handlers[req.Method]
		b.mu.Unlock()

		var result any = map[string]any{}
		if fn != nil {
			result = fn(req.Params)
		}
		_ = conn.WriteJSON(map[string]any{"id": req.ID, "result": result})
	}
}

func (b *fakeBrowser) calls(method string) []wireRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []wireRequest
	for _, req := range b.requests {
		if req.Method == method {
			out = append(out, req)
		}
	}
	return out
}

func (b *fakeBrowser) methods() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.requests))
	for _, req := range b.requests {
		out = append(out, req.Method)
	}
	return out
}

// evaluateValue answers Runtime.evaluate with a by-value result.
func evaluateValue(value any) methodHandler {
	return func(json.RawMessage) any {
		return map[string]any{"result": map[string]any{"type": "object", "value": value}}
	}
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return ctx.Err()
}

func (c *fakeClock) slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}
