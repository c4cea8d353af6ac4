// Package workspacetest provides an in-process fake of the vendor auth and
// workspace APIs, including the notification socket.
package workspacetest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

const defaultTargets = `[{"name":"Jane Doe","number":"5550100","type":"agent"}]`

// Request is one REST call received by the fake. Workspace paths are recorded
// without the /workspace/v3 prefix.
type Request struct {
	Method string
	Path   string
	Query  string
	Auth   string
	APIKey string
	Body   string
}

// Server emulates the vendor REST surface and notification socket.
type Server struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	requests []Request
	failures map[string]int
	targets  string
	conns    chan *websocket.Conn
}

// NewServer starts a fake closed at the end of the test.
func NewServer(t *testing.T) *Server {
	t.Helper()
	f := &Server{
		t:        t,
		failures: map[string]int{},
		targets:  defaultTargets,
		conns:    make(chan *websocket.Conn, 1),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

// URL is the API root, usable as the vendor api url.
func (f *Server) URL() string { return f.srv.URL }

// FailWith makes requests to path answer with an error status.
func (f *Server) FailWith(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = status
}

// SetTargets replaces the JSON array returned by target searches.
func (f *Server) SetTargets(raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = raw
}

// Requests returns the calls received so far.
func (f *Server) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

// Paths returns "METHOD path" for each call received so far.
func (f *Server) Paths() []string {
	var out []string
	for _, r := range f.Requests() {
		out = append(out, r.Method+" "+r.Path)
	}
	return out
}

// Requested reports whether "METHOD path" has been received.
func (f *Server) Requested(methodPath string) bool {
	for _, p := range f.Paths() {
		if p == methodPath {
			return true
		}
	}
	return false
}

var upgrader = websocket.Upgrader{}

func (f *Server) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/workspace/v3")

	if path == "/notifications" {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			f.t.Errorf("upgrade: %v", err)
			return
		}
		f.conns <- conn
		return
	}

	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, Request{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		APIKey: r.Header.Get("x-api-key"),
		Body:   string(body),
	})
	status, failing := f.failures[path]
	targets := f.targets
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failing {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status":{"code":50,"message":"Invalid call state"}}`))
		return
	}

	switch path {
	case "/auth/v3/oauth/token":
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	case "/initialize-workspace":
		http.SetCookie(w, &http.Cookie{Name: "WORKSPACE_SESSIONID", Value: "sess-1", Path: "/"})
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":{"code":1}}`))
	case "/current-session":
		_, _ = w.Write([]byte(`{"status":{"code":0},"data":{"user":{"employeeId":"emp-1","agentLogin":"login-1","userName":"agent"}}}`))
	case "/targets":
		_, _ = w.Write([]byte(`{"status":{"code":0},"data":{"targets":` + targets + `}}`))
	default:
		_, _ = w.Write([]byte(`{"status":{"code":0}}`))
	}
}

// Socket returns the notification connection opened by Initialize.
func (f *Server) Socket() *websocket.Conn {
	f.t.Helper()
	return <-f.conns
}

// SendEvent writes one notification envelope carrying data.
func SendEvent(t *testing.T, conn *websocket.Conn, data any) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"channel": "/workspace/v3/voice", "data": data})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write event: %v", err)
	}
}

// CallEvent builds a CallStateChanged payload.
func CallEvent(callID, state string) map[string]any {
	return map[string]any{"messageType": "CallStateChanged", "call": map[string]any{"id": callID, "state": state}}
}

// DnEvent builds a DnStateChanged payload.
func DnEvent(number, workMode string) map[string]any {
	return map[string]any{"messageType": "DnStateChanged", "dn": map[string]any{"number": number, "agentWorkMode": workMode}}
}

// Drain keeps reading so close frames are answered.
func Drain(conn *websocket.Conn) {
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				_ = conn.Close()
				return
			}
		}
	}()
}
