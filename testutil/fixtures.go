package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// RecordedQuestion is one request seen by the fake query backend
type RecordedQuestion struct {
	Question  string
	SessionID string
}

// QueryServer is a fake documentation backend serving /api/chat and /health
type QueryServer struct {
	*httptest.Server

	mu        sync.Mutex
	status    int
	body      string
	delay     time.Duration
	release   chan struct{}
	healthy   bool
	questions []RecordedQuestion
}

// NewQueryServer starts a fake backend answering every question with answer
func NewQueryServer(t *testing.T, answer string) *QueryServer {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"answer": answer})
	qs := &QueryServer{status: http.StatusOK, body: string(body), healthy: true}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", qs.handleChat)
	mux.HandleFunc("/health", qs.handleHealth)
	qs.Server = httptest.NewServer(mux)
	t.Cleanup(qs.Close)
	return qs
}

// Respond sets the status and raw body returned for subsequent questions
func (qs *QueryServer) Respond(status int, body string) {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	qs.status = status
	qs.body = body
}

// RespondJSON sets a 200 response with v encoded as JSON
func (qs *QueryServer) RespondJSON(t *testing.T, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}
	qs.Respond(http.StatusOK, string(data))
}

// Delay makes the backend wait before answering
func (qs *QueryServer) Delay(d time.Duration) {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	qs.delay = d
}

// Hold blocks answers until the returned function is called
func (qs *QueryServer) Hold() (release func()) {
	ch := make(chan struct{})
	qs.mu.Lock()
	qs.release = ch
	qs.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// SetHealthy controls the /health status
func (qs *QueryServer) SetHealthy(healthy bool) {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	qs.healthy = healthy
}

// Questions returns the questions received so far
func (qs *QueryServer) Questions() []RecordedQuestion {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	return append([]RecordedQuestion(nil), qs.questions...)
}

func (qs *QueryServer) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Question string `json:"question"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	qs.mu.Lock()
	qs.questions = append(qs.questions, RecordedQuestion{
		Question:  req.Question,
		SessionID: r.Header.Get("X-Session-Id"),
	})
	status, body, delay, release := qs.status, qs.body, qs.delay, qs.release
	qs.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (qs *QueryServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	qs.mu.Lock()
	healthy := qs.healthy
	qs.mu.Unlock()
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// PushServer is a fake notification source speaking WebSocket
type PushServer struct {
	*httptest.Server

	upgrader websocket.Upgrader

	mu      sync.Mutex
	conns   []*websocket.Conn
	hints   []string
	onOpen  []string
	reject  int
	connect chan struct{}
}

// NewPushServer starts a fake push endpoint at /ws
func NewPushServer(t *testing.T) *PushServer {
	t.Helper()
	ps := &PushServer{connect: make(chan struct{}, 16)}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ps.handle)
	ps.Server = httptest.NewServer(mux)
	t.Cleanup(func() {
		ps.CloseAll()
		ps.Close()
	})
	return ps
}

// URL returns the ws:// address of the push endpoint
func (ps *PushServer) URL() string {
	return "ws" + strings.TrimPrefix(ps.Server.URL, "http") + "/ws"
}

// SendOnOpen queues frames sent to every new connection right after upgrade
func (ps *PushServer) SendOnOpen(frames ...string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.onOpen = append(ps.onOpen, frames...)
}

// RejectNext makes the next n handshakes fail with 503
func (ps *PushServer) RejectNext(n int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.reject = n
}

// Hints returns the session_id hints seen on each handshake
func (ps *PushServer) Hints() []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]string(nil), ps.hints...)
}

// WaitForConnection blocks until a client connects or the timeout passes
func (ps *PushServer) WaitForConnection(t *testing.T, timeout time.Duration) {
	t.Helper()
	select {
	case <-ps.connect:
	case <-time.After(timeout):
		t.Fatalf("no push connection within %s", timeout)
	}
}

// Broadcast sends a text frame to every open connection
func (ps *PushServer) Broadcast(t *testing.T, frame string) {
	t.Helper()
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, c := range ps.conns {
		if err := c.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("Failed to send frame: %v", err)
		}
	}
}

// CloseAll closes every connection with a normal closure
func (ps *PushServer) CloseAll() {
	ps.mu.Lock()
	conns := ps.conns
	ps.conns = nil
	ps.mu.Unlock()

	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
		_ = c.Close()
	}
}

// DropAll closes every connection without a close frame
func (ps *PushServer) DropAll() {
	ps.mu.Lock()
	conns := ps.conns
	ps.conns = nil
	ps.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

func (ps *PushServer) handle(w http.ResponseWriter, r *http.Request) {
	ps.mu.Lock()
	if ps.reject > 0 {
		ps.reject--
		ps.mu.Unlock()
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	ps.hints = append(ps.hints, r.URL.Query().Get("session_id"))
	ps.mu.Unlock()

	conn, err := ps.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	ps.mu.Lock()
	for _, frame := range ps.onOpen {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(frame))
	}
	ps.conns = append(ps.conns, conn)
	ps.mu.Unlock()

	select {
	case ps.connect <- struct{}{}:
	default:
	}

	// Drain client frames so close handshakes are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
