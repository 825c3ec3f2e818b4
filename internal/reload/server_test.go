package reload

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	json "github.com/goccy/go-json"

	"github.com/cdmessin/grim-hollow-pack/internal/watch"
)

func startTestServer(t *testing.T, oplog *watch.Log) *Server {
	t.Helper()

	s := New("localhost:0", oplog, log.New(io.Discard))
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})
	return s
}

func dialTestServer(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws://"+s.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() {
		conn.Close(websocket.StatusNormalClosure, "")
	})
	return conn
}

func waitForClients(t *testing.T, s *Server, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("ClientCount() = %d, want %d", s.ClientCount(), want)
}

func TestServer_Health(t *testing.T) {
	s := startTestServer(t, nil)

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !strings.Contains(string(body), `"status":"ok"`) {
		t.Errorf("body = %s, want status ok", body)
	}
}

func TestServer_Ops(t *testing.T) {
	oplog := watch.NewLog(8)
	for _, pack := range []string{"spells", "items", "monsters"} {
		oplog.Append(watch.Operation{Pack: pack, Event: "compile", Documents: 1, At: time.Now()})
	}
	s := startTestServer(t, oplog)

	resp, err := http.Get("http://" + s.Addr() + "/api/ops?n=2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	var ops []watch.Operation
	if err := json.NewDecoder(resp.Body).Decode(&ops); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("got %d ops, want 2", len(ops))
	}
	if ops[0].Pack != "monsters" {
		t.Errorf("ops[0].Pack = %q, want %q", ops[0].Pack, "monsters")
	}
}

func TestServer_OpsBadParameter(t *testing.T) {
	s := startTestServer(t, watch.NewLog(8))

	resp, err := http.Get("http://" + s.Addr() + "/api/ops?n=many")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestServer_OpsEmptyLog(t *testing.T) {
	s := startTestServer(t, nil)

	resp, err := http.Get("http://" + s.Addr() + "/api/ops")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if got := strings.TrimSpace(string(body)); got != "[]" {
		t.Errorf("body = %q, want %q", got, "[]")
	}
}

func TestServer_WebSocketBroadcast(t *testing.T) {
	s := startTestServer(t, nil)
	conn := dialTestServer(t, s)
	waitForClients(t, s, 1)

	s.Broadcast(watch.Operation{
		Seq:       1,
		Pack:      "spells",
		Event:     "compile",
		Documents: 3,
		At:        time.Now(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	var op watch.Operation
	if err := json.Unmarshal(data, &op); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if op.Pack != "spells" || op.Event != "compile" || op.Documents != 3 {
		t.Errorf("op = %s/%s/%d, want spells/compile/3", op.Pack, op.Event, op.Documents)
	}
}

func TestServer_ClientDisconnectRemoved(t *testing.T) {
	s := startTestServer(t, nil)
	conn := dialTestServer(t, s)
	waitForClients(t, s, 1)

	conn.Close(websocket.StatusNormalClosure, "")
	waitForClients(t, s, 0)
}

func TestServer_StopClosesClients(t *testing.T) {
	s := New("localhost:0", nil, log.New(io.Discard))
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	conn := dialTestServer(t, s)
	waitForClients(t, s, 1)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, _, err := conn.Read(ctx); err == nil {
		t.Error("Read() after Stop succeeded, want error")
	}
}

func TestServer_BroadcastNeverBlocks(t *testing.T) {
	s := New("localhost:0", nil, log.New(io.Discard))

	// No broadcast loop is draining; once the queue fills, further
	// operations must be dropped rather than wedging the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 250; i++ {
			s.Broadcast(watch.Operation{Pack: "spells", Event: "compile"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked")
	}
}
