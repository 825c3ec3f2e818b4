// Package reload serves rebuild notifications to development clients.
// A running game session connects over websocket and re-imports a pack
// whenever the watch daemon recompiles it, instead of the author
// restarting the world by hand. The server also exposes the daemon's
// recent operations for status tooling.
package reload

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	json "github.com/goccy/go-json"

	"github.com/cdmessin/grim-hollow-pack/internal/watch"
)

// Server broadcasts compile operations to websocket subscribers.
type Server struct {
	addr   string
	oplog  *watch.Log
	logger *log.Logger

	listener net.Listener
	server   *http.Server

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan watch.Operation

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a reload server listening on addr. The operation log, if
// non-nil, backs the /api/ops endpoint.
func New(addr string, oplog *watch.Log, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		oplog:     oplog,
		logger:    logger,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan watch.Operation, 100),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/ops", s.handleOps)
	mux.HandleFunc("/ws", s.handleWebSocket)

	s.server = &http.Server{Handler: mux}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("reload server failed", "err", err)
		}
	}()

	s.logger.Info("reload server listening", "addr", s.Addr())
	return nil
}

// Stop shuts the server down, closing every client connection.
func (s *Server) Stop() error {
	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.clientsMu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shut down reload server: %w", err)
		}
	}
	s.wg.Wait()
	return nil
}

// Addr returns the bound address, which differs from the configured one
// when listening on port 0.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the number of connected subscribers.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Broadcast queues an operation for delivery to all subscribers. The
// method signature matches watch.Config.OnOperation so the daemon can
// feed the server directly. When the queue is full the operation is
// dropped; subscribers catch up through /api/ops.
func (s *Server) Broadcast(op watch.Operation) {
	select {
	case s.broadcast <- op:
	default:
		s.logger.Warn("broadcast queue full, dropping operation", "pack", op.Pack, "seq", op.Seq)
	}
}

// broadcastLoop delivers queued operations to every client. A client
// that cannot keep up within the write timeout is disconnected.
func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case op := <-s.broadcast:
			data, err := json.Marshal(op)
			if err != nil {
				s.logger.Error("failed to encode operation", "err", err)
				continue
			}

			s.clientsMu.RLock()
			conns := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				conns = append(conns, conn)
			}
			s.clientsMu.RUnlock()

			for _, conn := range conns {
				ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					s.logger.Debug("dropping slow subscriber", "err", err)
					s.removeClient(conn)
				}
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

// handleOps returns recent operations, newest first. The n query
// parameter caps the count and defaults to 50.
func (s *Server) handleOps(w http.ResponseWriter, r *http.Request) {
	n := 50
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid n parameter", http.StatusBadRequest)
			return
		}
		n = parsed
	}

	ops := []watch.Operation{}
	if s.oplog != nil {
		ops = s.oplog.Recent(n)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ops)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Reload clients are local dev tools, often served from the game's
	// own origin, so cross-origin connects are expected.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", "err", err)
		return
	}

	s.addClient(conn)
	s.logger.Debug("subscriber connected", "clients", s.ClientCount())

	s.wg.Add(1)
	go s.readLoop(conn)
}

// readLoop drains incoming frames until the connection dies. Clients
// send nothing meaningful; reading is how close frames surface.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.wg.Done()

	for {
		if _, _, err := conn.Read(s.ctx); err != nil {
			s.removeClient(conn)
			return
		}
	}
}

func (s *Server) addClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[conn] = true
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if s.clients[conn] {
		delete(s.clients, conn)
		conn.Close(websocket.StatusNormalClosure, "")
	}
}
