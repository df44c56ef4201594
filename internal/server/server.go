package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/guessrush/internal/game"
)

// Server accepts WebSocket connections and wires each one to the game
// coordinator and the connection registry.
type Server struct {
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	coordinator *game.Coordinator
	registry    *Registry
	httpServer  *http.Server
}

// NewServer creates a new WebSocket server
func NewServer(logger *log.Logger, coordinator *game.Coordinator, registry *Registry) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
		coordinator: coordinator,
		registry:    registry,
	}
}

// Start starts the WebSocket server on addr and blocks until it stops.
func (s *Server) Start(addr string) error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)

	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	s.logger.Info("starting WebSocket server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, closing all client connections.
// The run loop has already stopped once s.ctx is cancelled, so each joined
// player is removed from the registry and the coordinator here; both
// operations are idempotent against any unregisters still in flight.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		if id := conn.PlayerID(); id != uuid.Nil {
			s.registry.Unregister(id)
			s.coordinator.Leave(id)
		}
		_ = conn.Close()
	}
	s.connections = make(map[*Connection]bool)
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			if ok {
				delete(s.connections, conn)
			}
			total := len(s.connections)
			s.mu.Unlock()

			if ok {
				// Drop the player from the registry before announcing the
				// departure so they never see their own leave broadcast.
				if id := conn.PlayerID(); id != uuid.Nil {
					s.registry.Unregister(id)
					s.coordinator.Leave(id)
				}
				_ = conn.Close()
				s.logger.Info("client disconnected", "player", conn.PlayerName(), "total", total)
			}

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.coordinator, s.registry)
	s.register <- client
	client.Start()

	// Cleanup runs once the connection's pumps shut down
	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// handleStats reports the current session state in plain text
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	status := s.coordinator.Snapshot()

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "State: %s\n", status.State)
	fmt.Fprintf(w, "Round: %d/%d\n", status.Round, status.MaxRounds)
	fmt.Fprintf(w, "Connected players: %d\n", status.Players)
	for i, standing := range status.Standings {
		fmt.Fprintf(w, "%d. %s - %d wins (%d attempts)\n", i+1, standing.Name, standing.Wins, standing.Attempts)
	}
}
