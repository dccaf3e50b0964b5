// Package server exposes the game engine over WebSocket: clients receive
// state snapshots on a broadcast tick and send the four player intents.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/chickenrun/internal/game"
)

// Server is the WebSocket gateway in front of a single engine.
type Server struct {
	cfg         *Config
	engine      *game.Engine
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      zerolog.Logger
	mu          sync.RWMutex
}

// NewServer builds a gateway around an engine.
func NewServer(cfg *Config, engine *game.Engine, logger zerolog.Logger) *Server {
	allowedOrigin := cfg.Server.AllowedOrigin
	return &Server{
		cfg:    cfg,
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.With().Str("component", "server").Logger(),
	}
}

// Run serves until ctx is cancelled. It owns the connection registry, the
// snapshot broadcaster and the HTTP listener.
func (s *Server) Run(ctx context.Context) error {
	go s.manageConnections(ctx)
	go s.broadcastSnapshots(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)

	httpServer := &http.Server{
		Addr:    s.cfg.ListenAddress(),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", httpServer.Addr).Msg("listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		s.closeAll()
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
	}
}

// manageConnections owns the registry.
func (s *Server) manageConnections(ctx context.Context) {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info().Int("total", total).Msg("client connected")

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				_ = conn.Close()
			}
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info().Int("total", total).Msg("client disconnected")

		case <-ctx.Done():
			return
		}
	}
}

// broadcastSnapshots pushes the engine snapshot to every client on a
// fixed tick. Clients render from these; they never poll.
func (s *Server) broadcastSnapshots(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.BroadcastInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.RLock()
			if len(s.connections) == 0 {
				s.mu.RUnlock()
				continue
			}
			msg, err := NewMessage(MessageTypeSnapshot, SnapshotFromGame(s.engine.Snapshot()))
			if err != nil {
				s.mu.RUnlock()
				s.logger.Error().Err(err).Msg("failed to encode snapshot")
				continue
			}
			for conn := range s.connections {
				if err := conn.SendMessage(msg); err != nil {
					s.logger.Debug().Err(err).Msg("failed to send snapshot")
				}
			}
			s.mu.RUnlock()

		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := NewConnection(conn, s.engine, s.logger)
	s.register <- client
	client.Start()

	// Greet with the static table parameters and an immediate snapshot so
	// clients can render before the first broadcast tick.
	welcome, _ := NewMessage(MessageTypeWelcome, WelcomeData{
		Multipliers: game.Multipliers(),
		LaneCount:   game.LaneCount,
		MinBet:      s.cfg.Game.MinBet,
	})
	_ = client.SendMessage(welcome)
	if snap, err := NewMessage(MessageTypeSnapshot, SnapshotFromGame(s.engine.Snapshot())); err == nil {
		_ = client.SendMessage(snap)
	}

	go func() {
		<-client.ctx.Done()
		s.unregister <- client
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}

// ConnectionCount reports the number of connected clients.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}
