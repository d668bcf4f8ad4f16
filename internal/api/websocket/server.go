package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fortuna/juno/internal/logger"
	"github.com/fortuna/juno/internal/refresh"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Server pushes league refresh events to dashboard clients.
type Server struct {
	server   *http.Server
	hub      *Hub
	upgrader websocket.Upgrader
	log      *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a websocket server. allowedOrigins restricts the
// upgrade; empty allows any origin.
func NewServer(allowedOrigins []string) *Server {
	log := logger.WithComponent("websocket")
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		hub:    NewHub(log),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	go s.hub.Run(ctx)
	return s
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// Handler returns the websocket routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/league", s.handleLeague)
	mux.HandleFunc("/ws/health", s.handleHealth)
	return mux
}

// Start listens on port until Shutdown.
func (s *Server) Start(port string) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Infof("✓ websocket server listening on :%s", port)
	return s.server.ListenAndServe()
}

func (s *Server) handleLeague(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("⚠️  websocket upgrade failed")
		return
	}

	c := newClient(uuid.New().String(), s.hub, conn)
	s.hub.Register(c)

	go c.writePump()
	go c.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"clients": s.hub.ClientCount(),
		"metrics": s.hub.Metrics(),
	})
}

// BroadcastRefresh pushes a refresh job event to every client. It matches
// the refresh.Service listener signature.
func (s *Server) BroadcastRefresh(ev refresh.Event) {
	s.hub.Broadcast(ServerMessage{Type: MessageTypeRefresh, Payload: ev, Timestamp: time.Now().UTC()})
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
