package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/kayz/scout/internal/logger"
	"github.com/kayz/scout/internal/research"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is local-only; the frontend runs on another port.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub fans research progress events out to websocket subscribers. A slow
// or dead subscriber is dropped rather than blocking a run.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// ClientCount reports the current number of subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends one event to every subscriber.
func (h *Hub) Broadcast(e research.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(e); err != nil {
			logger.Warn("[WS] dropping subscriber: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// handleWS upgrades the connection and keeps it registered until the
// client goes away. Clients only listen; inbound messages are discarded.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("[WS] upgrade failed: %v", err)
		return
	}

	s.hub.add(conn)
	go func() {
		defer s.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
