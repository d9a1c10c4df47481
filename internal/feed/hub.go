// Package feed pushes collection changes to TCP and WebSocket subscribers.
package feed

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeTimeout = 2 * time.Second

type Hub struct {
	mu     sync.Mutex
	tcp    map[net.Conn]struct{}
	ws     map[*websocket.Conn]struct{}
	logger zerolog.Logger
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		tcp:    make(map[net.Conn]struct{}),
		ws:     make(map[*websocket.Conn]struct{}),
		logger: logger.With().Str("component", "feed").Logger(),
	}
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.tcp[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.tcp, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.ws[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.ws, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// BroadcastJSON sends v as one JSON line to every subscriber. Subscribers
// whose write fails are closed and dropped.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal broadcast")
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	deadline := time.Now().Add(writeTimeout)

	for c := range h.tcp {
		_ = c.SetWriteDeadline(deadline)
		if _, err := c.Write(b); err != nil {
			h.logger.Debug().Err(err).Str("remote", c.RemoteAddr().String()).Msg("dropping tcp subscriber")
			_ = c.Close()
			delete(h.tcp, c)
		}
	}

	for ws := range h.ws {
		_ = ws.SetWriteDeadline(deadline)
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			h.logger.Debug().Err(err).Msg("dropping websocket subscriber")
			_ = ws.Close()
			delete(h.ws, ws)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.tcp),
		WSClients:  len(h.ws),
	}
}

// CloseAll disconnects every subscriber.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.tcp {
		_ = c.Close()
		delete(h.tcp, c)
	}
	for ws := range h.ws {
		_ = ws.Close()
		delete(h.ws, ws)
	}
}

type welcome struct {
	Type      string `json:"type"`
	Transport string `json:"transport"`
	Clients   int    `json:"clients"`
}

func welcomeMessage(transport string, clients int) []byte {
	b, _ := json.Marshal(welcome{Type: "welcome", Transport: transport, Clients: clients})
	return append(b, '\n')
}
