package live

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Hub tracks the open editing sessions. A user edits from one device at a
// time: a new connection supersedes the user's previous one.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client // userID -> client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Stop closes every session and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Count returns the number of open sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client returns the session connection of a user.
func (h *Hub) Client(userID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[userID]
	return c, ok
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	prev := h.clients[client.UserID]
	h.clients[client.UserID] = client
	h.mu.Unlock()

	if prev != nil && prev != client {
		prev.Send(errorMessage("session opened on another device", ""))
		prev.close()
		slog.Info("session superseded", "user", client.UserID, "conn", prev.ConnID)
	}

	slog.Info("session opened", "user", client.UserID, "conn", client.ConnID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.UserID] == client {
		delete(h.clients, client.UserID)
	}
	h.mu.Unlock()

	client.close()
	slog.Info("session closed", "user", client.UserID, "conn", client.ConnID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
		if c.conn != nil {
			c.conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
	slog.Info("all sessions closed", "count", len(clients))
}

func errorMessage(text, request string) *Message {
	m := &Message{Type: TypeError}
	m.Payload, _ = json.Marshal(ErrorPayload{Message: text, Request: request})
	return m
}
