// Package ws implements the realtime push channel. Clients connect over
// a websocket, optionally bind their user id with an authenticate
// frame, and receive event envelopes pushed by the server.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Envelope is the wire format for pushed events.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// clientFrame is what clients send: currently only the authenticate
// handshake ({"event":"authenticate","user_id":"..."}) and logout.
type clientFrame struct {
	Event  string `json:"event"`
	UserID string `json:"user_id"`
}

// Hub tracks connected websocket clients and the user ids bound to
// them. All registry access and all connection writes are serialized
// through the mutex; gorilla connections do not allow concurrent
// writers.
type Hub struct {
	mu       sync.Mutex
	conns    map[*websocket.Conn]string // conn -> bound user id ("" until authenticated)
	users    map[string]*websocket.Conn
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]string),
		users: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle upgrades the request and services the connection until the
// client disconnects.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.register(conn)
	defer h.unregister(conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		switch frame.Event {
		case "authenticate":
			if frame.UserID != "" {
				h.bindUser(conn, frame.UserID)
			}
		case "logout":
			h.unbindUser(conn)
		}
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = ""
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if userID := h.conns[conn]; userID != "" && h.users[userID] == conn {
		delete(h.users, userID)
	}
	delete(h.conns, conn)
}

func (h *Hub) bindUser(conn *websocket.Conn, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// A reconnect replaces any previous connection for the same user.
	if prev, ok := h.users[userID]; ok && prev != conn {
		h.conns[prev] = ""
	}
	h.conns[conn] = userID
	h.users[userID] = conn
}

func (h *Hub) unbindUser(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if userID := h.conns[conn]; userID != "" && h.users[userID] == conn {
		delete(h.users, userID)
	}
	h.conns[conn] = ""
}

// Broadcast pushes an event to every connected client. Connections that
// fail to accept the write are dropped from the registry.
func (h *Hub) Broadcast(event string, data any) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		logrus.WithError(err).Error("failed to encode broadcast payload")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, userID := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			if userID != "" && h.users[userID] == conn {
				delete(h.users, userID)
			}
			delete(h.conns, conn)
		}
	}
}

// SendToUser pushes an event to the connection bound to userID.
// Returns false when the user has no live connection.
func (h *Hub) SendToUser(userID, event string, data any) bool {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		logrus.WithError(err).Error("failed to encode user payload")
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.users[userID]
	if !ok {
		return false
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		conn.Close()
		delete(h.users, userID)
		delete(h.conns, conn)
		return false
	}
	return true
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
