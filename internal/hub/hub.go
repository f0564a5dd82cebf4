package hub

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

type OnlineUser struct {
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
}

type PresenceUpdateData struct {
	OnlineUsers []OnlineUser `json:"online_users"`
}

// Client is one connected SSE or WebSocket consumer. A client may follow
// several sessions over one connection.
type Client struct {
	ID       string
	UserID   uuid.UUID
	UserName string
	Sessions map[string]bool
	Send     chan []byte
}

type sessionMessage struct {
	SessionID string
	UserID    uuid.UUID // non-nil uuid targets a single user
	Event     Event
}

// Hub fans session events out to connected clients. It implements the
// collab gateway: Notify goes to every subscriber of a session, Deliver to
// one user's connections only.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *sessionMessage
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *sessionMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				sessions := make([]string, 0, len(client.Sessions))
				for id := range client.Sessions {
					sessions = append(sessions, id)
				}
				delete(h.clients, client.ID)
				close(client.Send)
				h.mu.Unlock()

				for _, id := range sessions {
					h.broadcastPresence(id)
				}
			} else {
				h.mu.Unlock()
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Event)
			for _, client := range h.clients {
				if !client.Sessions[msg.SessionID] {
					continue
				}
				if msg.UserID != uuid.Nil && client.UserID != msg.UserID {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) Subscribe(clientID, sessionID string) {
	h.mu.Lock()
	if client, ok := h.clients[clientID]; ok {
		client.Sessions[sessionID] = true
	}
	h.mu.Unlock()

	h.broadcastPresence(sessionID)
}

func (h *Hub) Unsubscribe(clientID, sessionID string) {
	h.mu.Lock()
	if client, ok := h.clients[clientID]; ok {
		delete(client.Sessions, sessionID)
	}
	h.mu.Unlock()

	h.broadcastPresence(sessionID)
}

// Notify broadcasts an event to every subscriber of the session.
func (h *Hub) Notify(sessionID, event string, payload any) {
	h.broadcast <- &sessionMessage{
		SessionID: sessionID,
		Event: Event{
			Type:      event,
			SessionID: sessionID,
			Data:      payload,
		},
	}
}

// Deliver sends an event only to the given user's connections in a session.
func (h *Hub) Deliver(sessionID string, userID uuid.UUID, event string, payload any) {
	h.broadcast <- &sessionMessage{
		SessionID: sessionID,
		UserID:    userID,
		Event: Event{
			Type:      event,
			SessionID: sessionID,
			Data:      payload,
		},
	}
}

// broadcastPresence computes the current online users for a session and broadcasts it.
func (h *Hub) broadcastPresence(sessionID string) {
	h.mu.RLock()
	seen := make(map[uuid.UUID]bool)
	var onlineUsers []OnlineUser
	for _, client := range h.clients {
		if client.Sessions[sessionID] && !seen[client.UserID] {
			seen[client.UserID] = true
			onlineUsers = append(onlineUsers, OnlineUser{
				UserID:   client.UserID,
				UserName: client.UserName,
			})
		}
	}
	h.mu.RUnlock()

	if onlineUsers == nil {
		onlineUsers = []OnlineUser{}
	}

	event := Event{
		Type:      "presence_update",
		SessionID: sessionID,
		Data: PresenceUpdateData{
			OnlineUsers: onlineUsers,
		},
	}

	data, _ := json.Marshal(event)

	h.mu.RLock()
	for _, client := range h.clients {
		if client.Sessions[sessionID] {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
	h.mu.RUnlock()
}
