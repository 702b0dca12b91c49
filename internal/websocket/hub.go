package chatws

import (
	"encoding/json"
	"time"

	websocket "github.com/gofiber/contrib/websocket"

	"github.com/Chris-viatas/EmbrHealth/internal/config"
	"github.com/Chris-viatas/EmbrHealth/internal/models"
)

// Hub fans coach-chat messages out to the owning user's connected sockets.
// The feed is push-only: sends travel over the REST endpoint so the session's
// one-request-at-a-time rule stays enforceable in one place.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Event
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

type Event struct {
	Type      string             `json:"type"`
	UserID    string             `json:"-"`
	Message   models.ChatMessage `json:"message"`
	Timestamp string             `json:"timestamp"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Event, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastChat pushes one chat message to every socket the user has open.
func (h *Hub) BroadcastChat(userID string, message models.ChatMessage) {
	h.broadcast <- &Event{
		Type:      "chat.message",
		UserID:    userID,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func (h *Hub) deliver(event *Event) {
	encoded, err := json.Marshal(event)
	if err != nil {
		config.L().Errorw("chat hub encode event", "error", err)
		return
	}

	set, ok := h.clients[event.UserID]
	if !ok {
		return
	}
	for client := range set {
		select {
		case client.send <- encoded:
		default:
			// Slow consumer: drop the socket rather than block the hub.
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, event.UserID)
	}
}

// ReadPump discards inbound frames; it exists to notice the close handshake.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
