package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

// WSMessage is the envelope for all WebSocket communication.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client represents one connected player.
type Client struct {
	ID       string
	RoomCode string // current room; guarded by the hub's mutex, use Hub.RoomOf
	conn     *websocket.Conn
	send     chan WSMessage
}

// Hub manages all WebSocket clients and room-level broadcasting. Identity is
// connection-scoped: each socket gets a fresh ID and a disconnect removes the
// player entirely.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
	handler MessageHandler
	devMode bool
	readLim int64
	pingIvl time.Duration
	metrics *Metrics
	logger  *slog.Logger
}

// MessageHandler processes inbound messages and connection teardown.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg WSMessage)
	HandleDisconnect(client *Client)
}

func NewHub(devMode bool, readLimit int64, pingInterval time.Duration, handler MessageHandler, metrics *Metrics, logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		handler: handler,
		devMode: devMode,
		readLim: readLimit,
		pingIvl: pingInterval,
		metrics: metrics,
		logger:  logger,
	}
}

// SetHandler sets the message handler (used to break circular init).
func (h *Hub) SetHandler(handler MessageHandler) {
	h.handler = handler
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: h.devMode,
	})
	if err != nil {
		h.logger.Error("ws accept", "err", err)
		return
	}
	if h.readLim > 0 {
		conn.SetReadLimit(h.readLim)
	}

	client := &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan WSMessage, 64),
	}

	h.register(client)
	defer h.unregister(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Tell the client who it is before anything else arrives.
	payload, _ := json.Marshal(map[string]string{"id": client.ID})
	h.SendTo(client.ID, WSMessage{Type: "welcome", Payload: payload})

	go h.writePump(ctx, client)
	h.readPump(ctx, client)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.IncrWSConn()
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		close(c.send)
	}
	if c.RoomCode != "" {
		if members, ok := h.rooms[c.RoomCode]; ok {
			delete(members, c.ID)
			if len(members) == 0 {
				delete(h.rooms, c.RoomCode)
			}
		}
	}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.DecrWSConn()
	}
	if h.handler != nil {
		h.handler.HandleDisconnect(c)
	}
}

// JoinRoom adds a client to a room broadcast group and records the binding.
// Returns false when the client has already unregistered — the caller must
// then undo whatever roster change prompted the join, because the disconnect
// path has already run and will not fire again.
func (h *Hub) JoinRoom(clientID, roomCode string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[clientID]
	if !ok {
		return false
	}
	if c.RoomCode != "" && c.RoomCode != roomCode {
		if members, ok := h.rooms[c.RoomCode]; ok {
			delete(members, c.ID)
		}
	}
	c.RoomCode = roomCode
	if _, ok := h.rooms[roomCode]; !ok {
		h.rooms[roomCode] = make(map[string]*Client)
	}
	h.rooms[roomCode][c.ID] = c
	return true
}

// RoomOf reads a client's room binding under the hub lock. The engine calls
// this from connection goroutines while room runners rebind clients, so the
// field must never be read bare.
func (h *Hub) RoomOf(c *Client) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.RoomCode
}

// LeaveRoom detaches a client from its broadcast group without closing the
// connection.
func (h *Hub) LeaveRoom(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[clientID]
	if !ok || c.RoomCode == "" {
		return
	}
	if members, ok := h.rooms[c.RoomCode]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, c.RoomCode)
		}
	}
	c.RoomCode = ""
}

// BroadcastRoom sends a message to every client in a room.
func (h *Hub) BroadcastRoom(roomCode string, msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members, ok := h.rooms[roomCode]
	if !ok {
		return
	}
	for _, c := range members {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("client send buffer full", "client", c.ID)
		}
	}
}

// SendTo sends a message to a specific client.
func (h *Hub) SendTo(clientID string, msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Hub) readPump(ctx context.Context, c *Client) {
	defer func() {
		_ = c.conn.CloseNow()
	}()
	for {
		var msg WSMessage
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			return
		}
		if h.handler != nil {
			h.handler.HandleMessage(ctx, c, msg)
		}
	}
}

func (h *Hub) writePump(ctx context.Context, c *Client) {
	ticker := time.NewTicker(h.pingIvl)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := wsjson.Write(ctx, c.conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
