package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/wavelength-chat/wavelength-backend/internal/cache"
)

// ClientConnection wraps a WebSocket connection with metadata. UserID is
// empty until the client sends its setup event.
type ClientConnection struct {
	ID         string
	Conn       *websocket.Conn
	UserID     string
	LastPong   time.Time
	PingTicker *time.Ticker
	CloseChan  chan struct{}

	// Gorilla-style conns allow one concurrent writer; every write from
	// hub goroutines goes through this mutex.
	writeMu sync.Mutex
}

// WriteJSON serializes v to the connection under the write lock.
func (c *ClientConnection) WriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(v)
}

func (c *ClientConnection) writeRaw(frameType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(frameType, data)
}

// Hub owns all live-delivery state: the presence map (user id to its
// connections) and the per-chat rooms. It is the only component allowed
// to touch either; everything else goes through its methods, all of
// which serialize on one RWMutex.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*ClientConnection            // connection id -> connection
	users map[string]map[string]*ClientConnection // user id -> connection id -> connection
	rooms map[string]map[string]*ClientConnection // chat id -> connection id -> connection

	presence *cache.PresenceCache

	pingInterval time.Duration
	pongTimeout  time.Duration
}

// NewHub creates a hub and starts its health checker.
func NewHub(presence *cache.PresenceCache) *Hub {
	hub := &Hub{
		conns:        make(map[string]*ClientConnection),
		users:        make(map[string]map[string]*ClientConnection),
		rooms:        make(map[string]map[string]*ClientConnection),
		presence:     presence,
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
	}

	go hub.connectionHealthChecker()

	return hub
}

// Attach registers a raw connection and starts health monitoring. The
// connection carries no user identity until Bind.
func (h *Hub) Attach(conn *websocket.Conn) *ClientConnection {
	client := &ClientConnection{
		ID:         uuid.NewString(),
		Conn:       conn,
		LastPong:   time.Now(),
		PingTicker: time.NewTicker(h.pingInterval),
		CloseChan:  make(chan struct{}),
	}

	connID := client.ID
	conn.SetPongHandler(func(appData string) error {
		h.mu.Lock()
		if c, exists := h.conns[connID]; exists {
			c.LastPong = time.Now()
		}
		h.mu.Unlock()
		_ = conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		return nil
	})
	_ = conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.mu.Lock()
	h.conns[client.ID] = client
	total := len(h.conns)
	h.mu.Unlock()

	go h.pingRoutine(client)

	log.Printf("Connection %s attached to hub (total: %d)", client.ID, total)
	return client
}

// Bind joins the connection to the channel named after the user id and
// records it in the presence map, then broadcasts the updated map.
func (h *Hub) Bind(client *ClientConnection, userID string) {
	h.mu.Lock()
	client.UserID = userID
	if h.users[userID] == nil {
		h.users[userID] = make(map[string]*ClientConnection)
	}
	h.users[userID][client.ID] = client
	h.mu.Unlock()

	if err := h.presence.SetUserOnline(userID); err != nil {
		log.Printf("Failed to mirror user %s online: %v", userID, err)
	}

	log.Printf("User %s bound to connection %s", userID, client.ID)
	h.BroadcastOnlineUsers()
}

// Detach removes the connection everywhere: the connection table, every
// room, and the presence map entry whose connection id matches. If it was
// the user's last connection the updated presence map is re-broadcast.
func (h *Hub) Detach(client *ClientConnection) {
	h.mu.Lock()
	if c, exists := h.conns[client.ID]; exists {
		if c.PingTicker != nil {
			c.PingTicker.Stop()
		}
		close(c.CloseChan)
	}
	delete(h.conns, client.ID)

	for chatID, room := range h.rooms {
		delete(room, client.ID)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}

	userWentOffline := false
	userID := client.UserID
	if userID != "" {
		if conns, exists := h.users[userID]; exists {
			delete(conns, client.ID)
			if len(conns) == 0 {
				delete(h.users, userID)
				userWentOffline = true
			}
		}
	}
	total := len(h.conns)
	h.mu.Unlock()

	if userWentOffline {
		if err := h.presence.SetUserOffline(userID); err != nil {
			log.Printf("Failed to mirror user %s offline: %v", userID, err)
		}
	}

	log.Printf("Connection %s detached from hub (total: %d)", client.ID, total)
	if userID != "" {
		h.BroadcastOnlineUsers()
	}
}

// JoinRoom subscribes the connection to a chat's room for typing relays.
func (h *Hub) JoinRoom(client *ClientConnection, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[chatID] == nil {
		h.rooms[chatID] = make(map[string]*ClientConnection)
	}
	h.rooms[chatID][client.ID] = client
}

// LeaveRoom unsubscribes the connection from a chat's room.
func (h *Hub) LeaveRoom(client *ClientConnection, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, exists := h.rooms[chatID]; exists {
		delete(room, client.ID)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// IsOnline checks if a user has at least one live connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// OnlineUsers returns a snapshot of the presence map: user id to its
// connection ids.
func (h *Hub) OnlineUsers() map[string][]string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snapshot := make(map[string][]string, len(h.users))
	for userID, conns := range h.users {
		ids := make([]string, 0, len(conns))
		for connID := range conns {
			ids = append(ids, connID)
		}
		snapshot[userID] = ids
	}
	return snapshot
}

// Count returns the number of attached connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// BroadcastOnlineUsers pushes the full presence map to every attached
// connection. O(connected clients) per setup/disconnect; presence
// accuracy is worth the cost at this scale.
func (h *Hub) BroadcastOnlineUsers() {
	data, err := Serialize(EventOnlineUsers, h.OnlineUsers())
	if err != nil {
		log.Printf("Error marshaling presence broadcast: %v", err)
		return
	}

	for _, client := range h.snapshotConns() {
		if err := client.writeRaw(websocket.TextMessage, data); err != nil {
			log.Printf("Error broadcasting presence to connection %s: %v", client.ID, err)
		}
	}
}

// EmitToUser sends an event to every connection of one user.
func (h *Hub) EmitToUser(userID string, eventType string, payload interface{}) {
	data, err := Serialize(eventType, payload)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}

	h.mu.RLock()
	targets := make([]*ClientConnection, 0, len(h.users[userID]))
	for _, client := range h.users[userID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.writeRaw(websocket.TextMessage, data); err != nil {
			log.Printf("Error sending %s to user %s: %v", eventType, userID, err)
		}
	}
}

// EmitToUsersExcept delivers an event to each listed user's connections,
// skipping exceptUserID. This is the message fan-out path: the sender's
// UI already has the message from the HTTP response.
func (h *Hub) EmitToUsersExcept(userIDs []string, exceptUserID string, eventType string, payload interface{}) {
	for _, userID := range userIDs {
		if userID == exceptUserID {
			continue
		}
		h.EmitToUser(userID, eventType, payload)
	}
}

// EmitToRoomExcept broadcasts an event to a chat room, skipping every
// connection of exceptUserID. Used for typing indicators.
func (h *Hub) EmitToRoomExcept(chatID string, exceptUserID string, eventType string, payload interface{}) {
	data, err := Serialize(eventType, payload)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}

	h.mu.RLock()
	targets := make([]*ClientConnection, 0, len(h.rooms[chatID]))
	for _, client := range h.rooms[chatID] {
		if client.UserID == exceptUserID {
			continue
		}
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.writeRaw(websocket.TextMessage, data); err != nil {
			log.Printf("Error relaying %s to connection %s: %v", eventType, client.ID, err)
		}
	}
}

func (h *Hub) snapshotConns() []*ClientConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*ClientConnection, 0, len(h.conns))
	for _, client := range h.conns {
		clients = append(clients, client)
	}
	return clients
}

// pingRoutine sends periodic ping frames to keep the connection alive.
func (h *Hub) pingRoutine(client *ClientConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Ping routine recovered from panic for connection %s: %v", client.ID, r)
		}
	}()

	for {
		select {
		case <-client.CloseChan:
			return
		case <-client.PingTicker.C:
			h.mu.RLock()
			_, exists := h.conns[client.ID]
			h.mu.RUnlock()
			if !exists {
				return
			}

			client.writeMu.Lock()
			err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second))
			client.writeMu.Unlock()
			if err != nil {
				log.Printf("Ping failed for connection %s: %v", client.ID, err)
				h.Detach(client)
				return
			}
		}
	}
}

// connectionHealthChecker reaps connections that stopped answering pings.
func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		dead := make([]*ClientConnection, 0)
		now := time.Now()
		for _, client := range h.conns {
			if now.Sub(client.LastPong) > h.pongTimeout {
				dead = append(dead, client)
			}
		}
		h.mu.RUnlock()

		for _, client := range dead {
			log.Printf("Removing dead connection %s (no pong received)", client.ID)
			h.Detach(client)
		}
	}
}
