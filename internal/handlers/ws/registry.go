package ws

import (
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// Conn is the write surface the registry needs from a connection.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
}

// ClientConnection couples a live connection with its identity. All
// frame writes go through Write: the websocket write side allows one
// writer at a time, and room broadcasts run on a different goroutine
// than the gateway's own ack/pong/error frames.
type ClientConnection struct {
	ID       string
	UserID   uint
	Username string

	mu   sync.Mutex
	conn Conn
}

func NewClientConnection(id string, userID uint, username string, conn Conn) *ClientConnection {
	return &ClientConnection{ID: id, UserID: userID, Username: username, conn: conn}
}

// Write delivers one text frame, serializing against every other writer
// on this connection.
func (c *ClientConnection) Write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Registry tracks which live connections are subscribed to which rooms
// and delivers room-scoped broadcasts. Add, remove and iterate are safe
// to run concurrently; a connection removed mid-broadcast just fails its
// own delivery.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*ClientConnection
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[string]*ClientConnection)}
}

// Register adds the connection to the room's set. Re-registering the
// same connection ID is a no-op overwrite.
func (r *Registry) Register(roomID string, client *ClientConnection) {
	r.mu.Lock()
	set, ok := r.rooms[roomID]
	if !ok {
		set = make(map[string]*ClientConnection)
		r.rooms[roomID] = set
	}
	set[client.ID] = client
	total := len(set)
	r.mu.Unlock()
	log.Printf("conn %s (user %d) joined room %s (%d connected)", client.ID, client.UserID, roomID, total)
}

// Unregister removes the connection from the room's set. Removing an
// absent connection is a no-op.
func (r *Registry) Unregister(roomID, connID string) {
	r.mu.Lock()
	if set, ok := r.rooms[roomID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.rooms, roomID)
		}
	}
	r.mu.Unlock()
}

// Broadcast delivers the payload to every connection currently
// registered for the room. Calls from one room session are sequential,
// which preserves submission order within the room. A failed write
// drops only that connection.
func (r *Registry) Broadcast(roomID string, payload []byte) {
	r.BroadcastExcept(roomID, payload, "")
}

// BroadcastExcept is Broadcast minus one connection ID, used when the
// sender-echo policy is off.
func (r *Registry) BroadcastExcept(roomID string, payload []byte, exceptConnID string) {
	r.mu.RLock()
	set := r.rooms[roomID]
	clients := make([]*ClientConnection, 0, len(set))
	for _, client := range set {
		if client.ID == exceptConnID {
			continue
		}
		clients = append(clients, client)
	}
	r.mu.RUnlock()

	for _, client := range clients {
		if err := client.Write(payload); err != nil {
			log.Printf("delivery to conn %s (user %d) failed: %v", client.ID, client.UserID, err)
			r.Unregister(roomID, client.ID)
		}
	}
}

// Count returns how many connections are subscribed to the room.
func (r *Registry) Count(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}
