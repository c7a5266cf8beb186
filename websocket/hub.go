package websocket

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sistema-zara/zara-backend/models"
)

// Room names. Clients are joined to rooms at connect time based on their
// role; publishing targets rooms, never connections.
const (
	RoomBroadcast  = "all"
	RoomOperators  = "operators"
	RoomLeadership = "leadership"
)

// UserRoom returns the private room for a single user.
func UserRoom(userID primitive.ObjectID) string {
	return "user:" + userID.Hex()
}

// RoomsForRole returns the rooms a client with the given role joins on
// connect, in addition to its private room.
func RoomsForRole(role string) []string {
	switch role {
	case models.RoleOperator:
		return []string{RoomBroadcast, RoomOperators}
	case models.RoleLeader, models.RoleManager, models.RoleAdmin:
		return []string{RoomBroadcast, RoomLeadership}
	default:
		return []string{RoomBroadcast}
	}
}

// Event is the envelope pushed to subscribed clients.
type Event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID primitive.ObjectID
	Role   string
	Conn   *websocket.Conn
	rooms  []string
}

// Hub maintains the set of active clients grouped into rooms and pushes
// events to them. Publishing is fire-and-forget: there is no delivery
// acknowledgement and no queueing for disconnected clients.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			client.rooms = append(RoomsForRole(client.Role), UserRoom(client.UserID))
			for _, room := range client.rooms {
				if h.rooms[room] == nil {
					h.rooms[room] = make(map[*Client]bool)
				}
				h.rooms[room][client] = true
			}
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			for _, room := range client.rooms {
				if members, ok := h.rooms[room]; ok {
					delete(members, client)
					if len(members) == 0 {
						delete(h.rooms, room)
					}
				}
			}
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// Publish sends an event to every client subscribed to any of the given
// rooms. A client in several of the rooms receives the event once. Write
// failures are logged and otherwise ignored.
func (h *Hub) Publish(rooms []string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]bool)
	for _, room := range rooms {
		for client := range h.rooms[room] {
			if seen[client] {
				continue
			}
			seen[client] = true
			if err := client.Conn.WriteJSON(event); err != nil {
				log.Printf("websocket write to user %s failed: %v", client.UserID.Hex(), err)
			}
		}
	}
}

// RoomSize returns the number of clients currently in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
