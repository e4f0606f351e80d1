package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Message is the WebSocket envelope format
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections grouped by session
type Hub struct {
	// socket id -> connection
	conns map[string]*Connection
	// session id -> socket id -> connection
	sessions map[string]map[string]*Connection

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
}

// Connection represents a WebSocket connection
type Connection struct {
	ID         string
	SessionID  string
	Role       string
	AnswereeID string // empty for presenters
	Send       chan []byte
	Hub        *Hub
}

// BroadcastMessage is a message to deliver. SocketID addresses a single
// connection; otherwise every connection of SessionID holding Role.
type BroadcastMessage struct {
	SocketID  string
	SessionID string
	Role      string
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]*Connection),
		sessions:   make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn.ID] = conn
			if h.sessions[conn.SessionID] == nil {
				h.sessions[conn.SessionID] = make(map[string]*Connection)
			}
			h.sessions[conn.SessionID][conn.ID] = conn
			h.mu.Unlock()
			log.Printf("Socket %s (%s) joined session %s", conn.ID, conn.Role, conn.SessionID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.conns[conn.ID]; ok && existing == conn {
				delete(h.conns, conn.ID)
				if members, ok := h.sessions[conn.SessionID]; ok {
					delete(members, conn.ID)
					if len(members) == 0 {
						delete(h.sessions, conn.SessionID)
					}
				}
				close(conn.Send)
				log.Printf("Socket %s left session %s", conn.ID, conn.SessionID)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg *BroadcastMessage) {
	data, err := json.Marshal(msg.Message)
	if err != nil {
		log.Printf("Warning: failed to encode %s message: %v", msg.Message.Event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.SocketID != "" {
		if conn, ok := h.conns[msg.SocketID]; ok {
			h.send(conn, data)
		}
		return
	}
	for _, conn := range h.sessions[msg.SessionID] {
		if conn.Role == msg.Role {
			h.send(conn, data)
		}
	}
}

func (h *Hub) send(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
		log.Printf("Warning: dropping message for slow socket %s", conn.ID)
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Close stops the hub loop
func (h *Hub) Close() {
	close(h.done)
}

// SessionSize returns the number of sockets connected to a session
func (h *Hub) SessionSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// EmitToSocket sends an event to one connection (implements service.Emitter)
func (h *Hub) EmitToSocket(socketID, event string, payload any) {
	h.enqueue(&BroadcastMessage{SocketID: socketID}, event, payload)
}

// EmitToRole sends an event to every connection of a session holding role
// (implements service.Emitter)
func (h *Hub) EmitToRole(sessionID, role, event string, payload any) {
	h.enqueue(&BroadcastMessage{SessionID: sessionID, Role: role}, event, payload)
}

func (h *Hub) enqueue(msg *BroadcastMessage, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Warning: failed to encode %s payload: %v", event, err)
		return
	}
	msg.Message = &Message{Event: event, Payload: data}
	h.broadcast <- msg
}
