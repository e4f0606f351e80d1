package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"exercisehub/internal/model"
	"exercisehub/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	restoreTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are enforced by the REST CORS layer
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	hooks    service.ExerciseHooks
	ctrlRole string
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, hooks service.ExerciseHooks, ctrlRole string) *Handler {
	if ctrlRole == "" {
		ctrlRole = model.RoleController
	}
	return &Handler{
		hub:      hub,
		hooks:    hooks,
		ctrlRole: ctrlRole,
	}
}

// SessionWS handles GET /v1/ws/sessions/{sessionId}?role=&answereeId=
func (h *Handler) SessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	role := r.URL.Query().Get("role")
	answereeID := r.URL.Query().Get("answereeId")

	if role == "" {
		role = model.RoleViewer
	}
	if role != h.ctrlRole && answereeID == "" {
		http.Error(w, "missing answereeId", http.StatusBadRequest)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Role:       role,
		AnswereeID: answereeID,
		Send:       make(chan []byte, 256),
		Hub:        h.hub,
	}

	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)

	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()
	err = h.hooks.ParticipantConnected(ctx, service.ConnectInfo{
		SessionID:  sessionID,
		SocketID:   conn.ID,
		Role:       role,
		AnswereeID: answereeID,
	})
	if err != nil {
		log.Printf("Warning: restore for socket %s in session %s failed: %v", conn.ID, sessionID, err)
	}
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		// submissions arrive over REST; inbound frames only keep the socket alive
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
