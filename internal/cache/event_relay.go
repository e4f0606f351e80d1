package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Deliverer pushes events to the sockets connected to this instance
type Deliverer interface {
	EmitToSocket(socketID, event string, payload any)
	EmitToRole(sessionID, role, event string, payload any)
}

// EventRelay fans emitted events out to every server instance through
// Redis Pub/Sub. Events are delivered locally right away and published for
// the other instances; an instance ignores its own publications.
type EventRelay struct {
	client  *redis.Client
	local   Deliverer
	origin  string
	channel string
}

// envelope is the Pub/Sub wire format
type envelope struct {
	Origin    string          `json:"origin"`
	SocketID  string          `json:"socketId,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Role      string          `json:"role,omitempty"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEventRelay creates a relay delivering to local and publishing on client
func NewEventRelay(client *redis.Client, local Deliverer) *EventRelay {
	return &EventRelay{
		client:  client,
		local:   local,
		origin:  uuid.NewString(),
		channel: "exercisehub:events",
	}
}

func (r *EventRelay) key() string {
	return r.channel
}

// EmitToSocket delivers to one socket, wherever it is connected
func (r *EventRelay) EmitToSocket(socketID, event string, payload any) {
	r.local.EmitToSocket(socketID, event, payload)
	r.publish(envelope{SocketID: socketID, Event: event}, payload)
}

// EmitToRole delivers to every socket of a session holding role
func (r *EventRelay) EmitToRole(sessionID, role, event string, payload any) {
	r.local.EmitToRole(sessionID, role, event, payload)
	r.publish(envelope{SessionID: sessionID, Role: role, Event: event}, payload)
}

func (r *EventRelay) publish(env envelope, payload any) {
	if r.client == nil {
		return
	}
	data, err := encodeEnvelope(r.origin, env, payload)
	if err != nil {
		log.Printf("Warning: failed to encode %s event: %v", env.Event, err)
		return
	}
	if err := r.client.Publish(context.Background(), r.key(), data).Err(); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", env.Event, err)
	}
}

// Run delivers events published by other instances until ctx is done
func (r *EventRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.key())
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.key(), err)
	}
	log.Printf("Relaying events on %s as %s", r.key(), r.origin)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(msg.Payload)
		}
	}
}

// handle delivers one received envelope to local sockets
func (r *EventRelay) handle(data string) {
	var env envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		log.Printf("Warning: dropping malformed relay message: %v", err)
		return
	}
	if env.Origin == r.origin {
		return
	}

	if env.SocketID != "" {
		r.local.EmitToSocket(env.SocketID, env.Event, env.Payload)
		return
	}
	r.local.EmitToRole(env.SessionID, env.Role, env.Event, env.Payload)
}

func encodeEnvelope(origin string, env envelope, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	env.Origin = origin
	env.Payload = raw
	return json.Marshal(env)
}
