package cache

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delivery struct {
	socketID  string
	sessionID string
	role      string
	event     string
	payload   string
}

type recorder struct {
	got []delivery
}

func (r *recorder) EmitToSocket(socketID, event string, payload any) {
	r.got = append(r.got, delivery{socketID: socketID, event: event, payload: marshal(payload)})
}

func (r *recorder) EmitToRole(sessionID, role, event string, payload any) {
	r.got = append(r.got, delivery{sessionID: sessionID, role: role, event: event, payload: marshal(payload)})
}

func marshal(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func TestRelayDeliversLocallyWithoutRedis(t *testing.T) {
	local := &recorder{}
	relay := NewEventRelay(nil, local)

	relay.EmitToRole("s1", "ctrl", "asq:question_type", map[string]string{"type": "progress"})
	relay.EmitToSocket("sock-1", "asq:question_type", map[string]string{"type": "restoreViewer"})

	assert.Equal(t, []delivery{
		{sessionID: "s1", role: "ctrl", event: "asq:question_type", payload: `{"type":"progress"}`},
		{socketID: "sock-1", event: "asq:question_type", payload: `{"type":"restoreViewer"}`},
	}, local.got)
}

func TestRelayHandlesRemoteEnvelopes(t *testing.T) {
	local := &recorder{}
	relay := NewEventRelay(nil, local)

	remote, err := encodeEnvelope("other-instance", envelope{SessionID: "s1", Role: "ctrl", Event: "asq:question_type"},
		map[string]any{"type": "progress"})
	require.NoError(t, err)
	relay.handle(string(remote))

	own, err := encodeEnvelope(relay.origin, envelope{SocketID: "sock-1", Event: "asq:question_type"}, nil)
	require.NoError(t, err)
	relay.handle(string(own))

	relay.handle("not json")

	assert.Equal(t, []delivery{
		{sessionID: "s1", role: "ctrl", event: "asq:question_type", payload: `{"type":"progress"}`},
	}, local.got)
}
