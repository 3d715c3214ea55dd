package heartbeat

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "webterm/websocket"
)

// recorder keeps every message written to it.
type recorder struct {
	mu       sync.Mutex
	messages []*ws.ServiceMessage
}

func (r *recorder) WriteJSON(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, v.(*ws.ServiceMessage))
	return nil
}

func TestHeartbeatService_Name(t *testing.T) {
	assert.Equal(t, "heartbeat", NewService().Name())
}

func TestHeartbeatService_HandleTextMessage(t *testing.T) {
	service := NewService()
	conn := &recorder{}
	service.Register(conn)

	testCases := []struct {
		name     string
		id       string
		action   string
		expected ws.ServiceMessage
	}{
		{
			name:     "Simple heartbeat",
			id:       "test-id-1",
			action:   "ping",
			expected: ws.ServiceMessage{Service: "heartbeat", Action: "ping", Id: "test-id-1"},
		},
		{
			name:     "Different action",
			id:       "test-id-2",
			action:   "pong",
			expected: ws.ServiceMessage{Service: "heartbeat", Action: "pong", Id: "test-id-2"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service.HandleTextMessage(tc.id, tc.action, json.RawMessage(`{}`))

			conn.mu.Lock()
			defer conn.mu.Unlock()
			require.NotEmpty(t, conn.messages, "no message was recorded")
			assert.Equal(t, tc.expected, *conn.messages[len(conn.messages)-1])
		})
	}
}

func TestHeartbeatService_Unregistered(t *testing.T) {
	assert.NotPanics(t, func() {
		NewService().HandleTextMessage("1", "ping", nil)
	})
}

func TestHeartbeatService_Cleanup(t *testing.T) {
	service := NewService().(*HeartbeatService)
	// Cleanup has nothing to release.
	service.Cleanup(nil)
	service.Cleanup(errors.New("test error"))
}
