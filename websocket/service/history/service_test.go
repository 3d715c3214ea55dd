package history

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webterm/history"
	ws "webterm/websocket"
)

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

func (r *recorder) last(t *testing.T) *ws.ServiceMessage {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.messages)
	return r.messages[len(r.messages)-1]
}

func TestHistoryService_RecordAndSearch(t *testing.T) {
	h := history.NewMemory(0)
	s := NewService(h, nil)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	conn := &recorder{}
	s.Register(conn)

	s.HandleTextMessage("1", actionRecord, json.RawMessage(`{"url":"https://go.dev/doc","title":"Docs"}`))
	s.HandleTextMessage("2", actionRecord, json.RawMessage(`{"url":"https://go.dev/doc"}`))
	s.HandleTextMessage("3", actionRecord, json.RawMessage(`{"url":"https://github.com/","visitedAt":1714521600000}`))
	assert.Equal(t, 2, h.Len())
	assert.Empty(t, conn.messages, "record does not reply")

	s.HandleTextMessage("4", actionSearch, json.RawMessage(`{"query":"go"}`))
	reply := conn.last(t)
	assert.Equal(t, "history", reply.Service)
	assert.Equal(t, "4", reply.Id)

	var got searchData
	require.NoError(t, json.Unmarshal(reply.Data, &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "https://go.dev/doc", got.Items[0].URL)
	assert.Equal(t, 2, got.Items[0].VisitCount)
}

func TestHistoryService_BadPayload(t *testing.T) {
	s := NewService(history.NewMemory(0), nil)
	conn := &recorder{}
	s.Register(conn)

	s.HandleTextMessage("1", actionRecord, json.RawMessage(`nope`))
	assert.NotEmpty(t, conn.last(t).Error)
}
