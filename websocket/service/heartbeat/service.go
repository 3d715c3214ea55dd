package heartbeat

import (
	"encoding/json"

	ws "webterm/websocket"
)

// HeartbeatService echoes every message back so the page can tell the
// connection is alive. It is registered passively and never resets the
// idle timer.
type HeartbeatService struct {
	conn ws.Writer
}

func (s *HeartbeatService) Name() string {
	return "heartbeat"
}

func (s *HeartbeatService) Register(w ws.Writer) {
	s.conn = w
}

func (s *HeartbeatService) HandleTextMessage(id, action string, data json.RawMessage) {
	if s.conn == nil {
		return
	}
	s.conn.WriteJSON(&ws.ServiceMessage{Service: s.Name(), Action: action, Id: id})
}

func (s *HeartbeatService) Cleanup(err error) {}

func NewService() ws.Service {
	return &HeartbeatService{}
}
