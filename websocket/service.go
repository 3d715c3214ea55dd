package websocket

import (
	"encoding/json"
)

// Writer sends one JSON message to the peer. *Conn is the production
// implementation; tests record messages instead.
type Writer interface {
	WriteJSON(v any) error
}

type Service interface {
	HandleTextMessage(id string, action string, data json.RawMessage)
	Name() string
	Cleanup(err error)
	Register(w Writer)
}

type ServiceMessage struct {
	Service string          `json:"service"`
	Id      string          `json:"id,omitempty"`
	Action  string          `json:"action,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Reply sends payload, JSON encoded, as the data of a service message.
// A nil payload sends no data.
func Reply(w Writer, service, id, action string, payload any) error {
	msg := &ServiceMessage{Service: service, Id: id, Action: action}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		msg.Data = data
	}
	return w.WriteJSON(msg)
}

// ReplyError reports a failed request.
func ReplyError(w Writer, service, id, action string, err error) error {
	return w.WriteJSON(&ServiceMessage{Service: service, Id: id, Action: action, Error: err.Error()})
}
