package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Conn struct {
	*ws.Conn
	mu sync.Mutex
	// TextMessage carries decoded messages until the peer goes away.
	TextMessage chan *ServiceMessage

	log *zap.SugaredLogger
}

var (
	upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
)

func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	err := c.Conn.WriteJSON(v)
	c.mu.Unlock()

	if err != nil {
		c.log.Debugf("write json: %v", err)
	}
	return err
}

// NewConn upgrades the request.
func NewConn(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger) (*Conn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade: %v", err)
		return nil, err
	}

	return &Conn{
		Conn:        conn,
		TextMessage: make(chan *ServiceMessage, 10),
		log:         log,
	}, nil
}

// StartDispatch reads messages into TextMessage until the connection fails.
// Binary frames are not part of the protocol and are dropped.
func (c *Conn) StartDispatch() error {
	defer close(c.TextMessage)
	for {
		msgType, data, err := c.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != ws.TextMessage {
			c.log.Debugf("ignoring %d byte binary frame", len(data))
			continue
		}

		var msg ServiceMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warnf("error unmarshalling message: %v", err)
			continue
		}
		c.TextMessage <- &msg
	}
}
