package history

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"webterm/history"
	ws "webterm/websocket"
)

const (
	actionRecord = "record"
	actionSearch = "search"

	defaultSearchMax = 20
	searchTimeout    = 5 * time.Second
)

type request struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	// VisitedAt is unix milliseconds; zero means now.
	VisitedAt int64  `json:"visitedAt,omitempty"`
	Query     string `json:"query,omitempty"`
	Max       int    `json:"max,omitempty"`
}

type searchData struct {
	Query string         `json:"query"`
	Items []history.Item `json:"items"`
}

// HistoryService lets the page report visits and query them back. The
// domain completion provider reads the same store.
type HistoryService struct {
	conn ws.Writer

	history *history.Memory
	now     func() time.Time
	*zap.SugaredLogger
}

func NewService(h *history.Memory, log *zap.SugaredLogger) *HistoryService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &HistoryService{history: h, now: time.Now, SugaredLogger: log}
}

func (s *HistoryService) Name() string {
	return "history"
}

func (s *HistoryService) Register(w ws.Writer) {
	s.conn = w
}

func (s *HistoryService) Cleanup(err error) {}

func (s *HistoryService) HandleTextMessage(id, action string, data json.RawMessage) {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		s.Warnf("(id: %s) error unmarshalling history %s payload: %v", id, action, err)
		ws.ReplyError(s.conn, s.Name(), id, action, err)
		return
	}

	switch action {
	case actionRecord:
		at := s.now()
		if req.VisitedAt > 0 {
			at = time.UnixMilli(req.VisitedAt)
		}
		s.history.Record(req.URL, req.Title, at)
		s.Debugf("(id: %s) recorded visit to %s", id, req.URL)

	case actionSearch:
		max := req.Max
		if max <= 0 {
			max = defaultSearchMax
		}
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()
		items, err := s.history.Search(ctx, req.Query, max)
		if err != nil {
			ws.ReplyError(s.conn, s.Name(), id, action, err)
			return
		}
		if items == nil {
			items = []history.Item{}
		}
		ws.Reply(s.conn, s.Name(), id, action, searchData{Query: req.Query, Items: items})

	default:
		s.Warnf("(id: %s) unknown history action %q", id, action)
	}
}
