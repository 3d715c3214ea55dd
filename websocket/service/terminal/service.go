package terminal

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"webterm/command"
	"webterm/complete"
	"webterm/events"
	term "webterm/terminal"
	ws "webterm/websocket"
)

const (
	actionStart     = "start"
	actionExecute   = "execute"
	actionComplete  = "complete"
	actionSuggest   = "suggest"
	actionTerminate = "terminate"
	actionEvent     = "event"

	completeTimeout = 5 * time.Second
	eventBuffer     = 32
)

var errNotStarted = errors.New("terminal not started")

type startData struct {
	User string `json:"user,omitempty"`
}

type startReply struct {
	Cwd   string `json:"cwd"`
	User  string `json:"user"`
	Theme string `json:"theme,omitempty"`
}

type executeData struct {
	Line string `json:"line"`
}

type executeReply struct {
	command.Outcome
	Cwd string `json:"cwd"`
}

type completeData struct {
	Input  string `json:"input"`
	Cursor int    `json:"cursor"`
}

// Deps are the process-wide collaborators shared by every session.
type Deps struct {
	Registry *command.Registry
	Engine   *complete.Engine
	// Env is copied into each session, which swaps in its own event queue.
	Env      command.Env
	Debounce time.Duration
}

type session struct {
	runner   *term.Runner
	queue    *events.Queue
	debounce *complete.Debouncer
}

func (s *session) close() {
	s.debounce.Stop()
	s.queue.Close()
}

// TerminalService runs command lines and completion requests for the
// terminal sessions of one connection, keyed by message id.
type TerminalService struct {
	conn     ws.Writer
	deps     Deps
	sessions map[string]*session

	*zap.SugaredLogger
	*sync.RWMutex
}

func NewService(deps Deps, log *zap.SugaredLogger) *TerminalService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &TerminalService{
		deps:          deps,
		sessions:      make(map[string]*session),
		SugaredLogger: log,
		RWMutex:       &sync.RWMutex{},
	}
}

func (s *TerminalService) Name() string {
	return "terminal"
}

func (s *TerminalService) Register(w ws.Writer) {
	s.conn = w
}

func (s *TerminalService) HandleTextMessage(id string, action string, data json.RawMessage) {
	s.RLock()
	sess, exists := s.sessions[id]
	s.RUnlock()

	if action != actionStart && !exists {
		s.Warnf("(id: %s) received %s before terminal started", id, action)
		ws.ReplyError(s.conn, s.Name(), id, action, errNotStarted)
		return
	} else if action == actionStart && exists {
		s.Warnf("(id: %s) received start message after terminal started", id)
		return
	}

	switch action {
	case actionStart:
		var start startData
		if len(data) > 0 {
			if err := json.Unmarshal(data, &start); err != nil {
				s.Warnf("(id: %s) error unmarshalling start payload: %v", id, err)
				return
			}
		}
		if id == "" {
			id = uuid.NewString()
		}
		sess := s.startSession(id, start.User)
		env := sess.runner.Env()
		cwd, _ := env.FS.CurrentDirectory()
		reply := startReply{Cwd: cwd, User: env.User}
		if env.Themes != nil {
			reply.Theme = env.Themes.Current().Name
		}
		ws.Reply(s.conn, s.Name(), id, actionStart, reply)

	case actionExecute:
		var d executeData
		if err := json.Unmarshal(data, &d); err != nil {
			s.Warnf("(id: %s) error unmarshalling execute payload: %v", id, err)
			ws.ReplyError(s.conn, s.Name(), id, action, err)
			return
		}
		out := sess.runner.Run(context.Background(), d.Line)
		cwd, _ := sess.runner.Env().FS.CurrentDirectory()
		ws.Reply(s.conn, s.Name(), id, actionExecute, executeReply{Outcome: out, Cwd: cwd})

	case actionComplete, actionSuggest:
		var d completeData
		if err := json.Unmarshal(data, &d); err != nil {
			s.Warnf("(id: %s) error unmarshalling %s payload: %v", id, action, err)
			ws.ReplyError(s.conn, s.Name(), id, action, err)
			return
		}
		if action == actionComplete {
			go s.complete(id, action, d)
		} else {
			sess.debounce.Trigger(func() { s.complete(id, action, d) })
		}

	case actionTerminate:
		s.Lock()
		delete(s.sessions, id)
		s.Unlock()
		sess.close()
		ws.Reply(s.conn, s.Name(), id, actionTerminate, nil)

	default:
		s.Warnf("(id: %s) unknown terminal action %q", id, action)
	}
}

func (s *TerminalService) Cleanup(err error) {
	s.Lock()
	defer s.Unlock()
	for _, sess := range s.sessions {
		sess.close()
	}
	s.sessions = make(map[string]*session)
}

func (s *TerminalService) startSession(id, user string) *session {
	queue := events.NewQueue(eventBuffer)
	env := s.deps.Env
	env.Events = queue
	if user != "" {
		env.User = user
	}

	sess := &session{
		runner:   term.NewRunner(s.deps.Registry, &env, s.SugaredLogger),
		queue:    queue,
		debounce: complete.NewDebouncer(s.deps.Debounce),
	}

	s.Lock()
	s.sessions[id] = sess
	s.Unlock()

	// forward UI events until the session closes
	go func() {
		for ev := range queue.Events() {
			if err := ws.Reply(s.conn, s.Name(), id, actionEvent, ev); err != nil {
				s.Debugf("(id: %s) error sending event: %v", id, err)
			}
		}
	}()
	return sess
}

func (s *TerminalService) complete(id, action string, d completeData) {
	if s.deps.Engine == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), completeTimeout)
	defer cancel()
	result := s.deps.Engine.Complete(ctx, d.Input, d.Cursor)
	if err := ws.Reply(s.conn, s.Name(), id, action, result); err != nil {
		s.Debugf("(id: %s) error sending %s result: %v", id, action, err)
	}
}
