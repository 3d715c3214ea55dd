package terminal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"webterm/command"
	"webterm/commands"
	"webterm/complete"
	"webterm/events"
	"webterm/prefs"
	"webterm/storage"
	"webterm/theme"
	"webterm/vfs"
	ws "webterm/websocket"
)

// chanWriter hands every written message to the test.
type chanWriter chan *ws.ServiceMessage

func (c chanWriter) WriteJSON(v any) error {
	c <- v.(*ws.ServiceMessage)
	return nil
}

// await returns the first message with the given action, skipping others.
func (c chanWriter) await(t *testing.T, action string) *ws.ServiceMessage {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-c:
			if msg.Action == action {
				return msg
			}
		case <-deadline:
			t.Fatalf("no %s message", action)
			return nil
		}
	}
}

func newService(t *testing.T) (*TerminalService, chanWriter) {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop().Sugar()
	kv := storage.NewMemoryStore()

	fs := vfs.New(kv, vfs.Options{})
	require.NoError(t, fs.Initialize(ctx))
	themes, err := theme.NewStore(ctx, kv, log)
	require.NoError(t, err)
	p, err := prefs.NewStore(ctx, kv, log)
	require.NoError(t, err)

	registry := command.NewRegistry(log)
	require.NoError(t, commands.Register(registry))

	engine := complete.NewEngine(registry, log, complete.DefaultProviders(complete.Sources{
		Registry: registry,
		FS:       fs,
		Themes:   themes,
	})...)

	s := NewService(Deps{
		Registry: registry,
		Engine:   engine,
		Env: command.Env{
			FS:       fs,
			Themes:   themes,
			Prefs:    p,
			Events:   events.Discard,
			Registry: registry,
			User:     "user",
			Log:      log,
		},
		Debounce: 10 * time.Millisecond,
	}, log)
	out := make(chanWriter, 16)
	s.Register(out)
	t.Cleanup(func() { s.Cleanup(nil) })
	return s, out
}

func TestTerminalService_Name(t *testing.T) {
	assert.Equal(t, "terminal", NewService(Deps{}, nil).Name())
}

func TestTerminalService_Start(t *testing.T) {
	s, out := newService(t)

	s.HandleTextMessage("t1", actionStart, json.RawMessage(`{"user":"ada"}`))
	msg := out.await(t, actionStart)
	assert.Equal(t, "t1", msg.Id)

	var got startReply
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, vfs.HomeDir, got.Cwd)
	assert.Equal(t, "ada", got.User)
	assert.NotEmpty(t, got.Theme)

	// a second start on the same id is ignored
	s.HandleTextMessage("t1", actionStart, nil)
	select {
	case msg := <-out:
		t.Fatalf("unexpected message %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTerminalService_NotStarted(t *testing.T) {
	s, out := newService(t)

	s.HandleTextMessage("nope", actionExecute, json.RawMessage(`{"line":"pwd"}`))
	msg := out.await(t, actionExecute)
	assert.Equal(t, errNotStarted.Error(), msg.Error)
}

func TestTerminalService_Execute(t *testing.T) {
	s, out := newService(t)
	s.HandleTextMessage("t1", actionStart, nil)
	out.await(t, actionStart)

	s.HandleTextMessage("t1", actionExecute, json.RawMessage(`{"line":"mkdir projects"}`))
	out.await(t, actionExecute)

	s.HandleTextMessage("t1", actionExecute, json.RawMessage(`{"line":"cd projects"}`))
	var reply executeReply
	require.NoError(t, json.Unmarshal(out.await(t, actionExecute).Data, &reply))
	assert.Equal(t, command.TypeSuccess, reply.Type)
	assert.Equal(t, vfs.HomeDir+"/projects", reply.Cwd)

	s.HandleTextMessage("t1", actionExecute, json.RawMessage(`{"line":"echo hello"}`))
	require.NoError(t, json.Unmarshal(out.await(t, actionExecute).Data, &reply))
	assert.Contains(t, reply.Output, "hello")

	s.HandleTextMessage("t1", actionExecute, json.RawMessage(`{bad`))
	assert.NotEmpty(t, out.await(t, actionExecute).Error)
}

func TestTerminalService_Events(t *testing.T) {
	s, out := newService(t)
	s.HandleTextMessage("t1", actionStart, nil)
	out.await(t, actionStart)

	s.HandleTextMessage("t1", actionExecute, json.RawMessage(`{"line":"clear"}`))

	msg := out.await(t, actionEvent)
	assert.Equal(t, "t1", msg.Id)
	var ev events.Event
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, events.TypeClear, ev.Type)
}

func TestTerminalService_Complete(t *testing.T) {
	s, out := newService(t)
	s.HandleTextMessage("t1", actionStart, nil)
	out.await(t, actionStart)

	s.HandleTextMessage("t1", actionComplete, json.RawMessage(`{"input":"ech","cursor":3}`))
	var result complete.Result
	require.NoError(t, json.Unmarshal(out.await(t, actionComplete).Data, &result))
	require.NotEmpty(t, result.Completions)
	assert.Equal(t, "echo", result.Completions[0].Value)
}

func TestTerminalService_SuggestIsDebounced(t *testing.T) {
	s, out := newService(t)
	s.HandleTextMessage("t1", actionStart, nil)
	out.await(t, actionStart)

	s.HandleTextMessage("t1", actionSuggest, json.RawMessage(`{"input":"e","cursor":1}`))
	s.HandleTextMessage("t1", actionSuggest, json.RawMessage(`{"input":"ec","cursor":2}`))
	s.HandleTextMessage("t1", actionSuggest, json.RawMessage(`{"input":"ech","cursor":3}`))

	var result complete.Result
	require.NoError(t, json.Unmarshal(out.await(t, actionSuggest).Data, &result))
	assert.Equal(t, "ech", result.Context.Input)

	select {
	case msg := <-out:
		t.Fatalf("expected a single suggest reply, got %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTerminalService_Terminate(t *testing.T) {
	s, out := newService(t)
	s.HandleTextMessage("t1", actionStart, nil)
	out.await(t, actionStart)

	s.HandleTextMessage("t1", actionTerminate, nil)
	out.await(t, actionTerminate)

	s.RLock()
	assert.Empty(t, s.sessions)
	s.RUnlock()

	s.HandleTextMessage("t1", actionExecute, json.RawMessage(`{"line":"pwd"}`))
	assert.Equal(t, errNotStarted.Error(), out.await(t, actionExecute).Error)
}
