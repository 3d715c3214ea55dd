package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"webterm/command"
	"webterm/commands"
	"webterm/complete"
	"webterm/events"
	"webterm/history"
	"webterm/prefs"
	"webterm/storage"
	"webterm/theme"
	"webterm/vfs"
	"webterm/websocket"
	"webterm/websocket/service/terminal"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
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
	h := history.NewMemory(0)

	deps := terminal.Deps{
		Registry: registry,
		Engine:   complete.NewEngine(registry, log, complete.DefaultProviders(complete.Sources{Registry: registry, FS: fs, Themes: themes})...),
		Env: command.Env{
			FS:       fs,
			Themes:   themes,
			Prefs:    p,
			Events:   events.Discard,
			Registry: registry,
			User:     "user",
			Log:      log,
		},
	}

	r := gin.New()
	SetupRoutes(r, NewTerminalController(deps, fs, h, time.Minute, log))
	return r
}

func TestHealth(t *testing.T) {
	r := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var got healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "ok", got.Status)
}

func TestStats(t *testing.T) {
	r := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var got vfs.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Positive(t, got.Directories)
	assert.Equal(t, got.StorageQuota-got.StorageUsed, got.StorageAvailable)
}

func TestMetrics(t *testing.T) {
	r := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestTerminalOverWebsocket(t *testing.T) {
	srv := httptest.NewServer(newRouter(t))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/terminal?username=ada"
	client, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	read := func(action string) websocket.ServiceMessage {
		t.Helper()
		require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
		for {
			var msg websocket.ServiceMessage
			require.NoError(t, client.ReadJSON(&msg))
			if msg.Action == action {
				return msg
			}
		}
	}

	require.NoError(t, client.WriteJSON(websocket.ServiceMessage{Service: "terminal", Id: "tab", Action: "start"}))
	var start struct {
		User string `json:"user"`
		Cwd  string `json:"cwd"`
	}
	require.NoError(t, json.Unmarshal(read("start").Data, &start))
	assert.Equal(t, "ada", start.User)
	assert.Equal(t, vfs.HomeDir, start.Cwd)

	require.NoError(t, client.WriteJSON(websocket.ServiceMessage{
		Service: "terminal", Id: "tab", Action: "execute", Data: json.RawMessage(`{"line":"whoami"}`),
	}))
	var out command.Outcome
	require.NoError(t, json.Unmarshal(read("execute").Data, &out))
	assert.Contains(t, out.Output, "ada")

	require.NoError(t, client.WriteJSON(websocket.ServiceMessage{Service: "heartbeat", Id: "hb", Action: "ping"}))
	assert.Equal(t, "hb", read("ping").Id)
}
