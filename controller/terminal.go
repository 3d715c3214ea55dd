package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"webterm/history"
	"webterm/middleware"
	"webterm/vfs"
	"webterm/websocket"
	"webterm/websocket/service/fs"
	"webterm/websocket/service/heartbeat"
	historysvc "webterm/websocket/service/history"
	"webterm/websocket/service/terminal"
	"webterm/websocket/service/upload"
)

const statsTimeout = 5 * time.Second

// TerminalController owns the process-wide collaborators and hands them to
// the services of every new websocket connection.
type TerminalController struct {
	Terminal terminal.Deps
	FS       *vfs.FileSystem
	History  *history.Memory
	Timeout  time.Duration

	log *zap.SugaredLogger
}

func NewTerminalController(deps terminal.Deps, fs *vfs.FileSystem, h *history.Memory, timeout time.Duration, log *zap.SugaredLogger) *TerminalController {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &TerminalController{
		Terminal: deps,
		FS:       fs,
		History:  h,
		Timeout:  timeout,
		log:      log,
	}
}

func (tc *TerminalController) StartTerminal(c *gin.Context) {
	wsServer, err := websocket.NewServer(c.Writer, c.Request, tc.Timeout, tc.log.Named("websocket"))
	if err != nil {
		// the upgrader has already written the failure response
		tc.log.Debugf("websocket upgrade failed: %v", err)
		return
	}

	deps := tc.Terminal
	if user := c.GetString(middleware.UserKey); user != "" {
		deps.Env.User = user
	}

	// Register services
	terminalService := terminal.NewService(deps, tc.log.Named("terminal"))
	fsService := fs.NewService(tc.FS, tc.log.Named("fs"))
	historyService := historysvc.NewService(tc.History, tc.log.Named("history"))
	uploadService := upload.NewService(tc.FS, tc.log.Named("upload"))
	heartbeatService := heartbeat.NewService()

	wsServer.Register(terminalService)
	wsServer.Register(fsService)
	wsServer.Register(historyService)
	wsServer.Register(uploadService)

	wsServer.RegisterPassive(heartbeatService)

	wsServer.Start()
}

func (tc *TerminalController) Stats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), statsTimeout)
	defer cancel()

	stats, err := tc.FS.Stats(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(startedAt).Round(time.Second).String(),
	})
}
