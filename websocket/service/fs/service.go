package fs

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"webterm/vfs"
	ws "webterm/websocket"
)

const (
	actionList   = "list"
	actionStat   = "stat"
	actionRead   = "read"
	actionWrite  = "write"
	actionCreate = "create"
	actionDelete = "delete"
	actionCopy   = "copy"
	actionMove   = "move"
	actionRename = "rename"
	actionStats  = "stats"

	requestTimeout = 30 * time.Second
)

// FileSystem is the part of the virtual file system the editor reaches.
type FileSystem interface {
	ListDirectory(ctx context.Context, path string, opts vfs.ListOptions) ([]*vfs.FileNode, error)
	Stat(ctx context.Context, path string) (*vfs.FileNode, error)
	ReadFile(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path, content string, appendMode bool) error
	CreateFile(ctx context.Context, path, content string, force bool) error
	CreateDirectory(ctx context.Context, path string, recursive bool) error
	Delete(ctx context.Context, path string, recursive bool) error
	Copy(ctx context.Context, source, dest string, opts vfs.CopyOptions) error
	Move(ctx context.Context, source, dest string) error
	Rename(ctx context.Context, path, newName string) error
	Stats(ctx context.Context) (vfs.Stats, error)
}

type request struct {
	Path       string     `json:"path"`
	ShowHidden bool       `json:"showHidden,omitempty"`
	SortBy     vfs.SortBy `json:"sortBy,omitempty"`
	Reverse    bool       `json:"reverse,omitempty"`
	Content    string     `json:"content,omitempty"`
	Append     bool       `json:"append,omitempty"`
	IsDir      bool       `json:"isDir,omitempty"`
	Force      bool       `json:"force,omitempty"`
	Recursive  bool       `json:"recursive,omitempty"`
	Preserve   bool       `json:"preserveTimestamps,omitempty"`
	Dest       string     `json:"dest,omitempty"`
	NewName    string     `json:"newName,omitempty"`
}

type listData struct {
	Path    string          `json:"path"`
	Entries []*vfs.FileNode `json:"entries"`
}

type readData struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type errorData struct {
	Code vfs.Code `json:"code,omitempty"`
}

// FSService serves file requests from the editor for files opened with
// useFileSystem. Every request runs on its own goroutine; the file system
// serialises them.
type FSService struct {
	conn ws.Writer

	FS FileSystem
	*zap.SugaredLogger
}

func NewService(fs FileSystem, log *zap.SugaredLogger) *FSService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &FSService{FS: fs, SugaredLogger: log}
}

func (s *FSService) Register(w ws.Writer) {
	s.conn = w
}

func (s *FSService) Name() string {
	return "fs"
}

func (s *FSService) HandleTextMessage(id, action string, data json.RawMessage) {
	var req request
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			s.Warnf("(id: %s) error unmarshalling fs %s payload: %v", id, action, err)
			ws.ReplyError(s.conn, s.Name(), id, action, err)
			return
		}
	}
	go s.handle(id, action, req)
}

func (s *FSService) Cleanup(err error) {}

func (s *FSService) handle(id, action string, req request) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var (
		result any
		err    error
	)
	switch action {
	case actionList:
		var entries []*vfs.FileNode
		entries, err = s.FS.ListDirectory(ctx, req.Path, vfs.ListOptions{ShowHidden: req.ShowHidden, SortBy: req.SortBy, Reverse: req.Reverse})
		result = listData{Path: req.Path, Entries: entries}
	case actionStat:
		result, err = s.FS.Stat(ctx, req.Path)
	case actionRead:
		var content string
		content, err = s.FS.ReadFile(ctx, req.Path)
		result = readData{Path: req.Path, Content: content}
	case actionWrite:
		err = s.FS.WriteFile(ctx, req.Path, req.Content, req.Append)
	case actionCreate:
		if req.IsDir {
			err = s.FS.CreateDirectory(ctx, req.Path, req.Recursive)
		} else {
			err = s.FS.CreateFile(ctx, req.Path, req.Content, req.Force)
		}
	case actionDelete:
		err = s.FS.Delete(ctx, req.Path, req.Recursive)
	case actionCopy:
		err = s.FS.Copy(ctx, req.Path, req.Dest, vfs.CopyOptions{Recursive: req.Recursive, Force: req.Force, PreserveTimestamps: req.Preserve})
	case actionMove:
		err = s.FS.Move(ctx, req.Path, req.Dest)
	case actionRename:
		err = s.FS.Rename(ctx, req.Path, req.NewName)
	case actionStats:
		result, err = s.FS.Stats(ctx)
	default:
		s.Warnf("(id: %s) unknown fs action %q", id, action)
		return
	}

	if err != nil {
		s.handleError(id, action, err)
		return
	}
	if err := ws.Reply(s.conn, s.Name(), id, action, result); err != nil {
		s.Warnf("(id: %s) error sending fs %s response: %v", id, action, err)
	}
}

func (s *FSService) handleError(id, action string, err error) {
	s.Debugf("(id: %s) fs %s: %v", id, action, err)

	msg := &ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
		Error:   err.Error(),
	}
	if code := vfs.CodeOf(err); code != "" {
		msg.Data, _ = json.Marshal(errorData{Code: code})
	}
	s.conn.WriteJSON(msg)
}
