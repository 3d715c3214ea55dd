package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"webterm/vfs"
	"webterm/vpath"
	ws "webterm/websocket"
)

const (
	actionStartSession    = "start_session"
	actionCompleteSession = "complete_session"
	actionCancelSession   = "cancel_session"
	actionStartFile       = "start_file"
	actionCompleteFile    = "complete_file"
	actionChunk           = "chunk"
	actionMkdir           = "mkdir"

	// what to do when the destination already exists
	policyOverwrite = "overwrite"
	policySkip      = "skip"
	policyRename    = "rename"

	opTimeout = 10 * time.Second
)

var (
	errNoSession = errors.New("upload failed: no such upload session")
	errNoFile    = errors.New("upload failed: no file in progress")
	errFileOpen  = errors.New("upload failed: previous file not completed")
	errDigest    = errors.New("upload failed: file integrity check failed")
	errBadPolicy = errors.New("upload failed: unknown policy")
)

// FileSystem is the part of the virtual file system uploads write to.
type FileSystem interface {
	Exists(ctx context.Context, path string) (bool, error)
	Stat(ctx context.Context, path string) (*vfs.FileNode, error)
	CreateDirectory(ctx context.Context, path string, recursive bool) error
	WriteFile(ctx context.Context, path, content string, appendMode bool) error
}

type startSessionData struct {
	Policy string `json:"policy,omitempty"`

	NeedConfirm bool   `json:"needConfirm"`
	Dest        string `json:"dest,omitempty"`
}

type startFileData struct {
	Path string `json:"path,omitempty"`

	Skip bool `json:"skip"`
}

type chunkData struct {
	// Data is the next piece of file text. Binary frames are not used.
	Data     string `json:"data,omitempty"`
	Progress int    `json:"progress"`
}

type completeFileData struct {
	Digest string `json:"digest,omitempty"`
}

type uploadSession struct {
	dest   string
	policy string

	// the file being received, buffered until complete_file
	path   string
	buf    *strings.Builder
	hasher hash.Hash
	sync.Mutex
}

// UploadService imports files dropped on the page into the virtual file
// system. A session is keyed by its destination path; its files arrive one
// at a time as text chunks and are written once their digest checks out.
type UploadService struct {
	conn ws.Writer
	FS   FileSystem

	sessions map[string]*uploadSession
	*sync.RWMutex

	*zap.SugaredLogger
}

func NewService(fs FileSystem, log *zap.SugaredLogger) *UploadService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &UploadService{
		FS:            fs,
		sessions:      make(map[string]*uploadSession),
		RWMutex:       new(sync.RWMutex),
		SugaredLogger: log,
	}
}

func (s *UploadService) Register(w ws.Writer) {
	s.conn = w
}

func (s *UploadService) Name() string {
	return "upload"
}

func (s *UploadService) HandleTextMessage(id, action string, data json.RawMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	switch action {
	case actionStartSession:
		s.handleStartSession(ctx, id, data)
	case actionCompleteSession:
		s.handleEndSession(id, actionCompleteSession)
	case actionCancelSession:
		s.handleEndSession(id, actionCancelSession)
	case actionStartFile:
		s.handleStartFile(ctx, id, data)
	case actionChunk:
		s.handleChunk(id, data)
	case actionCompleteFile:
		s.handleCompleteFile(ctx, id, data)
	case actionMkdir:
		s.handleMkdir(ctx, id, data)
	default:
		s.Warnf("(id: %s) unknown upload action %q", id, action)
	}
}

// Cleanup drops unfinished files. Nothing reached the file system yet.
func (s *UploadService) Cleanup(err error) {
	s.Lock()
	defer s.Unlock()
	if len(s.sessions) > 0 {
		s.Infof("dropping %d unfinished upload sessions: %v", len(s.sessions), err)
	}
	s.sessions = make(map[string]*uploadSession)
}

func (s *UploadService) session(id string) (*uploadSession, bool) {
	s.RLock()
	defer s.RUnlock()
	ss, ok := s.sessions[id]
	return ss, ok
}

func (s *UploadService) handleStartSession(ctx context.Context, id string, data json.RawMessage) {
	var d startSessionData
	if len(data) > 0 {
		if err := json.Unmarshal(data, &d); err != nil {
			s.Warnf("(id: %s) error decoding start session data: %v", id, err)
			ws.ReplyError(s.conn, s.Name(), id, actionStartSession, err)
			return
		}
	}
	switch d.Policy {
	case "", policyOverwrite, policySkip, policyRename:
	default:
		s.handleError(id, actionStartSession, fmt.Errorf("%w %q", errBadPolicy, d.Policy))
		return
	}

	exists, err := s.FS.Exists(ctx, id)
	if err != nil {
		s.handleError(id, actionStartSession, err)
		return
	}

	// destination exists, ask the page how to proceed
	if d.Policy == "" && exists {
		ws.Reply(s.conn, s.Name(), id, actionStartSession, startSessionData{NeedConfirm: true})
		return
	}

	dest := id
	if d.Policy == policyRename && exists {
		if dest, err = s.uniqueName(ctx, id); err != nil {
			s.handleError(id, actionStartSession, err)
			return
		}
	}

	s.Lock()
	s.sessions[id] = &uploadSession{dest: dest, policy: d.Policy, hasher: sha256.New()}
	s.Unlock()

	ws.Reply(s.conn, s.Name(), id, actionStartSession, startSessionData{Dest: dest})
}

func (s *UploadService) handleEndSession(id, action string) {
	s.Lock()
	_, exists := s.sessions[id]
	delete(s.sessions, id)
	s.Unlock()

	if !exists {
		s.Warnf("(id: %s) session not found, cannot %s", id, action)
		ws.ReplyError(s.conn, s.Name(), id, action, errNoSession)
		return
	}
	ws.Reply(s.conn, s.Name(), id, action, nil)
}

func (s *UploadService) handleStartFile(ctx context.Context, id string, data json.RawMessage) {
	ss, exists := s.session(id)
	if !exists {
		ws.ReplyError(s.conn, s.Name(), id, actionStartFile, errNoSession)
		return
	}

	var d startFileData
	if err := json.Unmarshal(data, &d); err != nil {
		s.Warnf("(id: %s) error decoding start file data: %v", id, err)
		ws.ReplyError(s.conn, s.Name(), id, actionStartFile, err)
		return
	}

	ss.Lock()
	defer ss.Unlock()
	if ss.buf != nil {
		ws.ReplyError(s.conn, s.Name(), id, actionStartFile, errFileOpen)
		return
	}

	p := targetPath(id, ss.dest, d.Path)

	node, statErr := s.FS.Stat(ctx, p)
	if ss.policy == policySkip && statErr == nil {
		ws.Reply(s.conn, s.Name(), id, actionStartFile, startFileData{Path: p, Skip: true})
		return
	}
	// a directory is in the way of the file
	if statErr == nil && node.Type == vfs.TypeDirectory {
		p = vpath.Join(p, fmt.Sprint("_", time.Now().Unix()))
	}

	if parent := vpath.Dirname(p); parent != "." {
		if err := s.FS.CreateDirectory(ctx, parent, true); err != nil && !errors.Is(err, vfs.EEXIST) {
			s.handleError(id, actionStartFile, err)
			return
		}
	}

	ss.path = p
	ss.buf = &strings.Builder{}
	ss.hasher.Reset()

	ws.Reply(s.conn, s.Name(), id, actionStartFile, startFileData{Path: p})
}

func (s *UploadService) handleChunk(id string, data json.RawMessage) {
	ss, exists := s.session(id)
	if !exists {
		ws.ReplyError(s.conn, s.Name(), id, actionChunk, errNoSession)
		return
	}

	var d chunkData
	if err := json.Unmarshal(data, &d); err != nil {
		s.Warnf("(id: %s) error decoding chunk data: %v", id, err)
		ws.ReplyError(s.conn, s.Name(), id, actionChunk, err)
		return
	}

	ss.Lock()
	if ss.buf == nil {
		ss.Unlock()
		ws.ReplyError(s.conn, s.Name(), id, actionChunk, errNoFile)
		return
	}
	ss.buf.WriteString(d.Data)
	ss.hasher.Write([]byte(d.Data))
	progress := ss.buf.Len()
	ss.Unlock()

	ws.Reply(s.conn, s.Name(), id, actionChunk, chunkData{Progress: progress})
}

func (s *UploadService) handleCompleteFile(ctx context.Context, id string, data json.RawMessage) {
	ss, exists := s.session(id)
	if !exists {
		ws.ReplyError(s.conn, s.Name(), id, actionCompleteFile, errNoSession)
		return
	}

	var d completeFileData
	if err := json.Unmarshal(data, &d); err != nil {
		s.Warnf("(id: %s) error decoding complete file data: %v", id, err)
		ws.ReplyError(s.conn, s.Name(), id, actionCompleteFile, err)
		return
	}

	ss.Lock()
	buf, p := ss.buf, ss.path
	ss.buf, ss.path = nil, ""
	digest := hex.EncodeToString(ss.hasher.Sum(nil))
	ss.Unlock()

	if buf == nil {
		ws.ReplyError(s.conn, s.Name(), id, actionCompleteFile, errNoFile)
		return
	}
	if digest != d.Digest {
		s.Warnf("(id: %s) hash mismatch, local: %s, peer: %s", id, digest, d.Digest)
		ws.ReplyError(s.conn, s.Name(), id, actionCompleteFile, errDigest)
		return
	}

	if err := s.FS.WriteFile(ctx, p, buf.String(), false); err != nil {
		s.handleError(id, actionCompleteFile, err)
		return
	}
	s.Debugf("(id: %s) uploaded %s (%d bytes)", id, p, buf.Len())
	ws.Reply(s.conn, s.Name(), id, actionCompleteFile, startFileData{Path: p})
}

func (s *UploadService) handleMkdir(ctx context.Context, id string, data json.RawMessage) {
	var d string
	if err := json.Unmarshal(data, &d); err != nil {
		s.Warnf("(id: %s) error decoding mkdir data: %v", id, err)
		ws.ReplyError(s.conn, s.Name(), id, actionMkdir, err)
		return
	}
	if err := s.FS.CreateDirectory(ctx, d, true); err != nil && !errors.Is(err, vfs.EEXIST) {
		s.handleError(id, actionMkdir, err)
		return
	}
	ws.Reply(s.conn, s.Name(), id, actionMkdir, nil)
}

func (s *UploadService) handleError(id, action string, err error) {
	s.Debugf("(id: %s) upload %s: %v", id, action, err)
	if errors.Is(err, vfs.ENOSPC) {
		err = fmt.Errorf("upload failed: not enough space: %w", err)
	}
	ws.ReplyError(s.conn, s.Name(), id, action, err)
}

// uniqueName returns p with the first free _N suffix before its extension.
func (s *UploadService) uniqueName(ctx context.Context, p string) (string, error) {
	base, suffix := p, ""
	if strings.HasSuffix(p, "/") {
		base, suffix = strings.TrimSuffix(p, "/"), "/"
	} else if ext := vpath.Extname(p); ext != "" {
		base, suffix = strings.TrimSuffix(p, ext), ext
	}

	for num := 1; ; num++ {
		candidate := fmt.Sprintf("%s_%d%s", base, num, suffix)
		exists, err := s.FS.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

// targetPath maps a file path reported by the page, which may be prefixed
// with the session id, under dest. ".." cannot climb above dest.
func targetPath(id, dest, p string) string {
	rel := strings.TrimPrefix(p, id)
	rel = strings.TrimPrefix(vpath.Normalize("/"+rel), "/")
	if rel == "" {
		return dest
	}
	return vpath.Join(dest, rel)
}
