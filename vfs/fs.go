// Package vfs implements the persisted virtual file system behind the
// terminal: a tree of FileNode metadata plus one FileContent blob per
// written file, stored in a storage.Store.
//
// Every operation resolves its path arguments against the working
// directory first, applies the change to the in-memory state and persists
// the whole state before returning. Operations are serialised by a mutex,
// so no caller observes a half-applied change.
package vfs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"webterm/metrics"
	"webterm/storage"
	"webterm/vpath"
)

const (
	StateKey         = "terminal_filesystem"
	ContentKeyPrefix = "file_content_"

	DefaultQuota = 5 * 1024 * 1024
	HomeDir      = "/home/user"

	welcomeFile    = HomeDir + "/welcome.txt"
	welcomeMessage = `Welcome to your terminal new tab!

This is a virtual file system that lives in your browser storage.
Try a few commands:

  ls            list files
  mkdir notes   create a directory
  edit todo.md  open the editor
  theme list    browse color themes
  help          show every command
`
)

// Options tunes a FileSystem. Zero values select the defaults.
type Options struct {
	Quota  int64
	Now    func() time.Time
	NewID  func() string
	Logger *zap.SugaredLogger
}

// FileSystem is the virtual file system engine. Construct one per store
// and share it by reference.
type FileSystem struct {
	mu    sync.Mutex
	store storage.Store
	state *State

	quota int64
	now   func() time.Time
	newID func() string
	log   *zap.SugaredLogger
}

// New creates an engine on top of store. Nothing is loaded until the first
// operation or an explicit Initialize.
func New(store storage.Store, opts Options) *FileSystem {
	fs := &FileSystem{
		store: store,
		quota: opts.Quota,
		now:   opts.Now,
		newID: opts.NewID,
		log:   opts.Logger,
	}
	if fs.quota <= 0 {
		fs.quota = DefaultQuota
	}
	if fs.now == nil {
		fs.now = time.Now
	}
	if fs.newID == nil {
		fs.newID = uuid.NewString
	}
	if fs.log == nil {
		fs.log = zap.NewNop().Sugar()
	}
	return fs
}

// Initialize loads the persisted state, or seeds and persists the default
// tree when there is none. It is idempotent.
func (fs *FileSystem) Initialize(ctx context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.initLocked(ctx)
}

func (fs *FileSystem) initLocked(ctx context.Context) error {
	if fs.state != nil {
		return nil
	}

	var state State
	err := fs.store.Get(ctx, StateKey, &state)
	switch {
	case err == nil && state.Nodes[vpath.Root] != nil:
		if node, ok := state.Nodes[state.Cwd]; !ok || !node.IsDir() {
			fs.log.Warnf("persisted cwd %q is not a directory, resetting to %s", state.Cwd, HomeDir)
			state.Cwd = vpath.Root
			if home, ok := state.Nodes[HomeDir]; ok && home.IsDir() {
				state.Cwd = HomeDir
			}
		}
		state.RootPath = vpath.Root
		fs.state = &state
		fs.log.Debugf("loaded file system with %d nodes", len(state.Nodes))
		fs.updateUsageGauge()
		return nil
	case err == nil, storage.IsNotFound(err):
		if err == nil {
			fs.log.Warn("persisted file system has no root, seeding a new one")
		}
		return fs.seedLocked(ctx)
	default:
		return fmt.Errorf("load file system: %w", err)
	}
}

func (fs *FileSystem) seedLocked(ctx context.Context) error {
	now := fs.now()
	fs.state = &State{
		Nodes:    map[string]*FileNode{vpath.Root: newDirNode(vpath.Root, now)},
		Cwd:      HomeDir,
		RootPath: vpath.Root,
	}

	for _, dir := range []string{"/home", "/tmp", HomeDir} {
		if err := fs.mkdirLocked(vpath.Parse(dir), false); err != nil {
			return err
		}
	}

	info := vpath.Parse(welcomeFile)
	if err := fs.createFileLocked(ctx, "seed", info, welcomeMessage, false); err != nil {
		return err
	}

	fs.log.Info("seeded default file system")
	return fs.persistLocked(ctx)
}

// CurrentDirectory returns the working directory. It fails with EINVAL
// before the engine is initialized.
func (fs *FileSystem) CurrentDirectory() (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.state == nil {
		return "", newErrorf(EINVAL, "getcwd", "", "file system not initialized")
	}
	return fs.state.Cwd, nil
}

// persistLocked writes the whole state under StateKey.
func (fs *FileSystem) persistLocked(ctx context.Context) error {
	if err := fs.store.Set(ctx, StateKey, fs.state); err != nil {
		return fmt.Errorf("persist file system: %w", err)
	}
	fs.updateUsageGauge()
	return nil
}

func (fs *FileSystem) updateUsageGauge() {
	metrics.SetStorageBytes(fs.usedLocked())
}

// resolve turns a user supplied path into a parsed absolute path. An empty
// path means the working directory and "~" means the home directory.
func (fs *FileSystem) resolve(p string) vpath.Info {
	switch {
	case p == "":
		p = fs.state.Cwd
	case p == "~":
		p = HomeDir
	case strings.HasPrefix(p, "~/"):
		p = HomeDir + p[1:]
	}
	return vpath.Parse(vpath.Resolve(fs.state.Cwd, p))
}

func (fs *FileSystem) lookup(path string) (*FileNode, bool) {
	n, ok := fs.state.Nodes[path]
	return n, ok
}

// checkAncestors walks from the root down to the parent of info. It fails
// ENOTDIR when an existing ancestor is a file and ENOENT when one is
// missing, unless allowMissing is set.
func (fs *FileSystem) checkAncestors(op string, info vpath.Info, allowMissing bool) error {
	current := vpath.Root
	for _, seg := range info.Segments[:max(len(info.Segments)-1, 0)] {
		current = vpath.Join(current, seg)
		node, ok := fs.lookup(current)
		if !ok {
			if allowMissing {
				return nil
			}
			return newErrorf(ENOENT, op, info.Normalized, "parent directory %s does not exist", current)
		}
		if !node.IsDir() {
			return newErrorf(ENOTDIR, op, info.Normalized, "%s is not a directory", current)
		}
	}
	return nil
}

// usedLocked is the sum of all file sizes.
func (fs *FileSystem) usedLocked() int64 {
	if fs.state == nil {
		return 0
	}
	var used int64
	for _, n := range fs.state.Nodes {
		if !n.IsDir() {
			used += n.Size
		}
	}
	return used
}

func (fs *FileSystem) checkQuota(op, path string, delta int64) error {
	if delta <= 0 {
		return nil
	}
	if used := fs.usedLocked(); used+delta > fs.quota {
		return newErrorf(ENOSPC, op, path, "%d bytes used, %d more requested, quota %d", used, delta, fs.quota)
	}
	return nil
}

func (fs *FileSystem) attach(parent *FileNode, name string, now time.Time) {
	if !slices.Contains(parent.Children, name) {
		parent.Children = append(parent.Children, name)
		slices.Sort(parent.Children)
	}
	parent.ModifiedAt = now
}

func (fs *FileSystem) detach(node *FileNode, now time.Time) {
	parent, ok := fs.lookup(node.Parent)
	if !ok {
		return
	}
	parent.Children = slices.DeleteFunc(parent.Children, func(c string) bool { return c == node.Name })
	parent.ModifiedAt = now
}

func contentKey(id string) string {
	return ContentKeyPrefix + id
}

// record reports an operation outcome to metrics and passes err through.
func record(op string, err error) error {
	status := "ok"
	if err != nil {
		status = "error"
		var fsErr *Error
		if errors.As(err, &fsErr) {
			status = string(fsErr.Code)
		}
	}
	metrics.RecordFSOp(op, status)
	return err
}

func newDirNode(path string, now time.Time) *FileNode {
	info := vpath.Parse(path)
	node := &FileNode{
		Name:        info.Base,
		Type:        TypeDirectory,
		Path:        info.Normalized,
		Parent:      info.Parent,
		CreatedAt:   now,
		ModifiedAt:  now,
		Permissions: dirPermissions,
		Children:    []string{},
	}
	if info.Normalized == vpath.Root {
		node.Name = vpath.Root
		node.Parent = ""
	}
	return node
}

func newFileNode(info vpath.Info, now time.Time) *FileNode {
	return &FileNode{
		Name:        info.Base,
		Type:        TypeFile,
		Path:        info.Normalized,
		Parent:      info.Parent,
		CreatedAt:   now,
		ModifiedAt:  now,
		Permissions: filePermissions,
		Extension:   info.Ext,
	}
}
