package vfs

import (
	"context"
	"fmt"

	"webterm/storage"
	"webterm/vpath"
)

// ChangeDirectory moves the working directory to path.
func (fs *FileSystem) ChangeDirectory(ctx context.Context, path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return err
	}

	info := fs.resolve(path)
	node, ok := fs.lookup(info.Normalized)
	if !ok {
		return record("chdir", newError(ENOENT, "chdir", info.Normalized))
	}
	if !node.IsDir() {
		return record("chdir", newError(ENOTDIR, "chdir", info.Normalized))
	}

	fs.state.Cwd = info.Normalized
	return record("chdir", fs.persistLocked(ctx))
}

// CreateDirectory creates a directory. With recursive, missing parents are
// created as well.
func (fs *FileSystem) CreateDirectory(ctx context.Context, path string, recursive bool) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return err
	}

	info := fs.resolve(path)
	if err := fs.mkdirLocked(info, recursive); err != nil {
		return record("mkdir", err)
	}
	return record("mkdir", fs.persistLocked(ctx))
}

func (fs *FileSystem) mkdirLocked(info vpath.Info, recursive bool) error {
	const op = "mkdir"

	if _, exists := fs.lookup(info.Normalized); exists {
		return newError(EEXIST, op, info.Normalized)
	}
	if err := validatePath(op, info); err != nil {
		return err
	}
	if err := fs.checkAncestors(op, info, recursive); err != nil {
		return err
	}

	parent, ok := fs.lookup(info.Parent)
	if !ok {
		if !recursive {
			return newError(ENOENT, op, info.Normalized)
		}
		if err := fs.mkdirLocked(vpath.Parse(info.Parent), true); err != nil {
			return err
		}
		parent, _ = fs.lookup(info.Parent)
	}
	if !parent.IsDir() {
		return newError(ENOTDIR, op, info.Normalized)
	}

	now := fs.now()
	fs.state.Nodes[info.Normalized] = newDirNode(info.Normalized, now)
	fs.attach(parent, info.Base, now)
	return nil
}

// CreateFile creates a file holding content. An existing file is only
// replaced when force is set.
func (fs *FileSystem) CreateFile(ctx context.Context, path, content string, force bool) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return err
	}

	info := fs.resolve(path)
	if err := fs.createFileLocked(ctx, "open", info, content, force); err != nil {
		return record("create", err)
	}
	return record("create", fs.persistLocked(ctx))
}

func (fs *FileSystem) createFileLocked(ctx context.Context, op string, info vpath.Info, content string, force bool) error {
	if existing, ok := fs.lookup(info.Normalized); ok {
		if !force {
			return newError(EEXIST, op, info.Normalized)
		}
		if existing.IsDir() {
			return newError(EISDIR, op, info.Normalized)
		}
		return fs.writeLocked(ctx, op, existing, content)
	}

	if err := validatePath(op, info); err != nil {
		return err
	}
	if err := fs.checkAncestors(op, info, false); err != nil {
		return err
	}
	parent, ok := fs.lookup(info.Parent)
	if !ok {
		return newError(ENOENT, op, info.Normalized)
	}
	if !parent.IsDir() {
		return newError(ENOTDIR, op, info.Normalized)
	}

	size := int64(len(content))
	if err := fs.checkQuota(op, info.Normalized, size); err != nil {
		return err
	}

	now := fs.now()
	node := newFileNode(info, now)
	if content != "" {
		id := fs.newID()
		if err := fs.putContent(ctx, id, content); err != nil {
			return err
		}
		node.ContentID = id
		node.Size = size
	}

	fs.state.Nodes[info.Normalized] = node
	fs.attach(parent, info.Base, now)
	return nil
}

// ReadFile returns the content of a file. A file that was never written
// reads as the empty string.
func (fs *FileSystem) ReadFile(ctx context.Context, path string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return "", err
	}

	info := fs.resolve(path)
	content, err := fs.readLocked(ctx, "open", info)
	return content, record("read", err)
}

func (fs *FileSystem) readLocked(ctx context.Context, op string, info vpath.Info) (string, error) {
	node, ok := fs.lookup(info.Normalized)
	if !ok {
		return "", newError(ENOENT, op, info.Normalized)
	}
	if node.IsDir() {
		return "", newError(EISDIR, op, info.Normalized)
	}
	return fs.contentOf(ctx, node)
}

func (fs *FileSystem) contentOf(ctx context.Context, node *FileNode) (string, error) {
	if node.ContentID == "" {
		return "", nil
	}

	var blob FileContent
	if err := fs.store.Get(ctx, contentKey(node.ContentID), &blob); err != nil {
		if storage.IsNotFound(err) {
			fs.log.Warnf("content blob %s of %s is missing, reading as empty", node.ContentID, node.Path)
			return "", nil
		}
		return "", fmt.Errorf("read content of %s: %w", node.Path, err)
	}
	return blob.Content, nil
}

func (fs *FileSystem) putContent(ctx context.Context, id, content string) error {
	blob := FileContent{ID: id, Content: content, Encoding: encodingUTF8}
	if err := fs.store.Set(ctx, contentKey(id), blob); err != nil {
		return fmt.Errorf("write content %s: %w", id, err)
	}
	return nil
}

// WriteFile replaces (or with appendMode, extends) the content of a file,
// creating it when it does not exist yet.
func (fs *FileSystem) WriteFile(ctx context.Context, path, content string, appendMode bool) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return err
	}

	const op = "write"
	info := fs.resolve(path)

	node, ok := fs.lookup(info.Normalized)
	if !ok {
		if err := fs.createFileLocked(ctx, op, info, content, false); err != nil {
			return record(op, err)
		}
		return record(op, fs.persistLocked(ctx))
	}
	if node.IsDir() {
		return record(op, newError(EISDIR, op, info.Normalized))
	}

	if appendMode {
		existing, err := fs.contentOf(ctx, node)
		if err != nil {
			return record(op, err)
		}
		content = existing + content
	}

	if err := fs.writeLocked(ctx, op, node, content); err != nil {
		return record(op, err)
	}
	return record(op, fs.persistLocked(ctx))
}

// writeLocked stores content for an existing file node, reusing its blob id.
func (fs *FileSystem) writeLocked(ctx context.Context, op string, node *FileNode, content string) error {
	size := int64(len(content))
	if err := fs.checkQuota(op, node.Path, size-node.Size); err != nil {
		return err
	}

	id := node.ContentID
	if id == "" {
		if content == "" {
			node.ModifiedAt = fs.now()
			return nil
		}
		id = fs.newID()
	}
	if err := fs.putContent(ctx, id, content); err != nil {
		return err
	}

	node.ContentID = id
	node.Size = size
	node.ModifiedAt = fs.now()
	return nil
}

// Delete removes a file or directory. A non-empty directory is only
// removed with recursive, depth first, together with every content blob.
func (fs *FileSystem) Delete(ctx context.Context, path string, recursive bool) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return err
	}

	const op = "rm"
	info := fs.resolve(path)
	if info.Normalized == vpath.Root {
		return record(op, newErrorf(EINVAL, op, vpath.Root, "refusing to remove the root directory"))
	}

	node, ok := fs.lookup(info.Normalized)
	if !ok {
		return record(op, newError(ENOENT, op, info.Normalized))
	}
	if node.IsDir() && len(node.Children) > 0 && !recursive {
		return record(op, newError(ENOTEMPTY, op, info.Normalized))
	}

	if err := fs.deleteLocked(ctx, node); err != nil {
		return record(op, err)
	}
	fs.detach(node, fs.now())
	fs.fixCwdLocked()
	return record(op, fs.persistLocked(ctx))
}

func (fs *FileSystem) deleteLocked(ctx context.Context, node *FileNode) error {
	if node.IsDir() {
		for _, name := range append([]string(nil), node.Children...) {
			child, ok := fs.lookup(vpath.Join(node.Path, name))
			if !ok {
				fs.log.Warnf("dangling child %q of %s", name, node.Path)
				continue
			}
			if err := fs.deleteLocked(ctx, child); err != nil {
				return err
			}
		}
	} else if node.ContentID != "" {
		if err := fs.store.Remove(ctx, contentKey(node.ContentID)); err != nil {
			return fmt.Errorf("remove content of %s: %w", node.Path, err)
		}
	}

	delete(fs.state.Nodes, node.Path)
	return nil
}

// fixCwdLocked moves the working directory up until it exists again.
func (fs *FileSystem) fixCwdLocked() {
	cwd := fs.state.Cwd
	for {
		if n, ok := fs.lookup(cwd); ok && n.IsDir() {
			break
		}
		cwd = vpath.Dirname(cwd)
	}
	if cwd != fs.state.Cwd {
		fs.log.Debugf("working directory %s removed, moving to %s", fs.state.Cwd, cwd)
		fs.state.Cwd = cwd
	}
}

// Reset throws away every node and blob and seeds the default tree again.
func (fs *FileSystem) Reset(ctx context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return err
	}

	for _, n := range fs.state.Nodes {
		if n.ContentID != "" {
			if err := fs.store.Remove(ctx, contentKey(n.ContentID)); err != nil {
				return record("reset", err)
			}
		}
	}
	return record("reset", fs.seedLocked(ctx))
}
