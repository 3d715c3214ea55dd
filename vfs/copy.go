package vfs

import (
	"context"
	"strings"

	"webterm/vpath"
)

// Copy duplicates source at dest. Directories need opts.Recursive; an
// existing dest of the same kind is replaced only with opts.Force. All
// blobs are written before the tree changes, so a failed copy leaves
// neither nodes nor content behind.
func (fs *FileSystem) Copy(ctx context.Context, source, dest string, opts CopyOptions) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return err
	}

	const op = "cp"
	src := fs.resolve(source)
	dst := fs.resolve(dest)

	srcNode, ok := fs.lookup(src.Normalized)
	if !ok {
		return record(op, newError(ENOENT, op, src.Normalized))
	}
	if srcNode.IsDir() && !opts.Recursive {
		return record(op, newErrorf(EISDIR, op, src.Normalized, "use recursive to copy a directory"))
	}
	if isWithin(dst.Normalized, src.Normalized) {
		return record(op, newErrorf(EINVAL, op, dst.Normalized, "cannot copy %s into itself", src.Normalized))
	}
	if isWithin(src.Normalized, dst.Normalized) {
		return record(op, newErrorf(EINVAL, op, dst.Normalized, "cannot overwrite an ancestor of %s", src.Normalized))
	}

	existing, exists := fs.lookup(dst.Normalized)
	var replaced int64
	if exists {
		switch {
		case !opts.Force:
			return record(op, newError(EEXIST, op, dst.Normalized))
		case existing.IsDir() && !srcNode.IsDir():
			return record(op, newError(EISDIR, op, dst.Normalized))
		case !existing.IsDir() && srcNode.IsDir():
			return record(op, newError(ENOTDIR, op, dst.Normalized))
		}
		replaced = fs.subtreeSize(existing)
	}
	if err := fs.checkSubtreePaths(op, src.Normalized, dst); err != nil {
		return record(op, err)
	}
	if err := fs.checkAncestors(op, dst, false); err != nil {
		return record(op, err)
	}
	parent, ok := fs.lookup(dst.Parent)
	if !ok {
		return record(op, newError(ENOENT, op, dst.Normalized))
	}
	if !parent.IsDir() {
		return record(op, newError(ENOTDIR, op, dst.Normalized))
	}
	if err := fs.checkQuota(op, dst.Normalized, fs.subtreeSize(srcNode)-replaced); err != nil {
		return record(op, err)
	}

	staged, err := fs.stageCopy(ctx, srcNode, dst, opts)
	if err != nil {
		return record(op, err)
	}

	now := fs.now()
	if exists {
		if err := fs.deleteLocked(ctx, existing); err != nil {
			fs.discardStaged(ctx, staged)
			return record(op, err)
		}
		fs.detach(existing, now)
	}
	for _, node := range staged {
		fs.state.Nodes[node.Path] = node
	}
	fs.attach(parent, dst.Base, now)
	return record(op, fs.persistLocked(ctx))
}

// stageCopy builds the nodes of a copy of src rooted at dst and writes
// their content blobs. The tree is not touched; when a blob write fails
// the blobs written so far are removed again.
func (fs *FileSystem) stageCopy(ctx context.Context, src *FileNode, dst vpath.Info, opts CopyOptions) ([]*FileNode, error) {
	var staged []*FileNode

	var walk func(n *FileNode, info vpath.Info) error
	walk = func(n *FileNode, info vpath.Info) error {
		now := fs.now()
		if !n.IsDir() {
			content, err := fs.contentOf(ctx, n)
			if err != nil {
				return err
			}
			node := newFileNode(info, now)
			if content != "" {
				id := fs.newID()
				if err := fs.putContent(ctx, id, content); err != nil {
					return err
				}
				node.ContentID = id
				node.Size = int64(len(content))
			}
			if opts.PreserveTimestamps {
				node.CreatedAt, node.ModifiedAt = n.CreatedAt, n.ModifiedAt
			}
			staged = append(staged, node)
			return nil
		}

		node := newDirNode(info.Normalized, now)
		staged = append(staged, node)
		for _, name := range n.Children {
			child, ok := fs.lookup(vpath.Join(n.Path, name))
			if !ok {
				continue
			}
			if err := walk(child, vpath.Parse(vpath.Join(info.Normalized, name))); err != nil {
				return err
			}
			node.Children = append(node.Children, name)
		}
		if opts.PreserveTimestamps {
			node.CreatedAt, node.ModifiedAt = n.CreatedAt, n.ModifiedAt
		}
		return nil
	}

	if err := walk(src, dst); err != nil {
		fs.discardStaged(ctx, staged)
		return nil, err
	}
	return staged, nil
}

func (fs *FileSystem) discardStaged(ctx context.Context, staged []*FileNode) {
	for _, node := range staged {
		if node.ContentID == "" {
			continue
		}
		if err := fs.store.Remove(ctx, contentKey(node.ContentID)); err != nil {
			fs.log.Warnf("orphaned content blob %s of %s: %v", node.ContentID, node.Path, err)
		}
	}
}

// checkSubtreePaths validates the path every node below src would get once
// the subtree is rooted at dst, including dst itself.
func (fs *FileSystem) checkSubtreePaths(op, src string, dst vpath.Info) error {
	if err := validatePath(op, dst); err != nil {
		return err
	}
	for path := range fs.state.Nodes {
		if path == src || !isWithin(path, src) {
			continue
		}
		target := vpath.Parse(dst.Normalized + strings.TrimPrefix(path, src))
		if err := validatePath(op, target); err != nil {
			return err
		}
	}
	return nil
}

// Move relocates source to dest by rewriting the paths of the whole
// subtree in one persisted step; content blobs are reused, so a move never
// leaves a partial copy behind. An existing dest is replaced when it is a
// file or an empty directory of the same kind.
func (fs *FileSystem) Move(ctx context.Context, source, dest string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return err
	}

	src := fs.resolve(source)
	dst := fs.resolve(dest)
	return record("mv", fs.moveLocked(ctx, "mv", src, dst, true))
}

// Rename gives path a new name inside the same directory. Unlike Move it
// never replaces an existing entry.
func (fs *FileSystem) Rename(ctx context.Context, path, newName string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return err
	}

	const op = "rename"
	src := fs.resolve(path)
	if newName == "" || newName == "." || newName == ".." || strings.ContainsAny(newName, `/\`) {
		return record(op, newErrorf(EINVAL, op, src.Normalized, "invalid name %q", newName))
	}
	dst := vpath.Parse(vpath.Join(src.Parent, newName))
	return record(op, fs.moveLocked(ctx, op, src, dst, false))
}

func (fs *FileSystem) moveLocked(ctx context.Context, op string, src, dst vpath.Info, replace bool) error {
	srcNode, ok := fs.lookup(src.Normalized)
	if !ok {
		return newError(ENOENT, op, src.Normalized)
	}
	if src.Normalized == vpath.Root {
		return newErrorf(EINVAL, op, src.Normalized, "cannot move the root directory")
	}
	if dst.Normalized == src.Normalized {
		return nil
	}
	if isWithin(dst.Normalized, src.Normalized) {
		return newErrorf(EINVAL, op, dst.Normalized, "cannot move %s into itself", src.Normalized)
	}
	if err := fs.checkSubtreePaths(op, src.Normalized, dst); err != nil {
		return err
	}
	if err := fs.checkAncestors(op, dst, false); err != nil {
		return err
	}
	parent, ok := fs.lookup(dst.Parent)
	if !ok {
		return newError(ENOENT, op, dst.Normalized)
	}
	if !parent.IsDir() {
		return newError(ENOTDIR, op, dst.Normalized)
	}

	now := fs.now()
	if existing, exists := fs.lookup(dst.Normalized); exists {
		switch {
		case !replace:
			return newError(EEXIST, op, dst.Normalized)
		case existing.IsDir() && !srcNode.IsDir():
			return newError(EISDIR, op, dst.Normalized)
		case !existing.IsDir() && srcNode.IsDir():
			return newError(ENOTDIR, op, dst.Normalized)
		case existing.IsDir() && len(existing.Children) > 0:
			return newError(ENOTEMPTY, op, dst.Normalized)
		}
		if err := fs.deleteLocked(ctx, existing); err != nil {
			return err
		}
		fs.detach(existing, now)
	}

	fs.detach(srcNode, now)

	// Rewrite every path under the source prefix.
	moved := make([]*FileNode, 0, 1)
	for path, node := range fs.state.Nodes {
		if isWithin(path, src.Normalized) {
			moved = append(moved, node)
		}
	}
	for _, node := range moved {
		delete(fs.state.Nodes, node.Path)
	}
	for _, node := range moved {
		node.Path = dst.Normalized + strings.TrimPrefix(node.Path, src.Normalized)
		if node == srcNode {
			node.Name = dst.Base
			node.Parent = dst.Parent
			if !node.IsDir() {
				node.Extension = dst.Ext
			}
		} else {
			node.Parent = dst.Normalized + strings.TrimPrefix(node.Parent, src.Normalized)
		}
		fs.state.Nodes[node.Path] = node
	}
	srcNode.ModifiedAt = now
	fs.attach(parent, dst.Base, now)

	if isWithin(fs.state.Cwd, src.Normalized) {
		fs.state.Cwd = dst.Normalized + strings.TrimPrefix(fs.state.Cwd, src.Normalized)
	}
	return fs.persistLocked(ctx)
}

func (fs *FileSystem) subtreeSize(node *FileNode) int64 {
	if !node.IsDir() {
		return node.Size
	}
	var total int64
	for path, n := range fs.state.Nodes {
		if !n.IsDir() && isWithin(path, node.Path) {
			total += n.Size
		}
	}
	return total
}

// isWithin reports whether path equals dir or lies below it.
func isWithin(path, dir string) bool {
	if dir == vpath.Root {
		return true
	}
	return path == dir || strings.HasPrefix(path, dir+vpath.Separator)
}
