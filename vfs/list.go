package vfs

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"webterm/vpath"
)

// ListDirectory returns the children of path (the working directory when
// empty). Directories come first, then entries ordered by opts.SortBy.
func (fs *FileSystem) ListDirectory(ctx context.Context, path string, opts ListOptions) ([]*FileNode, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return nil, err
	}

	const op = "scandir"
	info := fs.resolve(path)
	node, ok := fs.lookup(info.Normalized)
	if !ok {
		return nil, record("list", newError(ENOENT, op, info.Normalized))
	}
	if !node.IsDir() {
		return nil, record("list", newError(ENOTDIR, op, info.Normalized))
	}

	entries := make([]*FileNode, 0, len(node.Children))
	for _, child := range fs.sortedChildren(node) {
		if !opts.ShowHidden && strings.HasPrefix(child.Name, ".") {
			continue
		}
		entries = append(entries, child.Clone())
	}

	sortNodes(entries, opts.SortBy, opts.Reverse)
	return entries, record("list", nil)
}

func sortNodes(nodes []*FileNode, by SortBy, reverse bool) {
	slices.SortStableFunc(nodes, func(a, b *FileNode) int {
		if a.IsDir() != b.IsDir() {
			if a.IsDir() {
				return -1
			}
			return 1
		}

		var c int
		switch by {
		case SortBySize:
			c = cmp.Compare(a.Size, b.Size)
		case SortByModified:
			c = a.ModifiedAt.Compare(b.ModifiedAt)
		case SortByExtension:
			c = cmp.Compare(strings.ToLower(a.Extension), strings.ToLower(b.Extension))
		}
		if c == 0 {
			c = cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
		if c == 0 {
			c = cmp.Compare(a.Name, b.Name)
		}
		if reverse {
			return -c
		}
		return c
	})
}

// Tree returns path and its descendants down to depth levels (unlimited
// when depth <= 0). Hidden entries are skipped unless showHidden is set.
func (fs *FileSystem) Tree(ctx context.Context, path string, depth int, showHidden bool) (*TreeEntry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return nil, err
	}

	info := fs.resolve(path)
	node, ok := fs.lookup(info.Normalized)
	if !ok {
		return nil, record("tree", newError(ENOENT, "scandir", info.Normalized))
	}
	return fs.treeLocked(node, depth, showHidden), record("tree", nil)
}

func (fs *FileSystem) treeLocked(node *FileNode, depth int, showHidden bool) *TreeEntry {
	entry := &TreeEntry{Node: node.Clone()}
	if !node.IsDir() || depth == 1 {
		return entry
	}

	children := fs.sortedChildren(node)
	sortNodes(children, SortByName, false)
	for _, child := range children {
		if !showHidden && strings.HasPrefix(child.Name, ".") {
			continue
		}
		entry.Children = append(entry.Children, fs.treeLocked(child, depth-1, showHidden))
	}
	return entry
}

// Exists reports whether path names an entry.
func (fs *FileSystem) Exists(ctx context.Context, path string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return false, err
	}

	_, ok := fs.lookup(fs.resolve(path).Normalized)
	return ok, nil
}

// Stat returns a copy of the node at path.
func (fs *FileSystem) Stat(ctx context.Context, path string) (*FileNode, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return nil, err
	}

	info := fs.resolve(path)
	node, ok := fs.lookup(info.Normalized)
	if !ok {
		return nil, record("stat", newError(ENOENT, "stat", info.Normalized))
	}
	return node.Clone(), record("stat", nil)
}

// Stats counts entries and bytes against the quota.
func (fs *FileSystem) Stats(ctx context.Context) (Stats, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.initLocked(ctx); err != nil {
		return Stats{}, err
	}

	var s Stats
	for _, n := range fs.state.Nodes {
		if n.IsDir() {
			s.Directories++
		} else {
			s.Files++
			s.StorageUsed += n.Size
		}
	}
	s.StorageQuota = fs.quota
	s.StorageAvailable = max(fs.quota-s.StorageUsed, 0)
	return s, nil
}

// sortedChildren returns the child nodes of dir in name order.
func (fs *FileSystem) sortedChildren(dir *FileNode) []*FileNode {
	names := slices.Clone(dir.Children)
	slices.Sort(names)

	nodes := make([]*FileNode, 0, len(names))
	for _, name := range names {
		if child, ok := fs.lookup(vpath.Join(dir.Path, name)); ok {
			nodes = append(nodes, child)
		}
	}
	return nodes
}
