package complete

import (
	"context"
	"errors"
	"strings"

	"webterm/args"
	"webterm/vfs"
)

// FileProvider completes paths in the virtual file system. Directories get
// a trailing slash; cd only sees directories.
type FileProvider struct {
	base
	fs *vfs.FileSystem
}

func NewFileProvider(fs *vfs.FileSystem) *FileProvider {
	return &FileProvider{base: base{"file", PriorityFile}, fs: fs}
}

func (p *FileProvider) CanComplete(c *Context) bool {
	a, ok := c.SlotArg()
	return ok && a.Kind == args.File
}

func (p *FileProvider) Complete(ctx context.Context, c *Context) ([]Completion, error) {
	dir, prefix := splitPartial(c.Current)
	listDir := dir
	if listDir == "" {
		listDir = "."
	}

	entries, err := p.fs.ListDirectory(ctx, listDir, vfs.ListOptions{ShowHidden: strings.HasPrefix(prefix, ".")})
	if err != nil {
		// A half-typed path that names nothing is not a provider failure.
		if errors.Is(err, vfs.ENOENT) || errors.Is(err, vfs.ENOTDIR) || errors.Is(err, vfs.EINVAL) {
			return nil, nil
		}
		return nil, err
	}

	dirsOnly := c.CommandIs("cd")
	var out []Completion
	for _, node := range entries {
		if dirsOnly && !node.IsDir() {
			continue
		}
		if !hasPrefixFold(node.Name, prefix) {
			continue
		}
		name, kind := node.Name, "file"
		if node.IsDir() {
			name, kind = name+"/", "directory"
		}
		out = append(out, Completion{Value: dir + name, Display: name, Kind: kind})
	}
	return out, nil
}

// splitPartial separates "docs/pro" into the directory to list and the name
// prefix to match. "~" alone means the home directory.
func splitPartial(current string) (dir, prefix string) {
	if current == "~" {
		return "~/", ""
	}
	i := strings.LastIndex(current, "/")
	if i < 0 {
		return "", current
	}
	return current[:i+1], current[i+1:]
}
