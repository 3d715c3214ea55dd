package commands

import (
	"context"
	"fmt"
	"strings"

	"webterm/args"
	"webterm/command"
	"webterm/events"
	"webterm/vfs"
	"webterm/vpath"
)

const timeLayout = "Jan _2 15:04"

func navigationCommands() []command.Spec {
	return []command.Spec{
		{
			Name:        "pwd",
			Description: "Print the working directory",
			Category:    categoryNavigation,
			Handler: func(ctx context.Context, env *command.Env, _ args.Values) (*command.Outcome, error) {
				cwd, err := env.FS.CurrentDirectory()
				if err != nil {
					return nil, err
				}
				return command.Success("%s", cwd), nil
			},
		},
		{
			Name:        "cd",
			Description: "Change the working directory",
			Category:    categoryNavigation,
			Args:        args.Schema{args.Arg{Name: "path", Kind: args.File, Default: "~", Description: "Directory to enter"}},
			Examples:    []string{"cd documents", "cd ..", "cd ~"},
			Handler: func(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
				return nil, env.FS.ChangeDirectory(ctx, v.String("path"))
			},
		},
		{
			Name:        "ls",
			Aliases:     []string{"dir"},
			Description: "List directory contents",
			Category:    categoryNavigation,
			Args: args.Schema{
				args.Arg{Name: "path", Kind: args.File, Description: "Directory to list"},
				args.Arg{Name: "all", Kind: args.Boolean, Default: false, Description: "Include hidden entries"},
			},
			Examples: []string{"ls", "ls /tmp", "ls . true"},
			Handler: func(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
				entries, err := env.FS.ListDirectory(ctx, v.String("path"), vfs.ListOptions{ShowHidden: v.Bool("all")})
				if err != nil {
					return nil, err
				}
				names := make([]string, len(entries))
				for i, e := range entries {
					names[i] = displayName(e)
				}
				return command.Success("%s", strings.Join(names, "  ")), nil
			},
		},
		{
			Name:        "ll",
			Description: "List directory contents in long format, hidden entries included",
			Category:    categoryNavigation,
			Args: args.Schema{
				args.Arg{Name: "path", Kind: args.File, Description: "Directory to list"},
				args.Arg{Name: "sort", Kind: args.Enum, Default: "name", Choices: []string{"name", "size", "modified", "extension"}},
			},
			Examples: []string{"ll", "ll /home/user size"},
			Handler:  longList,
		},
		{
			Name:        "tree",
			Description: "Show a directory tree",
			Category:    categoryNavigation,
			Args: args.Schema{
				args.Arg{Name: "path", Kind: args.File, Description: "Root of the tree"},
				args.Arg{Name: "depth", Kind: args.Number, Default: float64(0), Description: "Levels to show, 0 for all"},
			},
			Examples: []string{"tree", "tree / 2"},
			Handler:  tree,
		},
	}
}

func displayName(n *vfs.FileNode) string {
	if n.IsDir() {
		return dirColor.Sprint(n.Name + "/")
	}
	return n.Name
}

func longList(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
	sortBy := vfs.SortBy(v.Strings("sort")[0])
	entries, err := env.FS.ListDirectory(ctx, v.String("path"), vfs.ListOptions{ShowHidden: true, SortBy: sortBy})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return command.Info("total 0"), nil
	}

	rows := make([][]string, 0, len(entries))
	var total int64
	for _, e := range entries {
		total += e.Size
		rows = append(rows, []string{
			e.Permissions,
			userName(env),
			fmt.Sprint(e.Size),
			e.ModifiedAt.Local().Format(timeLayout),
			displayName(e),
		})
	}
	return command.Success("total %s\n%s", humanSize(total), table(rows)), nil
}

func tree(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
	root, err := env.FS.Tree(ctx, v.String("path"), v.Int("depth"), false)
	if err != nil {
		return nil, err
	}

	var (
		b           strings.Builder
		dirs, files int
	)
	var walk func(entries []*vfs.TreeEntry, prefix string)
	walk = func(entries []*vfs.TreeEntry, prefix string) {
		for i, e := range entries {
			branch, next := "├── ", "│   "
			if i == len(entries)-1 {
				branch, next = "└── ", "    "
			}
			if e.Node.IsDir() {
				dirs++
				b.WriteString("\n" + prefix + branch + dirColor.Sprint(e.Node.Name))
			} else {
				files++
				b.WriteString("\n" + prefix + branch + e.Node.Name)
			}
			walk(e.Children, prefix+next)
		}
	}

	b.WriteString(dirColor.Sprint(root.Node.Path))
	walk(root.Children, "")
	fmt.Fprintf(&b, "\n\n%d directories, %d files", dirs, files)
	return command.Success("%s", b.String()), nil
}

func fileCommands() []command.Spec {
	pathArg := func(desc string) args.Arg {
		return args.Arg{Name: "path", Kind: args.File, Required: true, Description: desc}
	}

	return []command.Spec{
		{
			Name:        "mkdir",
			Description: "Create a directory",
			Category:    categoryFiles,
			Args: args.Schema{
				pathArg("Directory to create"),
				args.Arg{Name: "parents", Kind: args.Boolean, Default: false, Description: "Create missing parent directories"},
			},
			Examples: []string{"mkdir notes", "mkdir projects/web/app true"},
			Handler: func(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
				return nil, env.FS.CreateDirectory(ctx, v.String("path"), v.Bool("parents"))
			},
		},
		{
			Name:        "touch",
			Description: "Create an empty file or update its modification time",
			Category:    categoryFiles,
			Args:        args.Schema{pathArg("File to touch")},
			Handler: func(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
				return nil, env.FS.WriteFile(ctx, v.String("path"), "", true)
			},
		},
		{
			Name:        "cat",
			Description: "Print file contents",
			Category:    categoryFiles,
			Args:        args.Schema{pathArg("File to print")},
			Handler: func(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
				content, err := env.FS.ReadFile(ctx, v.String("path"))
				if err != nil {
					return nil, err
				}
				return command.Success("%s", strings.TrimSuffix(content, "\n")), nil
			},
		},
		{
			Name:        "rm",
			Description: "Remove a file or directory",
			Category:    categoryFiles,
			Args: args.Schema{
				pathArg("Entry to remove"),
				args.Arg{Name: "recursive", Kind: args.Boolean, Default: false, Description: "Remove directories and their contents"},
			},
			Examples: []string{"rm old.txt", "rm build true"},
			Handler: func(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
				return nil, env.FS.Delete(ctx, v.String("path"), v.Bool("recursive"))
			},
		},
		{
			Name:        "cp",
			Description: "Copy a file or directory",
			Category:    categoryFiles,
			Args: args.Schema{
				args.Arg{Name: "source", Kind: args.File, Required: true},
				args.Arg{Name: "dest", Kind: args.File, Required: true},
				args.Arg{Name: "recursive", Kind: args.Boolean, Default: false, Description: "Copy directories"},
			},
			Examples: []string{"cp notes.md backup.md", "cp src /tmp true"},
			Handler: func(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
				src := v.String("source")
				dest, err := intoDirectory(ctx, env.FS, src, v.String("dest"))
				if err != nil {
					return nil, err
				}
				return nil, env.FS.Copy(ctx, src, dest, vfs.CopyOptions{Recursive: v.Bool("recursive")})
			},
		},
		{
			Name:        "mv",
			Description: "Move or rename a file or directory",
			Category:    categoryFiles,
			Args: args.Schema{
				args.Arg{Name: "source", Kind: args.File, Required: true},
				args.Arg{Name: "dest", Kind: args.File, Required: true},
			},
			Examples: []string{"mv draft.md final.md", "mv final.md documents"},
			Handler: func(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
				src := v.String("source")
				dest, err := intoDirectory(ctx, env.FS, src, v.String("dest"))
				if err != nil {
					return nil, err
				}
				return nil, env.FS.Move(ctx, src, dest)
			},
		},
		{
			Name:        "stat",
			Description: "Show details of a file or directory",
			Category:    categoryFiles,
			Args:        args.Schema{pathArg("Entry to inspect")},
			Handler: func(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
				n, err := env.FS.Stat(ctx, v.String("path"))
				if err != nil {
					return nil, err
				}
				rows := [][]string{
					{"File:", n.Path},
					{"Type:", string(n.Type)},
					{"Size:", fmt.Sprintf("%d bytes", n.Size)},
					{"Access:", n.Permissions},
					{"Modified:", n.ModifiedAt.Local().Format("2006-01-02 15:04:05")},
					{"Created:", n.CreatedAt.Local().Format("2006-01-02 15:04:05")},
				}
				if n.IsDir() {
					rows = append(rows, []string{"Entries:", fmt.Sprint(len(n.Children))})
				}
				return command.Success("%s", table(rows)), nil
			},
		},
		{
			Name:        "df",
			Description: "Show storage usage",
			Category:    categoryFiles,
			Handler: func(ctx context.Context, env *command.Env, _ args.Values) (*command.Outcome, error) {
				s, err := env.FS.Stats(ctx)
				if err != nil {
					return nil, err
				}
				pct := float64(s.StorageUsed) / float64(s.StorageQuota) * 100
				return command.Success("%s", table([][]string{
					{"Size", "Used", "Avail", "Use%", "Files", "Dirs"},
					{humanSize(s.StorageQuota), humanSize(s.StorageUsed), humanSize(s.StorageAvailable), fmt.Sprintf("%.1f%%", pct), fmt.Sprint(s.Files), fmt.Sprint(s.Directories)},
				})), nil
			},
		},
		{
			Name:        "edit",
			Aliases:     []string{"nano", "vim"},
			Description: "Open a file in the editor",
			Category:    categoryFiles,
			Args:        args.Schema{args.Arg{Name: "file", Kind: args.File, Required: true}},
			Examples:    []string{"edit todo.md"},
			Handler:     edit,
		},
		{
			Name:        "reset-fs",
			Description: "Erase every file and restore the default tree",
			Category:    categoryFiles,
			Args:        args.Schema{args.Arg{Name: "confirm", Kind: args.Boolean, Default: false}},
			Examples:    []string{"reset-fs yes"},
			Handler: func(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
				if !v.Bool("confirm") {
					return command.Info("This erases every file. Run 'reset-fs yes' to confirm."), nil
				}
				if err := env.FS.Reset(ctx); err != nil {
					return nil, err
				}
				return command.Success("File system reset to defaults"), nil
			},
		},
	}
}

// intoDirectory appends the source name when dest is an existing
// directory, so "cp a.txt docs" lands on docs/a.txt.
func intoDirectory(ctx context.Context, fs *vfs.FileSystem, src, dest string) (string, error) {
	n, err := fs.Stat(ctx, dest)
	switch {
	case vfs.CodeOf(err) == vfs.ENOENT:
		return dest, nil
	case err != nil:
		return "", err
	case n.IsDir():
		return vpath.Join(dest, vpath.Basename(src)), nil
	default:
		return dest, nil
	}
}

func edit(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
	name := v.String("file")
	n, err := env.FS.Stat(ctx, name)

	open := &events.FileOpen{UseFileSystem: true, Language: events.LanguageFor(name)}
	switch {
	case vfs.CodeOf(err) == vfs.ENOENT:
		cwd, err := env.FS.CurrentDirectory()
		if err != nil {
			return nil, err
		}
		if name == "~" || strings.HasPrefix(name, "~/") {
			name = vfs.HomeDir + name[1:]
		}
		open.Filename = vpath.Resolve(cwd, name)
		open.IsNewFile = true
	case err != nil:
		return nil, err
	case n.IsDir():
		return nil, fmt.Errorf("%s: %w", n.Path, vfs.EISDIR)
	default:
		content, err := env.FS.ReadFile(ctx, n.Path)
		if err != nil {
			return nil, err
		}
		open.Filename = n.Path
		open.Content = content
	}

	env.Emit(events.Event{Type: events.TypeFileOpen, FileOpen: open})
	return nil, nil
}
