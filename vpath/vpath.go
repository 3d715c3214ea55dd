// Package vpath manipulates slash-separated virtual file system paths.
//
// Unlike path and path/filepath it never fails and never consults the host:
// backslashes are treated as separators, ".." can never climb above the
// root of an absolute path, and empty input degrades to "/" or ".".
package vpath

import "strings"

const (
	Separator = "/"
	Root      = "/"
)

// Info bundles the decomposition of a path so callers resolve it once.
type Info struct {
	Normalized string
	Absolute   bool
	Segments   []string
	Parent     string
	Base       string
	Ext        string
}

// IsAbsolute reports whether p starts at the root.
func IsAbsolute(p string) bool {
	return strings.HasPrefix(strings.ReplaceAll(p, `\`, Separator), Separator)
}

// Normalize collapses "." and "..", duplicate separators and backslashes.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, Separator)
	abs := strings.HasPrefix(p, Separator)

	out := make([]string, 0, strings.Count(p, Separator)+1)
	for _, seg := range strings.Split(p, Separator) {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
			} else if !abs {
				out = append(out, "..")
			}
		default:
			out = append(out, seg)
		}
	}

	joined := strings.Join(out, Separator)
	if abs {
		return Root + joined
	}
	if joined == "" {
		return "."
	}
	return joined
}

// Join concatenates segments with the separator and normalizes the result.
func Join(segments ...string) string {
	nonEmpty := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return "."
	}
	return Normalize(strings.Join(nonEmpty, Separator))
}

// Dirname returns everything but the last element of p.
func Dirname(p string) string {
	n := Normalize(p)
	if n == Root {
		return Root
	}
	i := strings.LastIndex(n, Separator)
	switch {
	case i < 0:
		return "."
	case i == 0:
		return Root
	default:
		return n[:i]
	}
}

// Basename returns the last element of p, with suffix removed when given
// and present.
func Basename(p string, suffix ...string) string {
	n := Normalize(p)
	if n == Root {
		return ""
	}
	base := n[strings.LastIndex(n, Separator)+1:]
	if len(suffix) > 0 && suffix[0] != "" && suffix[0] != base {
		base = strings.TrimSuffix(base, suffix[0])
	}
	return base
}

// Extname returns the extension of the last element, including the dot.
// Dotfiles such as ".bashrc" have no extension.
func Extname(p string) string {
	base := Basename(p)
	i := strings.LastIndex(base, ".")
	if i <= 0 {
		return ""
	}
	return base[i:]
}

// Resolve interprets target relative to base unless it is absolute.
func Resolve(base, target string) string {
	if IsAbsolute(target) {
		return Normalize(target)
	}
	return Join(base, target)
}

// Relative returns the shortest path leading from one absolute path to
// another.
func Relative(from, to string) string {
	fromSegs := Segments(Normalize(from))
	toSegs := Segments(Normalize(to))

	common := 0
	for common < len(fromSegs) && common < len(toSegs) && fromSegs[common] == toSegs[common] {
		common++
	}

	parts := make([]string, 0, len(fromSegs)-common+len(toSegs)-common)
	for range fromSegs[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, toSegs[common:]...)
	return strings.Join(parts, Separator)
}

// Segments splits a path into its non-empty elements.
func Segments(p string) []string {
	var segs []string
	for _, s := range strings.Split(strings.ReplaceAll(p, `\`, Separator), Separator) {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Parse decomposes p in one pass.
func Parse(p string) Info {
	n := Normalize(p)
	return Info{
		Normalized: n,
		Absolute:   strings.HasPrefix(n, Separator),
		Segments:   Segments(n),
		Parent:     Dirname(n),
		Base:       Basename(n),
		Ext:        Extname(n),
	}
}
