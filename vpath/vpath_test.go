package vpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"", "."},
		{"///", "/"},
		{"/home//user/", "/home/user"},
		{"/home/./user", "/home/user"},
		{"/home/user/..", "/home"},
		{"/../..", "/"},
		{"/../tmp", "/tmp"},
		{"../a", "../a"},
		{"../../a/b/..", "../../a"},
		{"a/../..", ".."},
		{`\home\user`, "/home/user"},
		{"./", "."},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, p := range []string{"/a/b/../c", "/./x//y/", "/..", "/home/user/notes/../a.txt"} {
		once := Normalize(p)
		assert.Equal(t, once, Normalize(once), p)
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "/home/user/docs", Join("/home/user", "docs"))
	assert.Equal(t, "/home/docs", Join("/home/user", "../docs"))
	assert.Equal(t, "/a", Join("/", "a"))
	assert.Equal(t, "a/b", Join("", "a", "", "b"))
	assert.Equal(t, ".", Join())
}

func TestDecomposition(t *testing.T) {
	assert.Equal(t, "/home", Dirname("/home/user"))
	assert.Equal(t, "/", Dirname("/home"))
	assert.Equal(t, "/", Dirname("/"))
	assert.Equal(t, ".", Dirname("file.txt"))

	assert.Equal(t, "user", Basename("/home/user/"))
	assert.Equal(t, "notes", Basename("/a/notes.md", ".md"))
	assert.Equal(t, "notes.md", Basename("/a/notes.md", ".txt"))
	assert.Equal(t, "", Basename("/"))

	assert.Equal(t, ".md", Extname("/a/notes.md"))
	assert.Equal(t, ".gz", Extname("archive.tar.gz"))
	assert.Equal(t, "", Extname(".bashrc"))
	assert.Equal(t, "", Extname("Makefile"))
}

func TestResolveAndRelative(t *testing.T) {
	assert.True(t, IsAbsolute("/x"))
	assert.False(t, IsAbsolute("x"))

	assert.Equal(t, "/etc", Resolve("/home/user", "/etc/"))
	assert.Equal(t, "/home/user/docs", Resolve("/home/user", "docs"))
	assert.Equal(t, "/", Resolve("/home/user", "../../.."))

	assert.Equal(t, "../c/d", Relative("/a/b", "/a/c/d"))
	assert.Equal(t, "b", Relative("/a", "/a/b"))
	assert.Equal(t, "", Relative("/a", "/a"))
	assert.Equal(t, "../..", Relative("/a/b", "/"))
}

func TestParse(t *testing.T) {
	info := Parse("/home/user/../user/notes.txt")
	assert.Equal(t, "/home/user/notes.txt", info.Normalized)
	assert.True(t, info.Absolute)
	assert.Equal(t, []string{"home", "user", "notes.txt"}, info.Segments)
	assert.Equal(t, "/home/user", info.Parent)
	assert.Equal(t, "notes.txt", info.Base)
	assert.Equal(t, ".txt", info.Ext)

	root := Parse("/")
	assert.Equal(t, "/", root.Normalized)
	assert.Empty(t, root.Segments)
	assert.Equal(t, "", root.Base)
}
