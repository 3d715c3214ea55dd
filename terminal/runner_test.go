package terminal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/expand"

	"webterm/command"
	"webterm/commands"
	"webterm/events"
	"webterm/prefs"
	"webterm/storage"
	"webterm/theme"
	"webterm/vfs"
)

func newRunner(t *testing.T) (*Runner, *events.Recorder) {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop().Sugar()
	kv := storage.NewMemoryStore()

	fs := vfs.New(kv, vfs.Options{})
	require.NoError(t, fs.Initialize(ctx))
	themes, err := theme.NewStore(ctx, kv, log)
	require.NoError(t, err)
	p, err := prefs.NewStore(ctx, kv, log)
	require.NoError(t, err)

	registry := command.NewRegistry(log)
	require.NoError(t, commands.Register(registry))

	rec := &events.Recorder{}
	env := &command.Env{
		FS:       fs,
		Themes:   themes,
		Prefs:    p,
		Events:   rec,
		Registry: registry,
		User:     "tester",
		Now:      func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
		Log:      log,
	}
	return NewRunner(registry, env, log), rec
}

func TestSplit(t *testing.T) {
	env := expand.ListEnviron("HOME=/home/user", "USER=tester")

	tests := []struct {
		line     string
		words    []string
		redirect *Redirect
	}{
		{line: "ls", words: []string{"ls"}},
		{line: `mkdir "my dir"`, words: []string{"mkdir", "my dir"}},
		{line: `echo 'single $USER' "double $USER"`, words: []string{"echo", "single $USER", "double tester"}},
		{line: "cd ~/docs", words: []string{"cd", "/home/user/docs"}},
		{line: "ls *.txt", words: []string{"ls", "*.txt"}},
		{line: "echo hi > out.txt", words: []string{"echo", "hi"}, redirect: &Redirect{Path: "out.txt"}},
		{line: "echo hi >> out.txt", words: []string{"echo", "hi"}, redirect: &Redirect{Path: "out.txt", Append: true}},
		{line: "echo a # comment", words: []string{"echo", "a"}},
		{line: "", words: nil},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Split(tt.line, env)
			require.NoError(t, err)
			assert.Equal(t, tt.words, got.Words)
			assert.Equal(t, tt.redirect, got.Redirect)
		})
	}
}

func TestSplitUnsupported(t *testing.T) {
	env := expand.ListEnviron()
	for _, line := range []string{
		"ls | wc",
		"echo a; echo b",
		"sleep 1 &",
		"echo x 2> err.txt",
		"cat < in.txt",
		"echo x > a > b",
		"FOO=1 echo",
		"if true; then echo; fi",
	} {
		_, err := Split(line, env)
		assert.ErrorIs(t, err, ErrUnsupported, line)
	}

	_, err := Split("echo 'unterminated", env)
	assert.Error(t, err)
}

func TestRunDispatches(t *testing.T) {
	r, _ := newRunner(t)
	ctx := context.Background()

	out := r.Run(ctx, `mkdir "my notes"`)
	require.Equal(t, command.TypeSuccess, out.Type, out.Output)
	out = r.Run(ctx, "cd 'my notes'")
	require.Equal(t, command.TypeSuccess, out.Type, out.Output)
	assert.Equal(t, "/home/user/my notes", r.Run(ctx, "pwd").Output)
	assert.Equal(t, "/home/user/my notes", r.Run(ctx, "echo $PWD").Output)

	assert.Equal(t, command.Outcome{Type: command.TypeSuccess}, r.Run(ctx, "   "))
}

func TestRunRedirect(t *testing.T) {
	r, _ := newRunner(t)
	ctx := context.Background()

	require.Equal(t, command.TypeSuccess, r.Run(ctx, "echo first line > log.txt").Type)
	require.Equal(t, command.TypeSuccess, r.Run(ctx, "echo second >> log.txt").Type)

	content, err := r.Env().FS.ReadFile(ctx, "log.txt")
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond\n", content)

	require.Equal(t, command.TypeSuccess, r.Run(ctx, "ls > listing.txt").Type)
	content, err = r.Env().FS.ReadFile(ctx, "listing.txt")
	require.NoError(t, err)
	assert.NotContains(t, content, "\x1b[")
	assert.Contains(t, content, "welcome.txt")

	out := r.Run(ctx, "echo x > /tmp")
	assert.Equal(t, command.TypeError, out.Type)
	assert.Contains(t, out.Output, "EISDIR")

	out = r.Run(ctx, "cat missing.txt > copy.txt")
	assert.Equal(t, command.TypeError, out.Type)
	exists, err := r.Env().FS.Exists(ctx, "copy.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunFallbackSearch(t *testing.T) {
	r, rec := newRunner(t)
	ctx := context.Background()

	out := r.Run(ctx, "how do pipes work")
	assert.Equal(t, command.TypeInfo, out.Type)
	assert.Contains(t, out.Output, "Google")

	_, err := r.Env().Prefs.Set(ctx, "search", "defaultEngine", "duckduckgo")
	require.NoError(t, err)
	r.Run(ctx, "golang generics")

	evs := rec.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, events.TypeNavigate, evs[0].Type)
	assert.Equal(t, "https://www.google.com/search?q=how+do+pipes+work", evs[0].URL)
	assert.Equal(t, "https://duckduckgo.com/?q=golang+generics", evs[1].URL)
}

func TestRunFallbackWhitespace(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		search string
	}{
		{"double quoted phrase", `"golang generics"`, "https://www.google.com/search?q=%22golang+generics%22"},
		{"single quoted phrase", `'rust lifetimes'`, "https://www.google.com/search?q=%27rust+lifetimes%27"},
		{"tab separated", "golang\tgenerics", "https://www.google.com/search?q=golang%09generics"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, rec := newRunner(t)
			out := r.Run(context.Background(), tt.line)
			assert.Equal(t, command.TypeInfo, out.Type)
			assert.Contains(t, out.Output, "Searching Google")

			evs := rec.Events()
			require.Len(t, evs, 1)
			assert.Equal(t, events.TypeNavigate, evs[0].Type)
			assert.Equal(t, tt.search, evs[0].URL)
		})
	}
}

func TestRunFallbackURL(t *testing.T) {
	r, rec := newRunner(t)
	ctx := context.Background()

	out := r.Run(ctx, "github.com")
	assert.Equal(t, command.TypeInfo, out.Type)
	out = r.Run(ctx, "https://example.com/a?b=1&c=2")
	assert.Equal(t, command.TypeInfo, out.Type)

	evs := rec.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, "https://github.com", evs[0].URL)
	assert.Equal(t, "https://example.com/a?b=1&c=2", evs[1].URL)

	out = r.Run(ctx, "welcome.txt")
	assert.Equal(t, command.TypeError, out.Type)
	assert.Equal(t, "Command not found: welcome.txt", out.Output)

	out = r.Run(ctx, "frobnicate")
	assert.Equal(t, command.Outcome{Output: "Command not found: frobnicate", Type: command.TypeError}, out)
	assert.Len(t, rec.Events(), 2)
}

func TestRunUnbalancedQuoteFallsBack(t *testing.T) {
	r, rec := newRunner(t)

	out := r.Run(context.Background(), "search google don't panic")
	assert.Equal(t, command.TypeInfo, out.Type, out.Output)

	evs := rec.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, "https://www.google.com/search?q=don%27t+panic", evs[0].URL)
}
