// Package terminal turns raw input lines into command invocations.
package terminal

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"mvdan.cc/sh/v3/expand"

	"webterm/args"
	"webterm/command"
	"webterm/commands"
	"webterm/search"
	"webterm/vfs"
)

var (
	ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

	// host[:port][/path] with at least one dot, or localhost.
	bareDomain = regexp.MustCompile(`(?i)^(localhost|([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,})(:\d{1,5})?(/\S*)?$`)
)

// Runner executes one input line at a time against a registry.
type Runner struct {
	registry *command.Registry
	env      *command.Env
	log      *zap.SugaredLogger
}

func NewRunner(registry *command.Registry, env *command.Env, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{registry: registry, env: env, log: log}
}

// Env returns the environment handlers run with.
func (r *Runner) Env() *command.Env {
	return r.env
}

// Run splits line, dispatches it and applies any output redirection.
// Unknown commands are reinterpreted as a web search or a URL to open.
func (r *Runner) Run(ctx context.Context, line string) command.Outcome {
	line = strings.TrimSpace(line)
	if line == "" {
		return command.Outcome{Type: command.TypeSuccess}
	}

	start := time.Now()
	parsed, err := Split(line, r.environ())
	if err != nil {
		r.log.Debugw("shell split failed, using plain fields", "line", line, "error", err)
		parsed = Line{Words: strings.Fields(line)}
	}
	if len(parsed.Words) == 0 {
		if parsed.Redirect != nil {
			return r.redirect(ctx, command.Outcome{Type: command.TypeSuccess}, *parsed.Redirect)
		}
		return command.Outcome{Type: command.TypeSuccess}
	}

	name := parsed.Words[0]
	if _, ok := r.registry.Get(name); !ok {
		return r.fallback(ctx, line, parsed.Words)
	}

	out := r.registry.Execute(ctx, r.env, name, parsed.Words[1:])
	if parsed.Redirect != nil && out.Type != command.TypeError {
		out = r.redirect(ctx, out, *parsed.Redirect)
	}
	r.log.Debugw("line done", "command", name, "type", out.Type, "elapsed", time.Since(start))
	return out
}

// environ exposes the session to $VAR expansion.
func (r *Runner) environ() expand.Environ {
	pairs := []string{"HOME=" + vfs.HomeDir, "SHELL=webterm"}
	user := r.env.User
	if user == "" {
		user = "user"
	}
	pairs = append(pairs, "USER="+user)
	if r.env.FS != nil {
		if cwd, err := r.env.FS.CurrentDirectory(); err == nil {
			pairs = append(pairs, "PWD="+cwd)
		}
	}
	if r.env.Themes != nil {
		pairs = append(pairs, "THEME="+r.env.Themes.Current().Name)
	}
	return expand.ListEnviron(pairs...)
}

func (r *Runner) redirect(ctx context.Context, out command.Outcome, to Redirect) command.Outcome {
	content := ansi.ReplaceAllString(out.Output, "")
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if err := r.env.FS.WriteFile(ctx, to.Path, content, to.Append); err != nil {
		return command.Outcome{Output: fmt.Sprintf("redirect: %v", err), Type: command.TypeError}
	}
	return command.Outcome{Type: out.Type}
}

func (r *Runner) fallback(ctx context.Context, line string, words []string) command.Outcome {
	if strings.ContainsAny(line, " \t") {
		engine := r.defaultEngine()
		commands.Navigate(r.env, engine.URL(line))
		return command.Outcome{Output: fmt.Sprintf("Searching %s for \"%s\"", engine.DisplayName, line), Type: command.TypeInfo}
	}

	token := words[0]
	if r.looksLikeURL(ctx, token) {
		if u, err := args.NormalizeURL("url", token); err == nil {
			commands.Navigate(r.env, u)
			return command.Outcome{Output: "Opening " + u, Type: command.TypeInfo}
		}
	}
	return command.Outcome{Output: "Command not found: " + token, Type: command.TypeError}
}

func (r *Runner) defaultEngine() search.Engine {
	name := search.DefaultEngine
	if r.env.Prefs != nil {
		if n := r.env.Prefs.String("search", "defaultEngine"); n != "" {
			name = n
		}
	}
	engine, ok := search.Lookup(name)
	if !ok {
		engine, _ = search.Lookup(search.DefaultEngine)
	}
	return engine
}

// looksLikeURL accepts explicit http(s) URLs and bare domains. A token that
// names an existing file is never a domain, so "notes.md" is not opened.
func (r *Runner) looksLikeURL(ctx context.Context, token string) bool {
	lower := strings.ToLower(token)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return true
	}
	if !bareDomain.MatchString(token) {
		return false
	}
	if r.env.FS != nil {
		exists, err := r.env.FS.Exists(ctx, token)
		if err != nil {
			r.log.Warnw("checking token against the file system", "token", token, "error", err)
		}
		if exists {
			return false
		}
	}
	return true
}
