// Package command holds the command registry and the dispatcher that turns
// a command name plus tokens into an Outcome.
package command

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"webterm/args"
	"webterm/events"
	"webterm/prefs"
	"webterm/theme"
	"webterm/vfs"
)

type OutcomeType string

const (
	TypeSuccess OutcomeType = "success"
	TypeError   OutcomeType = "error"
	TypeInfo    OutcomeType = "info"
)

// Outcome is the uniform result of running a command.
type Outcome struct {
	Output string      `json:"output,omitempty"`
	Type   OutcomeType `json:"type"`
}

func Success(format string, a ...any) *Outcome {
	return &Outcome{Output: fmt.Sprintf(format, a...), Type: TypeSuccess}
}

func Info(format string, a ...any) *Outcome {
	return &Outcome{Output: fmt.Sprintf(format, a...), Type: TypeInfo}
}

func Failure(format string, a ...any) *Outcome {
	return &Outcome{Output: fmt.Sprintf(format, a...), Type: TypeError}
}

// Handler runs a command. Returning (nil, nil) is a silent success, used by
// commands whose effect is an event rather than text.
type Handler func(ctx context.Context, env *Env, v args.Values) (*Outcome, error)

type Spec struct {
	Name        string
	Aliases     []string
	Description string
	Category    string
	Args        args.Schema
	Examples    []string
	Handler     Handler
}

// Usage is the synopsis line, e.g. "mkdir <path> [parents]".
func (s *Spec) Usage() string {
	if u := args.Usage(s.Args); u != "" {
		return s.Name + " " + u
	}
	return s.Name
}

// Env is what handlers may touch. It is built once per terminal session.
type Env struct {
	FS       *vfs.FileSystem
	Themes   *theme.Store
	Prefs    *prefs.Store
	Events   events.Sink
	Registry *Registry
	User     string
	Now      func() time.Time
	Log      *zap.SugaredLogger
}

// Clock returns the current time as seen by handlers.
func (e *Env) Clock() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Env) Emit(ev events.Event) {
	if e.Events != nil {
		e.Events.Emit(ev)
	}
}
