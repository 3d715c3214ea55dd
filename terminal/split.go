package terminal

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// ErrUnsupported is returned by Split for shell constructs the terminal
// does not run: pipelines, lists, background jobs and anything beyond a
// single output redirection.
var ErrUnsupported = errors.New("unsupported shell syntax")

// Redirect is a single trailing > or >>.
type Redirect struct {
	Path   string
	Append bool
}

// Line is one command line split into words.
type Line struct {
	Words    []string
	Redirect *Redirect
}

// Split parses line with shell quoting rules and expands variables and ~
// from env. Globs are left as typed.
func Split(line string, env expand.Environ) (Line, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil {
		return Line{}, err
	}
	switch len(file.Stmts) {
	case 0:
		return Line{}, nil
	case 1:
	default:
		return Line{}, fmt.Errorf("%w: more than one command", ErrUnsupported)
	}

	stmt := file.Stmts[0]
	if stmt.Background || stmt.Coprocess || stmt.Negated {
		return Line{}, fmt.Errorf("%w: job control", ErrUnsupported)
	}

	cfg := &expand.Config{Env: env}
	var out Line
	if stmt.Cmd != nil {
		call, ok := stmt.Cmd.(*syntax.CallExpr)
		if !ok {
			return Line{}, fmt.Errorf("%w: compound command", ErrUnsupported)
		}
		if len(call.Assigns) > 0 {
			return Line{}, fmt.Errorf("%w: variable assignment", ErrUnsupported)
		}
		out.Words, err = expand.Fields(cfg, call.Args...)
		if err != nil {
			return Line{}, err
		}
	}

	switch len(stmt.Redirs) {
	case 0:
	case 1:
		r := stmt.Redirs[0]
		if r.N != nil {
			return Line{}, fmt.Errorf("%w: redirection of descriptor %s", ErrUnsupported, r.N.Value)
		}
		var appendMode bool
		switch r.Op {
		case syntax.RdrOut, syntax.ClbOut:
		case syntax.AppOut:
			appendMode = true
		default:
			return Line{}, fmt.Errorf("%w: redirection %s", ErrUnsupported, r.Op)
		}
		target, err := expand.Literal(cfg, r.Word)
		if err != nil {
			return Line{}, err
		}
		out.Redirect = &Redirect{Path: target, Append: appendMode}
	default:
		return Line{}, fmt.Errorf("%w: more than one redirection", ErrUnsupported)
	}
	return out, nil
}
