package command

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"webterm/args"
	"webterm/metrics"
)

var ErrInvalidSpec = errors.New("invalid command spec")

// DuplicateError is returned when a name or alias is already taken.
type DuplicateError struct {
	Name     string
	Existing string
	New      string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("command name %q of %s is already registered by %s", e.Name, e.New, e.Existing)
}

// Registry maps names and aliases (case-insensitively) to specs. It is
// filled at startup and read concurrently afterwards.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]*Spec
	specs []*Spec
	log   *zap.SugaredLogger
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Registry{byKey: map[string]*Spec{}, log: log}
}

// Register adds spec under its name and aliases. Nothing is registered
// when any key collides.
func (r *Registry) Register(spec Spec) error {
	if spec.Name == "" || spec.Handler == nil {
		return fmt.Errorf("%w: %q needs a name and a handler", ErrInvalidSpec, spec.Name)
	}

	keys := []string{strings.ToLower(spec.Name)}
	for _, a := range spec.Aliases {
		if k := strings.ToLower(a); !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		if existing, ok := r.byKey[k]; ok {
			return &DuplicateError{Name: k, Existing: existing.Name, New: spec.Name}
		}
	}

	s := &spec
	for _, k := range keys {
		r.byKey[k] = s
	}
	r.specs = append(r.specs, s)
	return nil
}

// MustRegister registers every spec and panics on the first error.
func (r *Registry) MustRegister(specs ...Spec) {
	for _, s := range specs {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Get(name string) (*Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byKey[strings.ToLower(name)]
	return s, ok
}

// Commands returns each spec once, sorted by name.
func (r *Registry) Commands() []*Spec {
	r.mu.RLock()
	out := slices.Clone(r.specs)
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Spec) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Names returns every name and alias, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Execute resolves name, parses tokens and runs the handler. It never
// panics and never returns a nil outcome.
func (r *Registry) Execute(ctx context.Context, env *Env, name string, tokens []string) (out Outcome) {
	spec, ok := r.Get(name)
	if !ok {
		return Outcome{Output: "Command not found: " + name, Type: TypeError}
	}

	start := time.Now()
	defer func() {
		metrics.RecordCommand(spec.Name, string(out.Type), time.Since(start))
	}()

	values, err := args.Parse(tokens, spec.Args)
	if err != nil {
		return Outcome{
			Output: fmt.Sprintf("%s: %v\n\n%s", spec.Name, err, args.GenerateHelp(spec.Args, spec.Name)),
			Type:   TypeError,
		}
	}

	return r.run(ctx, env, spec, values)
}

func (r *Registry) run(ctx context.Context, env *Env, spec *Spec, values args.Values) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Errorw("command panicked", "command", spec.Name, "panic", p, "stack", string(debug.Stack()))
			out = Outcome{Output: fmt.Sprintf("%s: %v", spec.Name, p), Type: TypeError}
		}
	}()

	res, err := spec.Handler(ctx, env, values)
	switch {
	case err != nil:
		r.log.Debugw("command failed", "command", spec.Name, "error", err)
		return Outcome{Output: spec.Name + ": " + err.Error(), Type: TypeError}
	case res == nil:
		return Outcome{Type: TypeSuccess}
	case res.Type == "":
		res.Type = TypeSuccess
	}
	return *res
}
