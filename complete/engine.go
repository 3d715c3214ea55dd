// Package complete proposes completions for a partially typed command
// line by asking a prioritised set of providers.
package complete

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"webterm/args"
	"webterm/command"
	"webterm/metrics"
)

// Completion is one candidate. Value replaces the word under the cursor,
// or the whole line when ReplaceLine is set.
type Completion struct {
	Value       string `json:"value"`
	Display     string `json:"display,omitempty"`
	Description string `json:"description,omitempty"`
	Kind        string `json:"kind"`
	Provider    string `json:"provider"`
	ReplaceLine bool   `json:"replaceLine,omitempty"`
}

// Provider is one source of completions.
type Provider interface {
	Name() string
	// Priority orders providers, higher first.
	Priority() int
	CanComplete(c *Context) bool
	Complete(ctx context.Context, c *Context) ([]Completion, error)
}

// Result is the answer to one completion request.
type Result struct {
	Context      *Context     `json:"context"`
	Completions  []Completion `json:"completions"`
	CommonPrefix string       `json:"commonPrefix"`
	WordStart    int          `json:"wordStart"`
	WordEnd      int          `json:"wordEnd"`
}

const (
	DefaultLimit           = 20
	DefaultProviderTimeout = 3 * time.Second
)

type Engine struct {
	registry *command.Registry
	log      *zap.SugaredLogger

	mu        sync.RWMutex
	providers []Provider

	// Limit caps the merged list.
	Limit int
	// ProviderTimeout bounds each provider call.
	ProviderTimeout time.Duration
}

func NewEngine(registry *command.Registry, log *zap.SugaredLogger, providers ...Provider) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	e := &Engine{
		registry:        registry,
		log:             log,
		Limit:           DefaultLimit,
		ProviderTimeout: DefaultProviderTimeout,
	}
	e.Register(providers...)
	return e
}

// Register adds providers. The list is kept sorted by descending priority,
// registration order breaking ties.
func (e *Engine) Register(providers ...Provider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.providers = append(e.providers, providers...)
	slices.SortStableFunc(e.providers, func(a, b Provider) int {
		return cmp.Compare(b.Priority(), a.Priority())
	})
}

// Providers returns the registered providers in query order.
func (e *Engine) Providers() []Provider {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.providers)
}

// Context parses input and resolves the command and argument slot.
func (e *Engine) Context(input string, cursor int) *Context {
	c := ParseContext(input, cursor)
	if c.IsCommand || e.registry == nil {
		return c
	}
	if spec, ok := e.registry.Get(c.Command); ok {
		c.Spec = spec
		c.Slot = args.Resolve(spec.Args, c.Previous())
	}
	return c
}

// Complete asks every applicable provider concurrently and merges their
// answers in priority order, keeping the first occurrence of each value.
// A failing provider contributes nothing.
func (e *Engine) Complete(ctx context.Context, input string, cursor int) Result {
	metrics.RecordCompletionRequest()
	c := e.Context(input, cursor)
	start, end := WordBounds(input, cursor)

	var active []Provider
	for _, p := range e.Providers() {
		if p.CanComplete(c) {
			active = append(active, p)
		}
	}

	answers := make([][]Completion, len(active))
	var g errgroup.Group
	for i, p := range active {
		g.Go(func() error {
			answers[i] = e.ask(ctx, p, c)
			return nil
		})
	}
	_ = g.Wait()

	seen := map[string]bool{}
	merged := make([]Completion, 0)
	for _, list := range answers {
		for _, item := range list {
			if seen[item.Value] {
				continue
			}
			seen[item.Value] = true
			merged = append(merged, item)
		}
	}
	if e.Limit > 0 && len(merged) > e.Limit {
		merged = merged[:e.Limit]
	}

	values := make([]string, len(merged))
	for i, item := range merged {
		values[i] = item.Value
	}
	return Result{
		Context:      c,
		Completions:  merged,
		CommonPrefix: CommonPrefix(values),
		WordStart:    start,
		WordEnd:      end,
	}
}

func (e *Engine) ask(ctx context.Context, p Provider, c *Context) (out []Completion) {
	defer func() {
		if r := recover(); r != nil {
			e.fail(p, fmt.Errorf("panic: %v", r))
			out = nil
		}
	}()

	if e.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.ProviderTimeout)
		defer cancel()
	}
	items, err := p.Complete(ctx, c)
	if err != nil {
		e.fail(p, err)
		return nil
	}
	for i := range items {
		if items[i].Provider == "" {
			items[i].Provider = p.Name()
		}
	}
	return items
}

func (e *Engine) fail(p Provider, err error) {
	metrics.RecordProviderError(p.Name())
	e.log.Warnw("completion provider failed", "provider", p.Name(), "error", err)
}
