package complete

import (
	"context"
	"strings"
)

const minSuggestQuery = 3

// Suggester returns search suggestions for free text. *suggest.Client
// satisfies it.
type Suggester interface {
	Suggest(ctx context.Context, query string) []string
}

// SuggestionProvider turns multi-word input that is not a command into web
// search suggestions. Choosing one replaces the whole line.
type SuggestionProvider struct {
	base
	suggester Suggester
}

func NewSuggestionProvider(s Suggester) *SuggestionProvider {
	return &SuggestionProvider{base: base{"suggestion", PrioritySuggestion}, suggester: s}
}

func (p *SuggestionProvider) CanComplete(c *Context) bool {
	text := strings.TrimSpace(c.Input)
	return c.Spec == nil && !c.IsCommand && len(text) >= minSuggestQuery && strings.ContainsAny(text, " \t")
}

func (p *SuggestionProvider) Complete(ctx context.Context, c *Context) ([]Completion, error) {
	query := strings.TrimSpace(c.Input)
	var out []Completion
	for _, s := range p.suggester.Suggest(ctx, query) {
		out = append(out, Completion{Value: s, Kind: "search", ReplaceLine: true})
	}
	return out, nil
}
