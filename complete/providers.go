package complete

import (
	"context"
	"slices"
	"strings"

	"webterm/args"
	"webterm/command"
	"webterm/prefs"
	"webterm/search"
	"webterm/theme"
)

// Provider priorities, highest first.
const (
	PriorityCommand    = 100
	PriorityDomain     = 90
	PriorityChoice     = 85
	PriorityFile       = 80
	PriorityTheme      = 70
	PrioritySearch     = 60
	PriorityConfig     = 50
	PriorityBoolean    = 40
	PriorityURL        = 30
	PrioritySuggestion = 10
)

type base struct {
	name     string
	priority int
}

func (b base) Name() string  { return b.name }
func (b base) Priority() int { return b.priority }

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// literals completes a fixed word list.
func literals(current, kind string, words []string, describe func(string) string) []Completion {
	var out []Completion
	for _, w := range words {
		if !hasPrefixFold(w, current) {
			continue
		}
		item := Completion{Value: w, Kind: kind}
		if describe != nil {
			item.Description = describe(w)
		}
		out = append(out, item)
	}
	return out
}

// CommandProvider offers command names and aliases in command position and
// after help.
type CommandProvider struct {
	base
	registry *command.Registry
}

func NewCommandProvider(registry *command.Registry) *CommandProvider {
	return &CommandProvider{base: base{"command", PriorityCommand}, registry: registry}
}

func (p *CommandProvider) CanComplete(c *Context) bool {
	return c.IsCommand || (c.CommandIs("help") && c.ArgIndex == 0)
}

func (p *CommandProvider) Complete(_ context.Context, c *Context) ([]Completion, error) {
	var out []Completion
	for _, spec := range p.registry.Commands() {
		if hasPrefixFold(spec.Name, c.Current) {
			out = append(out, Completion{Value: spec.Name, Description: spec.Description, Kind: "command"})
		}
		for _, alias := range spec.Aliases {
			if hasPrefixFold(alias, c.Current) {
				out = append(out, Completion{Value: alias, Description: "alias for " + spec.Name, Kind: "alias"})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Completion) int { return strings.Compare(a.Value, b.Value) })
	return out, nil
}

// ChoiceProvider offers subcommand names and declared argument choices.
type ChoiceProvider struct {
	base
}

func NewChoiceProvider() *ChoiceProvider {
	return &ChoiceProvider{base{"choice", PriorityChoice}}
}

func (p *ChoiceProvider) CanComplete(c *Context) bool {
	switch s := c.Slot.(type) {
	case args.Branch:
		return true
	case args.Arg:
		return len(s.Choices) > 0
	}
	return false
}

func (p *ChoiceProvider) Complete(_ context.Context, c *Context) ([]Completion, error) {
	switch s := c.Slot.(type) {
	case args.Branch:
		return literals(c.Current, "subcommand", s.Names(), func(name string) string {
			sub, _ := s.Find(name)
			return sub.Description
		}), nil
	case args.Arg:
		choices := s.Choices
		if s.Kind == args.Enum {
			used := c.Previous()
			choices = slices.DeleteFunc(slices.Clone(choices), func(v string) bool { return slices.Contains(used, v) })
		}
		return literals(c.Current, "choice", choices, nil), nil
	}
	return nil, nil
}

// ThemeProvider offers theme names for theme set and theme export.
type ThemeProvider struct {
	base
	themes *theme.Store
}

func NewThemeProvider(themes *theme.Store) *ThemeProvider {
	return &ThemeProvider{base: base{"theme", PriorityTheme}, themes: themes}
}

func (p *ThemeProvider) CanComplete(c *Context) bool {
	a, ok := c.SlotArg()
	return ok && a.Kind == args.Theme
}

func (p *ThemeProvider) Complete(_ context.Context, c *Context) ([]Completion, error) {
	current := p.themes.Current().Name
	var out []Completion
	for _, t := range p.themes.List() {
		if !hasPrefixFold(t.Name, c.Current) {
			continue
		}
		desc := t.DisplayName
		if t.Name == current {
			desc += " (current)"
		}
		out = append(out, Completion{Value: t.Name, Description: desc, Kind: "theme"})
	}
	return out, nil
}

// SearchEngineProvider offers engine names for the first argument of search.
type SearchEngineProvider struct {
	base
}

func NewSearchEngineProvider() *SearchEngineProvider {
	return &SearchEngineProvider{base{"search-engine", PrioritySearch}}
}

func (p *SearchEngineProvider) CanComplete(c *Context) bool {
	return c.CommandIs("search") && c.ArgIndex == 0
}

func (p *SearchEngineProvider) Complete(_ context.Context, c *Context) ([]Completion, error) {
	var out []Completion
	for _, e := range search.Engines() {
		if hasPrefixFold(e.Name, c.Current) {
			out = append(out, Completion{Value: e.Name, Description: e.DisplayName, Kind: "engine"})
		}
	}
	return out, nil
}

// ConfigProvider offers property names and values for config get and set.
type ConfigProvider struct {
	base
}

func NewConfigProvider() *ConfigProvider {
	return &ConfigProvider{base{"config", PriorityConfig}}
}

func (p *ConfigProvider) CanComplete(c *Context) bool {
	if !c.CommandIs("config") {
		return false
	}
	a, ok := c.SlotArg()
	if !ok {
		return false
	}
	return (a.Name == "property" && c.ArgIndex == 2) || (a.Name == "value" && c.ArgIndex == 3)
}

func (p *ConfigProvider) Complete(_ context.Context, c *Context) ([]Completion, error) {
	section, ok := prefs.LookupSection(c.Args[1])
	if !ok {
		return nil, nil
	}

	if c.ArgIndex == 2 {
		var out []Completion
		for _, prop := range section.Properties {
			if hasPrefixFold(prop.Name, c.Current) {
				out = append(out, Completion{Value: prop.Name, Description: prop.Description, Kind: "property"})
			}
		}
		return out, nil
	}

	prop, ok := section.Property(c.Args[2])
	if !ok {
		return nil, nil
	}
	switch prop.Kind {
	case prefs.KindEnum:
		return literals(c.Current, "value", prop.Choices, nil), nil
	case prefs.KindBool:
		return literals(c.Current, "value", []string{"true", "false"}, nil), nil
	}
	return literals(c.Current, "value", []string{prefs.Format(prop.Default)}, func(string) string { return "default" }), nil
}

// BooleanProvider offers true and false for boolean arguments.
type BooleanProvider struct {
	base
}

func NewBooleanProvider() *BooleanProvider {
	return &BooleanProvider{base{"boolean", PriorityBoolean}}
}

func (p *BooleanProvider) CanComplete(c *Context) bool {
	a, ok := c.SlotArg()
	return ok && a.Kind == args.Boolean
}

func (p *BooleanProvider) Complete(_ context.Context, c *Context) ([]Completion, error) {
	return literals(c.Current, "boolean", []string{"true", "false"}, nil), nil
}

// URLProvider offers a scheme for URL arguments.
type URLProvider struct {
	base
}

func NewURLProvider() *URLProvider {
	return &URLProvider{base{"url", PriorityURL}}
}

func (p *URLProvider) CanComplete(c *Context) bool {
	a, ok := c.SlotArg()
	return ok && a.Kind == args.URL
}

func (p *URLProvider) Complete(_ context.Context, c *Context) ([]Completion, error) {
	schemes := []string{"https://", "http://"}
	if c.Current == "" || hasPrefixFold("https://", c.Current) || hasPrefixFold("http://", c.Current) {
		return literals(c.Current, "url", schemes, nil), nil
	}
	if strings.Contains(c.Current, "://") {
		return nil, nil
	}
	return []Completion{{Value: "https://" + c.Current, Kind: "url"}}, nil
}
