package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"webterm/args"
	"webterm/command"
	"webterm/events"
	"webterm/search"
)

func webCommands() []command.Spec {
	return []command.Spec{
		{
			Name:        "search",
			Aliases:     []string{"s"},
			Description: "Search the web",
			Category:    categoryWeb,
			Args: args.Schema{
				args.Arg{Name: "engine", Kind: args.String, Required: true, Description: "One of " + strings.Join(search.Names(), ", ")},
				args.Arg{Name: "query", Kind: args.String, Required: true},
			},
			Examples: []string{"search google golang generics", "search wikipedia unix"},
			Handler: func(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
				engine, ok := search.Lookup(v.String("engine"))
				if !ok {
					return nil, fmt.Errorf("unknown search engine '%s', available: %s", v.String("engine"), strings.Join(search.Names(), ", "))
				}
				Navigate(env, engine.URL(v.String("query")))
				return command.Info("Searching %s for \"%s\"", engine.DisplayName, v.String("query")), nil
			},
		},
		{
			Name:        "open",
			Aliases:     []string{"goto"},
			Description: "Open a web page",
			Category:    categoryWeb,
			Args:        args.Schema{args.Arg{Name: "url", Kind: args.URL, Required: true}},
			Examples:    []string{"open github.com", "open https://go.dev/doc"},
			Handler: func(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
				Navigate(env, v.String("url"))
				return nil, nil
			},
		},
	}
}

// Navigate asks the page to open url, in a new tab when the user prefers.
func Navigate(env *command.Env, url string) {
	newTab := false
	if env.Prefs != nil {
		newTab = env.Prefs.Bool("search", "openInNewTab")
	}
	env.Emit(events.Event{Type: events.TypeNavigate, URL: url, NewTab: newTab})
}

func systemCommands() []command.Spec {
	return []command.Spec{
		{
			Name:        "help",
			Aliases:     []string{"?"},
			Description: "List commands or describe one",
			Category:    categorySystem,
			Args:        args.Schema{args.Arg{Name: "command", Kind: args.String}},
			Examples:    []string{"help", "help theme"},
			Handler:     help,
		},
		{
			Name:        "clear",
			Aliases:     []string{"cls"},
			Description: "Clear the screen",
			Category:    categorySystem,
			Handler: func(ctx context.Context, env *command.Env, _ args.Values) (*command.Outcome, error) {
				env.Emit(events.Event{Type: events.TypeClear})
				return nil, nil
			},
		},
		{
			Name:        "echo",
			Description: "Print text",
			Category:    categorySystem,
			Args:        args.Schema{args.Arg{Name: "text", Kind: args.String, Default: ""}},
			Examples:    []string{"echo hello", "echo note >> notes.md"},
			Handler: func(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
				return command.Success("%s", v.String("text")), nil
			},
		},
		{
			Name:        "date",
			Description: "Print the current date and time",
			Category:    categorySystem,
			Handler: func(ctx context.Context, env *command.Env, _ args.Values) (*command.Outcome, error) {
				return command.Success("%s", env.Clock().Format(time.UnixDate)), nil
			},
		},
		{
			Name:        "whoami",
			Description: "Print the user name",
			Category:    categorySystem,
			Handler: func(ctx context.Context, env *command.Env, _ args.Values) (*command.Outcome, error) {
				return command.Success("%s", userName(env)), nil
			},
		},
	}
}

func userName(env *command.Env) string {
	if env.User == "" {
		return "user"
	}
	return env.User
}

func help(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
	if name := v.String("command"); name != "" {
		spec, ok := env.Registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("no help for '%s', command not found", name)
		}
		return command.Info("%s", describeCommand(spec)), nil
	}

	byCategory := map[string][]*command.Spec{}
	for _, s := range env.Registry.Commands() {
		byCategory[s.Category] = append(byCategory[s.Category], s)
	}

	var b strings.Builder
	b.WriteString("Available commands:")
	var extra []string
	for c := range byCategory {
		if !slices.Contains(categories, c) {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	order := append(slices.Clone(categories), extra...)
	for _, c := range order {
		specs := byCategory[c]
		if len(specs) == 0 {
			continue
		}
		label := c
		if label == "" {
			label = "Other"
		}
		b.WriteString("\n\n" + headerColor.Sprint(label))
		rows := make([][]string, len(specs))
		for i, s := range specs {
			rows[i] = []string{"  " + s.Name, s.Description}
		}
		b.WriteString("\n" + table(rows))
	}
	b.WriteString("\n\nType 'help <command>' for details.")
	return command.Info("%s", b.String()), nil
}

func describeCommand(s *command.Spec) string {
	var b strings.Builder
	b.WriteString(nameColor.Sprint(s.Name) + " - " + s.Description + "\n\n")
	b.WriteString(args.GenerateHelp(s.Args, s.Name))
	if len(s.Aliases) > 0 {
		b.WriteString("\n\nAliases: " + strings.Join(s.Aliases, ", "))
	}
	if len(s.Examples) > 0 {
		b.WriteString("\n\nExamples:")
		for _, ex := range s.Examples {
			b.WriteString("\n  " + dimColor.Sprint("$ ") + ex)
		}
	}
	return b.String()
}
