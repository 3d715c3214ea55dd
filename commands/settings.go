package commands

import (
	"context"
	"fmt"
	"strings"

	"webterm/args"
	"webterm/command"
	"webterm/events"
	"webterm/prefs"
	"webterm/theme"
)

func themeCommand() command.Spec {
	name := args.Arg{Name: "name", Kind: args.Theme, Required: true, Description: "Theme name"}

	return command.Spec{
		Name:        "theme",
		Description: "List, show, apply or export colour themes",
		Category:    categoryAppearance,
		Args: args.Schema{args.Branch{
			Name:     "action",
			Required: true,
			Subcommands: []args.Subcommand{
				{Name: "list", Description: "List available themes"},
				{Name: "current", Description: "Show the active theme"},
				{Name: "set", Description: "Apply a theme", Args: args.Schema{name}},
				{Name: "export", Description: "Print a theme definition", Args: args.Schema{
					name,
					args.Arg{Name: "format", Kind: args.Format, Default: "json", Choices: theme.Formats},
				}},
			},
		}},
		Examples: []string{"theme list", "theme set dracula", "theme export nord toml"},
		Handler:  runTheme,
	}
}

func runTheme(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
	switch v.String("action") {
	case "list":
		current := env.Themes.Current().Name
		rows := make([][]string, 0)
		for _, t := range env.Themes.List() {
			marker := " "
			label := t.Name
			if t.Name == current {
				marker = "*"
				label = currentColor.Sprint(t.Name)
			}
			rows = append(rows, []string{marker, t.DisplayName, label})
		}
		return command.Success("%s", table(rows)), nil

	case "current":
		t := env.Themes.Current()
		return command.Info("Current theme: %s (%s)", t.DisplayName, t.Name), nil

	case "set":
		t, err := env.Themes.Set(ctx, v.String("name"))
		if err != nil {
			return nil, err
		}
		env.Emit(events.Event{Type: events.TypeThemeChange, Theme: t.Name})
		return command.Success("Theme changed to %s", t.DisplayName), nil

	case "export":
		t, ok := env.Themes.Get(v.String("name"))
		if !ok {
			return nil, fmt.Errorf("%w: %s", theme.ErrNotFound, v.String("name"))
		}
		out, err := theme.Export(t, v.String("format"))
		if err != nil {
			return nil, err
		}
		return command.Success("%s", strings.TrimRight(out, "\n")), nil
	}
	return nil, fmt.Errorf("unsupported action %q", v.String("action"))
}

func configCommand() command.Spec {
	section := args.Arg{Name: "section", Kind: args.String, Required: true, Choices: prefs.SectionNames()}
	property := args.Arg{Name: "property", Kind: args.String, Required: true}

	return command.Spec{
		Name:        "config",
		Description: "Show and change preferences",
		Category:    categorySystem,
		Args: args.Schema{args.Branch{
			Name:     "action",
			Required: true,
			Subcommands: []args.Subcommand{
				{Name: "list", Description: "Show preferences", Args: args.Schema{
					args.Arg{Name: "section", Kind: args.Enum, Choices: prefs.SectionNames()},
				}},
				{Name: "get", Description: "Show one preference", Args: args.Schema{section, property}},
				{Name: "set", Description: "Change one preference", Args: args.Schema{
					section,
					property,
					args.Arg{Name: "value", Kind: args.String, Required: true},
				}},
				{Name: "reset", Description: "Restore every default"},
			},
		}},
		Examples: []string{"config list", "config get terminal fontSize", "config set search defaultEngine duckduckgo"},
		Handler:  runConfig,
	}
}

func runConfig(ctx context.Context, env *command.Env, v args.Values) (*command.Outcome, error) {
	switch v.String("action") {
	case "list":
		var out []string
		sections := v.Strings("section")
		if len(sections) == 0 {
			sections = []string{""}
		}
		for _, sec := range sections {
			entries, err := env.Prefs.List(sec)
			if err != nil {
				return nil, err
			}
			rows := make([][]string, 0, len(entries))
			last := ""
			for _, e := range entries {
				if e.Section != last {
					if len(rows) > 0 {
						out = append(out, table(rows))
						rows = rows[:0]
					}
					out = append(out, headerColor.Sprint("["+e.Section+"]"))
					last = e.Section
				}
				rows = append(rows, []string{"  " + e.Property, prefs.Format(e.Value)})
			}
			if len(rows) > 0 {
				out = append(out, table(rows))
			}
		}
		return command.Success("%s", strings.Join(out, "\n")), nil

	case "get":
		val, err := env.Prefs.Get(v.String("section"), v.String("property"))
		if err != nil {
			return nil, err
		}
		return command.Success("%s.%s = %s", v.String("section"), v.String("property"), prefs.Format(val)), nil

	case "set":
		val, err := env.Prefs.Set(ctx, v.String("section"), v.String("property"), v.String("value"))
		if err != nil {
			return nil, err
		}
		return command.Success("%s.%s set to %s", v.String("section"), v.String("property"), prefs.Format(val)), nil

	case "reset":
		if err := env.Prefs.Reset(ctx); err != nil {
			return nil, err
		}
		return command.Success("Preferences restored to defaults"), nil
	}
	return nil, fmt.Errorf("unsupported action %q", v.String("action"))
}
