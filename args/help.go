package args

import (
	"fmt"
	"strings"
)

// Usage renders the one-line synopsis of schema, e.g. "<path> [parents]".
func Usage(schema Schema) string {
	parts := make([]string, 0, len(schema))
	for i, s := range schema {
		switch s := s.(type) {
		case Branch:
			parts = append(parts, wrap("<"+strings.Join(s.Names(), "|")+">", s.Required))
		case Arg:
			name := s.Name
			if i == len(schema)-1 && greedy(s) {
				name += "..."
			}
			parts = append(parts, wrap(name, s.Required))
		}
	}
	return strings.Join(parts, " ")
}

func wrap(name string, required bool) string {
	if strings.HasPrefix(name, "<") {
		if required {
			return name
		}
		return "[" + strings.Trim(name, "<>") + "]"
	}
	if required {
		return "<" + name + ">"
	}
	return "[" + name + "]"
}

// GenerateHelp renders the usage and argument reference of a command.
func GenerateHelp(schema Schema, command string) string {
	var b strings.Builder
	b.WriteString("Usage: " + strings.TrimSpace(command+" "+Usage(schema)))
	writeArgs(&b, schema, "  ")
	return b.String()
}

func writeArgs(b *strings.Builder, schema Schema, indent string) {
	for _, s := range schema {
		switch s := s.(type) {
		case Arg:
			fmt.Fprintf(b, "\n%s%-12s %s", indent, s.Name, describe(s))
		case Branch:
			b.WriteString("\n" + indent + "Subcommands:")
			for _, sub := range s.Subcommands {
				line := strings.TrimSpace(sub.Name + " " + Usage(sub.Args))
				fmt.Fprintf(b, "\n%s  %-20s %s", indent, line, sub.Description)
				writeArgs(b, sub.Args, indent+"    ")
			}
		}
	}
}

func describe(a Arg) string {
	details := []string{string(a.Kind)}
	if a.Required {
		details = append(details, "required")
	} else {
		details = append(details, "optional")
	}
	if a.Default != nil {
		details = append(details, fmt.Sprintf("default: %v", a.Default))
	}
	if len(a.Choices) > 0 {
		details = append(details, "choices: "+strings.Join(a.Choices, "|"))
	}

	out := "(" + strings.Join(details, ", ") + ")"
	if a.Description != "" {
		out += " " + a.Description
	}
	return out
}
