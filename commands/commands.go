// Package commands defines the built-in terminal commands.
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"webterm/command"
)

const (
	categoryFiles      = "Files"
	categoryNavigation = "Navigation"
	categoryAppearance = "Appearance"
	categoryWeb        = "Web"
	categorySystem     = "System"
)

var categories = []string{categoryNavigation, categoryFiles, categoryAppearance, categoryWeb, categorySystem}

// Output goes to xterm.js, which always understands ANSI escapes, so the
// colours are forced on regardless of the server's stdout.
var (
	dirColor     = forced(color.FgBlue, color.Bold)
	nameColor    = forced(color.FgGreen, color.Bold)
	headerColor  = forced(color.FgYellow, color.Bold)
	currentColor = forced(color.FgCyan)
	dimColor     = forced(color.Faint)
)

func forced(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

// Builtins returns every built-in command spec.
func Builtins() []command.Spec {
	var specs []command.Spec
	specs = append(specs, navigationCommands()...)
	specs = append(specs, fileCommands()...)
	specs = append(specs, themeCommand(), configCommand())
	specs = append(specs, webCommands()...)
	specs = append(specs, systemCommands()...)
	return specs
}

// Register adds every built-in to r.
func Register(r *command.Registry) error {
	for _, s := range Builtins() {
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// table renders rows with aligned columns. Only the last column may carry
// colour escapes.
func table(rows [][]string) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// humanSize formats a byte count the way df -h does.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGTPE"[exp])
}
