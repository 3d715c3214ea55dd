package complete

import (
	"strings"
	"unicode"

	"webterm/args"
	"webterm/command"
)

// Context is the parsed view of the input line up to the cursor.
type Context struct {
	// Input is the text before the cursor.
	Input string `json:"input"`
	// Command is the first token, possibly still being typed.
	Command string `json:"command"`
	// Args are the argument tokens. The last one is Current.
	Args []string `json:"args"`
	// Current is the token under the cursor, empty after a trailing space.
	Current string `json:"current"`
	// ArgIndex is the index of Current in Args, -1 in command position.
	ArgIndex  int  `json:"argIndex"`
	IsCommand bool `json:"isCommand"`

	// Spec is the registered command named by Command, when there is one.
	Spec *command.Spec `json:"-"`
	// Slot is the argument spec governing Current, when Spec knows one.
	Slot args.Spec `json:"-"`
}

// Previous returns the completed argument tokens before Current.
func (c *Context) Previous() []string {
	if c.ArgIndex <= 0 {
		return nil
	}
	return c.Args[:c.ArgIndex]
}

// SlotArg returns Slot as an Arg.
func (c *Context) SlotArg() (args.Arg, bool) {
	a, ok := c.Slot.(args.Arg)
	return a, ok
}

// CommandIs reports whether the resolved command is name.
func (c *Context) CommandIs(name string) bool {
	return c.Spec != nil && c.Spec.Name == name
}

// ParseContext splits input at cursor, a rune offset. Out of range offsets
// mean the end of input.
func ParseContext(input string, cursor int) *Context {
	runes := []rune(input)
	if cursor < 0 || cursor > len(runes) {
		cursor = len(runes)
	}
	text := string(runes[:cursor])
	tokens := strings.Fields(text)
	trailing := text != "" && unicode.IsSpace(runes[cursor-1])

	ctx := &Context{Input: text, ArgIndex: -1}
	switch {
	case len(tokens) == 0:
		ctx.IsCommand = true
	case len(tokens) == 1 && !trailing:
		ctx.IsCommand = true
		ctx.Command = tokens[0]
		ctx.Current = tokens[0]
	default:
		ctx.Command = tokens[0]
		ctx.Args = tokens[1:]
		if trailing {
			ctx.Args = append(ctx.Args, "")
		}
		ctx.ArgIndex = len(ctx.Args) - 1
		ctx.Current = ctx.Args[ctx.ArgIndex]
	}
	return ctx
}

// WordBounds returns the rune offsets of the word around cursor, the span a
// chosen completion replaces.
func WordBounds(input string, cursor int) (start, end int) {
	runes := []rune(input)
	if cursor < 0 || cursor > len(runes) {
		cursor = len(runes)
	}
	start, end = cursor, cursor
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	for end < len(runes) && !unicode.IsSpace(runes[end]) {
		end++
	}
	return start, end
}

// CommonPrefix returns the longest prefix shared by every value, compared
// case-insensitively and spelled as in the first value.
func CommonPrefix(values []string) string {
	if len(values) == 0 {
		return ""
	}
	first := []rune(values[0])
	n := len(first)
	for _, v := range values[1:] {
		r := []rune(v)
		i := 0
		for i < n && i < len(r) && unicode.ToLower(first[i]) == unicode.ToLower(r[i]) {
			i++
		}
		n = i
	}
	return string(first[:n])
}
