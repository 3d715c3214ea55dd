// Package args parses the tokens of a command line into named, typed values
// according to a per-command schema.
package args

// Kind is the declared type of an argument.
type Kind string

const (
	String  Kind = "string"
	Number  Kind = "number"
	Boolean Kind = "boolean"
	URL     Kind = "url"
	File    Kind = "file"
	Theme   Kind = "theme"
	Format  Kind = "format"
	// Enum values must be one of Choices. A trailing Enum collects every
	// remaining token.
	Enum Kind = "enum"
)

// Spec is one entry of a schema: either an Arg or a Branch.
type Spec interface {
	SpecName() string
	spec()
}

// Schema is the ordered argument list of a command or subcommand.
type Schema []Spec

// Arg consumes one token (or, in trailing position, the rest of the line)
// and stores it under Name after coercion to Kind. Default must already
// have the Go type Kind coerces to.
type Arg struct {
	Name        string
	Kind        Kind
	Description string
	Required    bool
	Default     any
	Choices     []string
}

func (a Arg) SpecName() string { return a.Name }
func (Arg) spec()              {}

// Branch selects a Subcommand by the exact value of the next token and
// continues with that subcommand's schema. The chosen name is stored under
// Name. A Branch is always the last entry of its schema.
type Branch struct {
	Name        string
	Description string
	Required    bool
	Subcommands []Subcommand
}

func (b Branch) SpecName() string { return b.Name }
func (Branch) spec()              {}

// Names returns the subcommand names in declaration order.
func (b Branch) Names() []string {
	names := make([]string, len(b.Subcommands))
	for i, s := range b.Subcommands {
		names[i] = s.Name
	}
	return names
}

// Find returns the subcommand called name.
func (b Branch) Find(name string) (Subcommand, bool) {
	for _, s := range b.Subcommands {
		if s.Name == name {
			return s, true
		}
	}
	return Subcommand{}, false
}

// Subcommand is one alternative of a Branch.
type Subcommand struct {
	Name        string
	Description string
	Args        Schema
}

// Resolve returns the spec that governs the token following the already
// complete tokens, or nil when the schema takes no further tokens.
func Resolve(schema Schema, tokens []string) Spec {
	for i, s := range schema {
		switch s := s.(type) {
		case Branch:
			if len(tokens) == 0 {
				return s
			}
			sub, ok := s.Find(tokens[0])
			if !ok {
				return nil
			}
			return Resolve(sub.Args, tokens[1:])
		case Arg:
			if len(tokens) == 0 || (i == len(schema)-1 && greedy(s)) {
				return s
			}
			tokens = tokens[1:]
		}
	}
	return nil
}

// greedy reports whether a trailing arg swallows the rest of the line.
func greedy(a Arg) bool {
	return a.Kind == String || a.Kind == Enum
}
