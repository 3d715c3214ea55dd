package args

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// decimalNumber is the accepted number syntax: plain decimal with an
// optional exponent. No hex, underscores, NaN or infinities.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseError describes why a token list does not fit a schema.
type ParseError struct {
	Arg     string
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// Values holds parsed arguments by name.
type Values map[string]any

// Has reports whether name was given or defaulted.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

func (v Values) String(name string) string {
	switch x := v[name].(type) {
	case string:
		return x
	case []string:
		return strings.Join(x, " ")
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func (v Values) Number(name string) float64 {
	f, _ := v[name].(float64)
	return f
}

func (v Values) Int(name string) int {
	return int(v.Number(name))
}

func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

func (v Values) Strings(name string) []string {
	switch x := v[name].(type) {
	case []string:
		return x
	case string:
		return []string{x}
	default:
		return nil
	}
}

var (
	trueWords  = []string{"true", "1", "yes", "on"}
	falseWords = []string{"false", "0", "no", "off"}
)

// Parse matches tokens against schema. Tokens beyond what the schema takes
// are ignored.
func Parse(tokens []string, schema Schema) (Values, error) {
	values := Values{}
	if err := parseInto(values, tokens, schema); err != nil {
		return nil, err
	}
	return values, nil
}

func parseInto(values Values, tokens []string, schema Schema) error {
	for i, s := range schema {
		switch s := s.(type) {
		case Branch:
			if len(tokens) == 0 {
				if s.Required {
					return &ParseError{Arg: s.Name, Message: fmt.Sprintf("Missing subcommand. Valid subcommands: %s", strings.Join(s.Names(), ", "))}
				}
				return nil
			}
			sub, ok := s.Find(tokens[0])
			if !ok {
				return &ParseError{Arg: s.Name, Message: fmt.Sprintf("Unknown subcommand '%s'. Valid subcommands: %s", tokens[0], strings.Join(s.Names(), ", "))}
			}
			values[s.Name] = sub.Name
			return parseInto(values, tokens[1:], sub.Args)

		case Arg:
			if len(tokens) == 0 {
				if s.Required {
					return &ParseError{Arg: s.Name, Message: fmt.Sprintf("Missing required argument: %s", s.Name)}
				}
				if s.Default != nil {
					values[s.Name] = s.Default
				}
				continue
			}

			last := i == len(schema)-1
			switch {
			case last && s.Kind == Enum:
				list := make([]string, 0, len(tokens))
				for _, tok := range tokens {
					if err := checkChoice(s, tok); err != nil {
						return err
					}
					list = append(list, tok)
				}
				values[s.Name] = list
				tokens = nil
				continue
			case last && s.Kind == String:
				tokens = []string{strings.Join(tokens, " ")}
			}

			v, err := coerce(s, tokens[0])
			if err != nil {
				return err
			}
			values[s.Name] = v
			tokens = tokens[1:]
		}
	}
	return nil
}

func checkChoice(a Arg, value string) error {
	if len(a.Choices) == 0 || slices.Contains(a.Choices, value) {
		return nil
	}
	return &ParseError{Arg: a.Name, Message: fmt.Sprintf("Invalid value '%s' for %s. Valid choices: %s", value, a.Name, strings.Join(a.Choices, ", "))}
}

func coerce(a Arg, raw string) (any, error) {
	if err := checkChoice(a, raw); err != nil {
		return nil, err
	}

	switch a.Kind {
	case Number:
		if !decimalNumber.MatchString(raw) {
			return nil, &ParseError{Arg: a.Name, Message: fmt.Sprintf("Argument '%s' must be a number, got '%s'", a.Name, raw)}
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsInf(f, 0) {
			return nil, &ParseError{Arg: a.Name, Message: fmt.Sprintf("Argument '%s' must be a number, got '%s'", a.Name, raw)}
		}
		return f, nil
	case Boolean:
		return ParseBool(a.Name, raw)
	case URL:
		return NormalizeURL(a.Name, raw)
	default:
		return raw, nil
	}
}

// ParseBool accepts true/1/yes/on and false/0/no/off, case-insensitively.
func ParseBool(name, raw string) (bool, error) {
	lower := strings.ToLower(raw)
	switch {
	case slices.Contains(trueWords, lower):
		return true, nil
	case slices.Contains(falseWords, lower):
		return false, nil
	}
	return false, &ParseError{Arg: name, Message: fmt.Sprintf("Argument '%s' must be a boolean (true/false, yes/no, on/off, 1/0), got '%s'", name, raw)}
}

// NormalizeURL adds https:// when raw has no scheme and checks that the
// result has a host.
func NormalizeURL(name, raw string) (string, error) {
	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return "", &ParseError{Arg: name, Message: fmt.Sprintf("Argument '%s' must be a valid URL, got '%s'", name, raw)}
	}
	return u.String(), nil
}
