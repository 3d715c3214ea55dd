// Package prefs stores the user's terminal preferences as typed
// section/property pairs.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"webterm/args"
	"webterm/search"
	"webterm/storage"
)

const StateKey = "terminal_config"

var (
	ErrUnknownSection  = errors.New("unknown config section")
	ErrUnknownProperty = errors.New("unknown config property")
	ErrInvalidValue    = errors.New("invalid config value")
)

type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "boolean"
	KindEnum   Kind = "enum"
)

type Property struct {
	Name        string
	Kind        Kind
	Description string
	Default     any
	Choices     []string
	Min, Max    float64
}

type Section struct {
	Name        string
	Description string
	Properties  []Property
}

func (s Section) Property(name string) (Property, bool) {
	i := slices.IndexFunc(s.Properties, func(p Property) bool { return p.Name == name })
	if i < 0 {
		return Property{}, false
	}
	return s.Properties[i], true
}

var sections = []Section{
	{
		Name:        "terminal",
		Description: "Terminal look and feel",
		Properties: []Property{
			{Name: "fontSize", Kind: KindNumber, Description: "Font size in pixels", Default: float64(14), Min: 8, Max: 32},
			{Name: "fontFamily", Kind: KindString, Description: "CSS font family", Default: "JetBrains Mono, monospace"},
			{Name: "cursorBlink", Kind: KindBool, Description: "Blink the cursor", Default: true},
			{Name: "cursorStyle", Kind: KindEnum, Description: "Cursor shape", Default: "block", Choices: []string{"block", "underline", "bar"}},
		},
	},
	{
		Name:        "search",
		Description: "Web search behaviour",
		Properties: []Property{
			{Name: "defaultEngine", Kind: KindEnum, Description: "Engine used for free text", Default: search.DefaultEngine, Choices: search.Names()},
			{Name: "openInNewTab", Kind: KindBool, Description: "Open results in a new tab", Default: false},
		},
	},
	{
		Name:        "appearance",
		Description: "New tab page widgets",
		Properties: []Property{
			{Name: "showClock", Kind: KindBool, Description: "Show the clock", Default: true},
			{Name: "showGreeting", Kind: KindBool, Description: "Show the greeting banner", Default: true},
		},
	},
}

// Sections returns the schema of every section.
func Sections() []Section {
	return slices.Clone(sections)
}

func SectionNames() []string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name
	}
	return names
}

func LookupSection(name string) (Section, bool) {
	i := slices.IndexFunc(sections, func(s Section) bool { return s.Name == name })
	if i < 0 {
		return Section{}, false
	}
	return sections[i], true
}

func lookup(section, property string) (Property, error) {
	sec, ok := LookupSection(section)
	if !ok {
		return Property{}, fmt.Errorf("%w '%s', valid sections: %s", ErrUnknownSection, section, strings.Join(SectionNames(), ", "))
	}
	prop, ok := sec.Property(property)
	if !ok {
		names := make([]string, len(sec.Properties))
		for i, p := range sec.Properties {
			names[i] = p.Name
		}
		return Property{}, fmt.Errorf("%w '%s.%s', valid properties: %s", ErrUnknownProperty, section, property, strings.Join(names, ", "))
	}
	return prop, nil
}

// Entry is one resolved property value.
type Entry struct {
	Section  string
	Property string
	Value    any
}

// Store keeps the overridden values; properties never set read as their
// default.
type Store struct {
	mu     sync.RWMutex
	kv     storage.Store
	values map[string]map[string]any
	log    *zap.SugaredLogger
}

func NewStore(ctx context.Context, kv storage.Store, log *zap.SugaredLogger) (*Store, error) {
	s := &Store{kv: kv, values: map[string]map[string]any{}, log: log}

	var saved map[string]map[string]any
	err := kv.Get(ctx, StateKey, &saved)
	if err != nil && !storage.IsNotFound(err) {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	for section, props := range saved {
		for name, v := range props {
			prop, err := lookup(section, name)
			if err != nil {
				log.Warnf("dropping saved preference: %v", err)
				continue
			}
			if _, err := convert(prop, fmt.Sprint(v)); err != nil {
				log.Warnf("dropping saved preference %s.%s: %v", section, name, err)
				continue
			}
			s.setLocked(section, name, v)
		}
	}
	return s, nil
}

func (s *Store) setLocked(section, name string, v any) {
	if s.values[section] == nil {
		s.values[section] = map[string]any{}
	}
	s.values[section][name] = v
}

func (s *Store) Get(section, property string) (any, error) {
	prop, err := lookup(section, property)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[section][property]; ok {
		return v, nil
	}
	return prop.Default, nil
}

// String returns a property formatted for display, or "" when unknown.
func (s *Store) String(section, property string) string {
	v, err := s.Get(section, property)
	if err != nil {
		return ""
	}
	return Format(v)
}

func (s *Store) Bool(section, property string) bool {
	v, _ := s.Get(section, property)
	b, _ := v.(bool)
	return b
}

// List returns every property of section (all sections when empty) in
// schema order.
func (s *Store) List(section string) ([]Entry, error) {
	secs := sections
	if section != "" {
		sec, ok := LookupSection(section)
		if !ok {
			return nil, fmt.Errorf("%w '%s', valid sections: %s", ErrUnknownSection, section, strings.Join(SectionNames(), ", "))
		}
		secs = []Section{sec}
	}

	var out []Entry
	for _, sec := range secs {
		for _, p := range sec.Properties {
			v, _ := s.Get(sec.Name, p.Name)
			out = append(out, Entry{Section: sec.Name, Property: p.Name, Value: v})
		}
	}
	return out, nil
}

// Set parses raw according to the property kind and persists it.
func (s *Store) Set(ctx context.Context, section, property, raw string) (any, error) {
	prop, err := lookup(section, property)
	if err != nil {
		return nil, err
	}
	v, err := convert(prop, raw)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(section, property, v)
	if err := s.kv.Set(ctx, StateKey, s.values); err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}
	return v, nil
}

// Reset drops every override.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Remove(ctx, StateKey); err != nil {
		return fmt.Errorf("reset preferences: %w", err)
	}
	s.values = map[string]map[string]any{}
	return nil
}

func convert(p Property, raw string) (any, error) {
	switch p.Kind {
	case KindNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidValue, p.Name)
		}
		if f < p.Min || (p.Max > 0 && f > p.Max) {
			return nil, fmt.Errorf("%w: %s must be between %s and %s", ErrInvalidValue, p.Name, Format(p.Min), Format(p.Max))
		}
		return f, nil
	case KindBool:
		b, err := args.ParseBool(p.Name, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidValue, err)
		}
		return b, nil
	case KindEnum:
		if !slices.Contains(p.Choices, raw) {
			return nil, fmt.Errorf("%w: %s must be one of %s", ErrInvalidValue, p.Name, strings.Join(p.Choices, ", "))
		}
		return raw, nil
	default:
		return raw, nil
	}
}

// Format renders a preference value the way the terminal prints it.
func Format(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
