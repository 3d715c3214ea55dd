// Package theme holds the colour schemes of the terminal and remembers
// which one is active.
package theme

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"webterm/storage"
)

const StateKey = "terminal_theme"

var (
	ErrNotFound      = errors.New("theme not found")
	ErrUnknownFormat = errors.New("unknown export format")
)

// Formats lists the accepted Export formats.
var Formats = []string{"json", "toml", "yaml"}

type Colors struct {
	Background    string `json:"background" toml:"background" yaml:"background"`
	Foreground    string `json:"foreground" toml:"foreground" yaml:"foreground"`
	Cursor        string `json:"cursor" toml:"cursor" yaml:"cursor"`
	Selection     string `json:"selection" toml:"selection" yaml:"selection"`
	Black         string `json:"black" toml:"black" yaml:"black"`
	Red           string `json:"red" toml:"red" yaml:"red"`
	Green         string `json:"green" toml:"green" yaml:"green"`
	Yellow        string `json:"yellow" toml:"yellow" yaml:"yellow"`
	Blue          string `json:"blue" toml:"blue" yaml:"blue"`
	Magenta       string `json:"magenta" toml:"magenta" yaml:"magenta"`
	Cyan          string `json:"cyan" toml:"cyan" yaml:"cyan"`
	White         string `json:"white" toml:"white" yaml:"white"`
	BrightBlack   string `json:"brightBlack" toml:"bright_black" yaml:"brightBlack"`
	BrightRed     string `json:"brightRed" toml:"bright_red" yaml:"brightRed"`
	BrightGreen   string `json:"brightGreen" toml:"bright_green" yaml:"brightGreen"`
	BrightYellow  string `json:"brightYellow" toml:"bright_yellow" yaml:"brightYellow"`
	BrightBlue    string `json:"brightBlue" toml:"bright_blue" yaml:"brightBlue"`
	BrightMagenta string `json:"brightMagenta" toml:"bright_magenta" yaml:"brightMagenta"`
	BrightCyan    string `json:"brightCyan" toml:"bright_cyan" yaml:"brightCyan"`
	BrightWhite   string `json:"brightWhite" toml:"bright_white" yaml:"brightWhite"`
}

type Theme struct {
	Name        string `json:"name" toml:"name" yaml:"name"`
	DisplayName string `json:"displayName" toml:"display_name" yaml:"displayName"`
	Colors      Colors `json:"colors" toml:"colors" yaml:"colors"`
}

type persisted struct {
	Current string `json:"current"`
}

// Store knows every theme and the active one. The active name is persisted
// in a storage.Store.
type Store struct {
	mu      sync.RWMutex
	kv      storage.Store
	themes  []Theme
	current string
	log     *zap.SugaredLogger
}

// NewStore loads the active theme from kv, falling back to the default
// preset when nothing (or an unknown name) was saved.
func NewStore(ctx context.Context, kv storage.Store, log *zap.SugaredLogger) (*Store, error) {
	s := &Store{
		kv:      kv,
		themes:  slices.Clone(presets),
		current: DefaultName,
		log:     log,
	}

	var saved persisted
	switch err := kv.Get(ctx, StateKey, &saved); {
	case storage.IsNotFound(err):
	case err != nil:
		return nil, fmt.Errorf("load theme: %w", err)
	case s.find(saved.Current) >= 0:
		s.current = saved.Current
	default:
		log.Warnf("saved theme %q does not exist, using %s", saved.Current, DefaultName)
	}
	return s, nil
}

func (s *Store) find(name string) int {
	return slices.IndexFunc(s.themes, func(t Theme) bool { return t.Name == name })
}

func (s *Store) List() []Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.themes)
}

func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.themes))
	for i, t := range s.themes {
		names[i] = t.Name
	}
	return names
}

func (s *Store) Get(name string) (Theme, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.find(name); i >= 0 {
		return s.themes[i], true
	}
	return Theme{}, false
}

func (s *Store) Current() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.themes[s.find(s.current)]
}

// Set activates the named theme. An unknown name leaves the active theme
// unchanged.
func (s *Store) Set(ctx context.Context, name string) (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(name)
	if i < 0 {
		return Theme{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err := s.kv.Set(ctx, StateKey, persisted{Current: name}); err != nil {
		return Theme{}, fmt.Errorf("save theme: %w", err)
	}
	s.current = name
	s.log.Debugf("theme changed to %s", name)
	return s.themes[i], nil
}

// Export renders t as json, toml or yaml.
func Export(t Theme, format string) (string, error) {
	var (
		out []byte
		err error
	)
	switch format {
	case "json", "":
		out, err = json.MarshalIndent(t, "", "  ")
	case "toml":
		out, err = toml.Marshal(t)
	case "yaml", "yml":
		out, err = yaml.Marshal(t)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	if err != nil {
		return "", fmt.Errorf("export theme %s as %s: %w", t.Name, format, err)
	}
	return string(out), nil
}
