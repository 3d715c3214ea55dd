package theme

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"webterm/storage"
)

func newStore(t *testing.T, kv storage.Store) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), kv, zap.NewNop().Sugar())
	require.NoError(t, err)
	return s
}

func TestStoreDefaults(t *testing.T) {
	s := newStore(t, storage.NewMemoryStore())
	assert.Equal(t, DefaultName, s.Current().Name)
	assert.Equal(t, []string{"default", "dracula", "monokai", "nord", "solarized-dark", "gruvbox"}, s.Names())

	for _, th := range s.List() {
		assert.NotEmpty(t, th.Colors.Background, th.Name)
		assert.NotEmpty(t, th.Colors.BrightWhite, th.Name)
	}
}

func TestSetPersists(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()

	s := newStore(t, kv)
	th, err := s.Set(ctx, "nord")
	require.NoError(t, err)
	assert.Equal(t, "Nord", th.DisplayName)

	reloaded := newStore(t, kv)
	assert.Equal(t, "nord", reloaded.Current().Name)
}

func TestSetUnknownKeepsCurrent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemoryStore())
	_, err := s.Set(ctx, "dracula")
	require.NoError(t, err)

	_, err = s.Set(ctx, "doesnotexist")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "doesnotexist")
	assert.Equal(t, "dracula", s.Current().Name)
}

func TestUnknownSavedTheme(t *testing.T) {
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(context.Background(), StateKey, persisted{Current: "gone"}))

	s := newStore(t, kv)
	assert.Equal(t, DefaultName, s.Current().Name)
}

func TestExport(t *testing.T) {
	th, ok := newStore(t, storage.NewMemoryStore()).Get("gruvbox")
	require.True(t, ok)

	out, err := Export(th, "json")
	require.NoError(t, err)
	var fromJSON Theme
	require.NoError(t, json.Unmarshal([]byte(out), &fromJSON))
	assert.Equal(t, th, fromJSON)

	out, err = Export(th, "toml")
	require.NoError(t, err)
	assert.Contains(t, out, "bright_white")
	var fromTOML Theme
	require.NoError(t, toml.Unmarshal([]byte(out), &fromTOML))
	assert.Equal(t, th, fromTOML)

	out, err = Export(th, "yaml")
	require.NoError(t, err)
	var fromYAML Theme
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.Equal(t, th, fromYAML)

	_, err = Export(th, "xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
