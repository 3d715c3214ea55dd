package prefs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"webterm/storage"
)

func newStore(t *testing.T, kv storage.Store) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), kv, zap.NewNop().Sugar())
	require.NoError(t, err)
	return s
}

func TestDefaults(t *testing.T) {
	s := newStore(t, storage.NewMemoryStore())

	v, err := s.Get("terminal", "fontSize")
	require.NoError(t, err)
	assert.Equal(t, float64(14), v)
	assert.Equal(t, "google", s.String("search", "defaultEngine"))
	assert.True(t, s.Bool("appearance", "showClock"))

	_, err = s.Get("terminal", "colour")
	assert.ErrorIs(t, err, ErrUnknownProperty)
	_, err = s.Get("window", "x")
	assert.ErrorIs(t, err, ErrUnknownSection)
}

func TestSetAndReload(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	s := newStore(t, kv)

	_, err := s.Set(ctx, "terminal", "fontSize", "18")
	require.NoError(t, err)
	_, err = s.Set(ctx, "terminal", "cursorBlink", "off")
	require.NoError(t, err)
	_, err = s.Set(ctx, "search", "defaultEngine", "duckduckgo")
	require.NoError(t, err)

	reloaded := newStore(t, kv)
	assert.Equal(t, "18", reloaded.String("terminal", "fontSize"))
	assert.False(t, reloaded.Bool("terminal", "cursorBlink"))
	assert.Equal(t, "duckduckgo", reloaded.String("search", "defaultEngine"))
}

func TestSetValidation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemoryStore())

	tests := []struct {
		section, property, value string
	}{
		{"terminal", "fontSize", "huge"},
		{"terminal", "fontSize", "100"},
		{"terminal", "cursorBlink", "sometimes"},
		{"terminal", "cursorStyle", "triangle"},
		{"search", "defaultEngine", "altavista"},
	}
	for _, tt := range tests {
		t.Run(tt.property+"="+tt.value, func(t *testing.T) {
			_, err := s.Set(ctx, tt.section, tt.property, tt.value)
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}
}

func TestListAndReset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemoryStore())

	all, err := s.List("")
	require.NoError(t, err)
	assert.Len(t, all, 8)

	_, err = s.Set(ctx, "appearance", "showGreeting", "no")
	require.NoError(t, err)
	entries, err := s.List("appearance")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Section: "appearance", Property: "showClock", Value: true},
		{Section: "appearance", Property: "showGreeting", Value: false},
	}, entries)

	require.NoError(t, s.Reset(ctx))
	assert.True(t, s.Bool("appearance", "showGreeting"))

	_, err = s.List("nope")
	assert.ErrorIs(t, err, ErrUnknownSection)
}
