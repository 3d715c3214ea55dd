package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	e, ok := Lookup("GitHub")
	require.True(t, ok)
	assert.Equal(t, "https://github.com/search?q=go+generics", e.URL(" go generics "))

	_, ok = Lookup("altavista")
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Contains(t, names, DefaultEngine)
	assert.Len(t, names, 7)
}
