package suggest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "go channels", r.URL.Query().Get("q"))
		w.Write([]byte(`["go channels",["go channels","go channels tutorial","go channels select","go channels buffered","go channels close","go channels range"]]`))
	})

	c := NewClient(srv.URL+"/complete?q=", time.Second, zap.NewNop().Sugar())
	list, err := c.Fetch(context.Background(), "go channels")
	require.NoError(t, err)
	assert.Len(t, list, MaxSuggestions)
	assert.Equal(t, "go channels tutorial", list[1])
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) }},
		{"not json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`<html>`)) }},
		{"short array", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`["q"]`)) }},
		{"wrong element", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`["q", 3]`)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.handler)
			c := NewClient(srv.URL+"/?q=", time.Second, zap.NewNop().Sugar())
			_, err := c.Fetch(context.Background(), "q")
			assert.Error(t, err)
		})
	}
}

func TestSuggestFallsBackOnTimeout(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})

	c := NewClient(srv.URL+"/?q=", 50*time.Millisecond, zap.NewNop().Sugar())
	list := c.Suggest(context.Background(), "golang")
	assert.Equal(t, Fallback("golang"), list)
	assert.NotEmpty(t, list)
}

func TestSuggestWithoutLogger(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.handler)
			c := NewClient(srv.URL+"/?q=", time.Second, nil)

			var list []string
			assert.NotPanics(t, func() { list = c.Suggest(context.Background(), "golang") })
			assert.Equal(t, Fallback("golang"), list)
		})
	}
}

func TestFallback(t *testing.T) {
	assert.Nil(t, Fallback("   "))

	list := Fallback("weather")
	assert.LessOrEqual(t, len(list), MaxSuggestions)
	assert.Contains(t, list, "weather today")
	assert.NotContains(t, list, "weather")

	list = Fallback("rust lifetimes")
	assert.Equal(t, "rust lifetimes tutorial", list[0])
}
