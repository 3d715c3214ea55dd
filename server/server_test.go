package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerStartAndShutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})
	s := New(0, handler, nil)

	finish, err := s.Start()
	require.NoError(t, err)

	_, port, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)
	resp, err := http.Get("http://127.0.0.1:" + port)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	require.NoError(t, s.Shutdown(context.Background()))
	select {
	case err := <-finish:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerRunStopsOnCancel(t *testing.T) {
	s := New(0, http.NotFoundHandler(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestServerListenError(t *testing.T) {
	first := New(0, http.NotFoundHandler(), nil)
	_, err := first.Start()
	require.NoError(t, err)
	defer first.Shutdown(context.Background())

	second := New(0, http.NotFoundHandler(), nil)
	second.http.Addr = first.Addr()
	_, err = second.Start()
	assert.Error(t, err)
}
