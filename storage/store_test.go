package storage

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newSFTPStore(t *testing.T) *SFTPStore {
	t.Helper()

	serverConn, clientConn := net.Pipe()
	server := sftp.NewRequestServer(serverConn, sftp.InMemHandler())
	go server.Serve()
	t.Cleanup(func() { server.Close() })

	client, err := sftp.NewClientPipe(clientConn, clientConn)
	require.NoError(t, err)

	store, err := NewSFTPStore(client, nil, "/kv", zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStores(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"bolt": func(t *testing.T) Store {
			s, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"sftp": func(t *testing.T) Store { return newSFTPStore(t) },
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			var got record
			err := s.Get(ctx, "missing", &got)
			assert.True(t, IsNotFound(err))

			require.NoError(t, s.Set(ctx, "file_content_1", record{Name: "a", Count: 1}))
			require.NoError(t, s.Set(ctx, "file_content_2", record{Name: "b", Count: 2}))
			require.NoError(t, s.Set(ctx, "terminal_filesystem", record{Name: "fs"}))

			require.NoError(t, s.Get(ctx, "file_content_2", &got))
			assert.Equal(t, record{Name: "b", Count: 2}, got)

			// overwrite
			require.NoError(t, s.Set(ctx, "file_content_2", record{Name: "b", Count: 3}))
			require.NoError(t, s.Get(ctx, "file_content_2", &got))
			assert.Equal(t, 3, got.Count)

			keys, err := s.Keys(ctx, "file_content_")
			require.NoError(t, err)
			assert.Equal(t, []string{"file_content_1", "file_content_2"}, keys)

			require.NoError(t, s.Remove(ctx, "file_content_1"))
			require.NoError(t, s.Remove(ctx, "file_content_1"), "removing an absent key is not an error")
			assert.True(t, IsNotFound(s.Get(ctx, "file_content_1", &got)))
		})
	}
}

func TestBoltStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	var v string
	require.NoError(t, s.Get(ctx, "k", &v))
	assert.Equal(t, "v", v)
}

func TestOpen(t *testing.T) {
	log := zap.NewNop().Sugar()

	s, err := Open(Config{Backend: BackendMemory}, log)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(Config{Backend: "floppy"}, log)
	assert.Error(t, err)
}
