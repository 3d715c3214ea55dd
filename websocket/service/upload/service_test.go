package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webterm/storage"
	"webterm/vfs"
	ws "webterm/websocket"
)

type recorder struct {
	mu       sync.Mutex
	messages []*ws.ServiceMessage
}

func (r *recorder) WriteJSON(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, v.(*ws.ServiceMessage))
	return nil
}

func (r *recorder) last(t *testing.T) *ws.ServiceMessage {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.messages)
	return r.messages[len(r.messages)-1]
}

func newService(t *testing.T, opts vfs.Options) (*UploadService, *vfs.FileSystem, *recorder) {
	t.Helper()
	fs := vfs.New(storage.NewMemoryStore(), opts)
	require.NoError(t, fs.Initialize(context.Background()))
	s := NewService(fs, nil)
	conn := &recorder{}
	s.Register(conn)
	return s, fs, conn
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func send(t *testing.T, s *UploadService, conn *recorder, id, action string, payload any) *ws.ServiceMessage {
	t.Helper()
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		data = b
	}
	s.HandleTextMessage(id, action, data)
	msg := conn.last(t)
	assert.Equal(t, action, msg.Action)
	return msg
}

func TestUploadFile(t *testing.T) {
	s, fs, conn := newService(t, vfs.Options{})
	ctx := context.Background()
	const id = "/home/user/uploads"

	msg := send(t, s, conn, id, actionStartSession, nil)
	require.Empty(t, msg.Error)

	msg = send(t, s, conn, id, actionStartFile, map[string]string{"path": id + "/notes/todo.txt"})
	require.Empty(t, msg.Error)
	var started startFileData
	require.NoError(t, json.Unmarshal(msg.Data, &started))
	assert.Equal(t, id+"/notes/todo.txt", started.Path)
	assert.False(t, started.Skip)

	send(t, s, conn, id, actionChunk, map[string]string{"data": "buy "})
	msg = send(t, s, conn, id, actionChunk, map[string]string{"data": "milk"})
	var progress chunkData
	require.NoError(t, json.Unmarshal(msg.Data, &progress))
	assert.Equal(t, 8, progress.Progress)

	msg = send(t, s, conn, id, actionCompleteFile, map[string]string{"digest": digest("buy milk")})
	require.Empty(t, msg.Error)

	content, err := fs.ReadFile(ctx, id+"/notes/todo.txt")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", content)

	msg = send(t, s, conn, id, actionCompleteSession, nil)
	assert.Empty(t, msg.Error)
	_, ok := s.session(id)
	assert.False(t, ok)
}

func TestUploadDigestMismatch(t *testing.T) {
	s, fs, conn := newService(t, vfs.Options{})
	const id = "/home/user/in"

	send(t, s, conn, id, actionStartSession, nil)
	send(t, s, conn, id, actionStartFile, map[string]string{"path": "a.txt"})
	send(t, s, conn, id, actionChunk, map[string]string{"data": "hello"})
	msg := send(t, s, conn, id, actionCompleteFile, map[string]string{"digest": digest("other")})
	assert.Equal(t, errDigest.Error(), msg.Error)

	exists, err := fs.Exists(context.Background(), id+"/a.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUploadPolicies(t *testing.T) {
	s, fs, conn := newService(t, vfs.Options{})
	ctx := context.Background()
	require.NoError(t, fs.CreateDirectory(ctx, "/home/user/photos", false))
	require.NoError(t, fs.WriteFile(ctx, "/home/user/photos/a.txt", "old", false))

	// existing destination needs confirmation
	msg := send(t, s, conn, "/home/user/photos", actionStartSession, nil)
	var d startSessionData
	require.NoError(t, json.Unmarshal(msg.Data, &d))
	assert.True(t, d.NeedConfirm)

	// rename picks a fresh destination
	msg = send(t, s, conn, "/home/user/photos", actionStartSession, map[string]string{"policy": policyRename})
	require.NoError(t, json.Unmarshal(msg.Data, &d))
	assert.Equal(t, "/home/user/photos_1", d.Dest)
	send(t, s, conn, "/home/user/photos", actionCancelSession, nil)

	// skip leaves existing files alone
	send(t, s, conn, "/home/user/photos", actionStartSession, map[string]string{"policy": policySkip})
	msg = send(t, s, conn, "/home/user/photos", actionStartFile, map[string]string{"path": "a.txt"})
	var f startFileData
	require.NoError(t, json.Unmarshal(msg.Data, &f))
	assert.True(t, f.Skip)

	msg = send(t, s, conn, "/home/user/photos", actionStartSession, map[string]string{"policy": "merge"})
	assert.NotEmpty(t, msg.Error)
}

func TestUploadQuota(t *testing.T) {
	s, _, conn := newService(t, vfs.Options{Quota: 4096})
	const id = "/home/user/big"

	send(t, s, conn, id, actionStartSession, nil)
	send(t, s, conn, id, actionStartFile, map[string]string{"path": "big.txt"})
	payload := strings.Repeat("x", 8192)
	send(t, s, conn, id, actionChunk, map[string]string{"data": payload})
	msg := send(t, s, conn, id, actionCompleteFile, map[string]string{"digest": digest(payload)})
	assert.Contains(t, msg.Error, "not enough space")
}

func TestUploadWithoutSession(t *testing.T) {
	s, _, conn := newService(t, vfs.Options{})

	for _, action := range []string{actionStartFile, actionChunk, actionCompleteFile, actionCompleteSession} {
		msg := send(t, s, conn, "/nowhere", action, map[string]string{})
		assert.Equal(t, errNoSession.Error(), msg.Error, action)
	}
}

func TestUploadMkdir(t *testing.T) {
	s, fs, conn := newService(t, vfs.Options{})

	msg := send(t, s, conn, "1", actionMkdir, "/home/user/a/b")
	assert.Empty(t, msg.Error)
	node, err := fs.Stat(context.Background(), "/home/user/a/b")
	require.NoError(t, err)
	assert.Equal(t, vfs.TypeDirectory, node.Type)
}
