package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"light-chat/chat"
)

func openBackends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := Open(BackendSQLite, filepath.Join(dir, "sqlite", "chat.db"))
	require.NoError(t, err)
	bolt, err := Open(BackendBolt, filepath.Join(dir, "bolt", "chat.bolt"))
	require.NoError(t, err)
	file, err := Open(BackendFile, filepath.Join(dir, "files"))
	require.NoError(t, err)
	memory, err := Open(BackendMemory, "")
	require.NoError(t, err)

	backends := map[string]Backend{
		BackendSQLite: sqlite,
		BackendBolt:   bolt,
		BackendFile:   file,
		BackendMemory: memory,
	}
	t.Cleanup(func() {
		for _, b := range backends {
			_ = b.Close()
		}
	})
	return backends
}

func TestBackends_RoundTrip(t *testing.T) {
	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			v, err := backend.Get("missing")
			require.NoError(t, err)
			assert.Nil(t, v)

			require.NoError(t, backend.Put("chat-conversations", []byte(`[{"id":"a"}]`)))
			v, err = backend.Get("chat-conversations")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"a"}]`, string(v))

			require.NoError(t, backend.Put("chat-conversations", []byte(`[]`)))
			v, err = backend.Get("chat-conversations")
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(v))

			require.NoError(t, backend.Delete("chat-conversations"))
			v, err = backend.Get("chat-conversations")
			require.NoError(t, err)
			assert.Nil(t, v)

			require.NoError(t, backend.Delete("never-written"))
		})
	}
}

func TestBackends_Stats(t *testing.T) {
	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, backend.Put("a", []byte("12345")))
			require.NoError(t, backend.Put("isLoggedIn", []byte("true")))

			stats, err := backend.GetStats()
			require.NoError(t, err)
			assert.Equal(t, name, stats.Backend)
			assert.Equal(t, int64(2), stats.SlotCount)
			assert.Equal(t, int64(9), stats.ValueBytes)
		})
	}
}

func TestBackends_ClosedIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	bolt, err := NewBolt(filepath.Join(dir, "x.bolt"))
	require.NoError(t, err)
	file, err := NewFileStore(filepath.Join(dir, "files"))
	require.NoError(t, err)

	for name, backend := range map[string]Backend{BackendBolt: bolt, BackendFile: file, BackendMemory: NewMemory()} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, backend.Close())
			_, err := backend.Get("k")
			assert.True(t, errors.Is(err, chat.ErrSlotUnavailable), "got %v", err)
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("redis", "")
	require.Error(t, err)
}

func TestOpen_FileBackendUsesDBPathDir(t *testing.T) {
	dir := t.TempDir()
	backend, err := Open(BackendFile, filepath.Join(dir, "chat.db"))
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.Put("chat-conversations", []byte(`[]`)))
	assert.FileExists(t, filepath.Join(dir, "chat-conversations.json"))
	assert.NoDirExists(t, filepath.Join(dir, "chat.db"))

	slots := filepath.Join(dir, "slots")
	other, err := Open(BackendFile, slots)
	require.NoError(t, err)
	defer other.Close()
	assert.DirExists(t, slots)
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Put("chat-conversations", []byte(`[1]`)))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	v, err := second.Get("chat-conversations")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(v))
	assert.FileExists(t, filepath.Join(dir, "chat-conversations.json"))
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	first, err := New(path)
	require.NoError(t, err)
	require.NoError(t, first.Put("k", []byte("v")))
	require.NoError(t, first.Close())

	second, err := New(path)
	require.NoError(t, err)
	defer second.Close()
	v, err := second.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))
	require.NoError(t, second.Vacuum())
}

func TestKeySlot_BacksConversationStore(t *testing.T) {
	backend := NewMemory()
	store := chat.NewStore(SlotFor(backend, chat.ConversationsKey))

	conv, err := store.Create(chat.NewMessage(chat.RoleUser, "Hello", time.Now()))
	require.NoError(t, err)

	raw, err := backend.Get(chat.ConversationsKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), conv.ID)

	require.NoError(t, backend.Close())
	conversations, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, conversations)
}

func TestKeySlot_NilBackend(t *testing.T) {
	slot := SlotFor(nil, "k")
	_, err := slot.Load()
	assert.ErrorIs(t, err, chat.ErrSlotUnavailable)
	assert.ErrorIs(t, slot.Save([]byte("x")), chat.ErrSlotUnavailable)
	assert.Equal(t, "k", slot.Key())
}
