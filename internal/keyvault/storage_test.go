package keyvault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*FileStorage, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "keystore")
	storage, err := NewFileStorage(dir)
	require.NoError(t, err)
	return storage, dir
}

func TestFileStorage_SetGet(t *testing.T) {
	storage, _ := newTestStorage(t)

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, storage.Set("master_key", []byte("value")))

		got, err := storage.Get("master_key")

		require.NoError(t, err)
		assert.Equal(t, []byte("value"), got)
	})

	t.Run("set replaces the previous value", func(t *testing.T) {
		require.NoError(t, storage.Set("entry", []byte("old")))
		require.NoError(t, storage.Set("entry", []byte("new")))

		got, err := storage.Get("entry")

		require.NoError(t, err)
		assert.Equal(t, []byte("new"), got)
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := storage.Get("does-not-exist")
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("hostile entry names stay inside the keystore", func(t *testing.T) {
		name := "../escape/./attempt"
		require.NoError(t, storage.Set(name, []byte("contained")))

		got, err := storage.Get(name)
		require.NoError(t, err)
		assert.Equal(t, []byte("contained"), got)

		keys, err := storage.Keys()
		require.NoError(t, err)
		assert.Contains(t, keys, name)
	})
}

func TestFileStorage_Permissions(t *testing.T) {
	storage, dir := newTestStorage(t)
	require.NoError(t, storage.Set("secret", []byte("value")))

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, dirPermissions, dirInfo.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	fileInfo, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, filePermissions, fileInfo.Mode().Perm())
}

func TestFileStorage_Delete(t *testing.T) {
	storage, _ := newTestStorage(t)

	t.Run("removes the entry", func(t *testing.T) {
		require.NoError(t, storage.Set("entry", []byte("value")))
		require.NoError(t, storage.Delete("entry"))

		_, err := storage.Get("entry")
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("absent entry is a no-op", func(t *testing.T) {
		assert.NoError(t, storage.Delete("never-existed"))
	})
}

func TestFileStorage_Keys(t *testing.T) {
	storage, dir := newTestStorage(t)
	require.NoError(t, storage.Set("master_key", []byte("a")))
	require.NoError(t, storage.Set("user.theme", []byte("b")))

	// Foreign files are not keystore entries.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0o600))

	keys, err := storage.Keys()

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"master_key", "user.theme"}, keys)
}

func TestFileStorage_DeleteAll(t *testing.T) {
	storage, _ := newTestStorage(t)
	require.NoError(t, storage.Set("master_key", []byte("a")))
	require.NoError(t, storage.Set("user.theme", []byte("b")))

	require.NoError(t, storage.DeleteAll())

	keys, err := storage.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}
