package keyvault

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/scanvault/scanvault/internal/crypto/domain"
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

// countingStorage is an in-memory SecureStorage that counts writes, so tests
// can prove how many times a key was generated.
type countingStorage struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newCountingStorage() *countingStorage {
	return &countingStorage{data: make(map[string][]byte)}
}

func (s *countingStorage) Get(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[name]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *countingStorage) Set(name string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	s.data[name] = append([]byte(nil), value...)
	return nil
}

func (s *countingStorage) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

func (s *countingStorage) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *countingStorage) DeleteAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte)
	return nil
}

func (s *countingStorage) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

func newTestVault(t *testing.T) (*KeyVault, *countingStorage) {
	t.Helper()
	storage := newCountingStorage()
	vault, err := NewKeyVault(storage)
	require.NoError(t, err)
	return vault, storage
}

func TestKeyVault_GetOrCreateMasterKey(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a key on first use", func(t *testing.T) {
		vault, storage := newTestVault(t)

		key, err := vault.GetOrCreateMasterKey(ctx)

		require.NoError(t, err)
		assert.Len(t, key, cryptoDomain.KeySize)

		// Stored base64 encoded.
		stored, err := storage.Get("master_key")
		require.NoError(t, err)
		decoded, err := base64.StdEncoding.DecodeString(string(stored))
		require.NoError(t, err)
		assert.Equal(t, key, decoded)
	})

	t.Run("returns the same key on later calls without rewriting", func(t *testing.T) {
		vault, storage := newTestVault(t)

		first, err := vault.GetOrCreateMasterKey(ctx)
		require.NoError(t, err)
		second, err := vault.GetOrCreateMasterKey(ctx)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, storage.setCount())
	})

	t.Run("concurrent first callers share one generation", func(t *testing.T) {
		vault, storage := newTestVault(t)

		const callers = 32
		var (
			start = make(chan struct{})
			wg    sync.WaitGroup
			mu    sync.Mutex
			keys  = make(map[string]struct{})
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				key, err := vault.GetOrCreateMasterKey(context.Background())
				assert.NoError(t, err)
				mu.Lock()
				keys[string(key)] = struct{}{}
				mu.Unlock()
			}()
		}
		close(start)
		wg.Wait()

		assert.Len(t, keys, 1, "every caller must observe the same key")
		assert.Equal(t, 1, storage.setCount(), "exactly one write must occur")
	})

	t.Run("malformed stored key is never overwritten", func(t *testing.T) {
		vault, storage := newTestVault(t)
		require.NoError(t, storage.Set("master_key", []byte("not base64!!")))

		_, err := vault.GetOrCreateMasterKey(ctx)

		assert.ErrorIs(t, err, ErrMasterKeyMalformed)
		stored, getErr := storage.Get("master_key")
		require.NoError(t, getErr)
		assert.Equal(t, []byte("not base64!!"), stored)
	})

	t.Run("wrong size stored key is rejected", func(t *testing.T) {
		vault, storage := newTestVault(t)
		short := base64.StdEncoding.EncodeToString([]byte("too short"))
		require.NoError(t, storage.Set("master_key", []byte(short)))

		_, err := vault.GetOrCreateMasterKey(ctx)

		assert.ErrorIs(t, err, ErrMasterKeyMalformed)
	})
}

func TestKeyVault_HasMasterKey(t *testing.T) {
	ctx := context.Background()
	vault, _ := newTestVault(t)

	has, err := vault.HasMasterKey()
	require.NoError(t, err)
	assert.False(t, has)

	_, err = vault.GetOrCreateMasterKey(ctx)
	require.NoError(t, err)

	has, err = vault.HasMasterKey()
	require.NoError(t, err)
	assert.True(t, has)
}

func TestKeyVault_UserData(t *testing.T) {
	vault, storage := newTestVault(t)

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, vault.StoreUserData("theme", []byte("dark")))

		got, err := vault.GetUserData("theme")

		require.NoError(t, err)
		assert.Equal(t, []byte("dark"), got)
	})

	t.Run("entries are namespaced away from key entries", func(t *testing.T) {
		require.NoError(t, vault.StoreUserData("master_key", []byte("harmless")))

		keys, err := storage.Keys()
		require.NoError(t, err)
		assert.Contains(t, keys, "user.master_key")

		has, err := vault.HasMasterKey()
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := vault.GetUserData("absent")
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, vault.StoreUserData("language", []byte("de")))
		require.NoError(t, vault.DeleteUserData("language"))

		_, err := vault.GetUserData("language")
		assert.ErrorIs(t, err, ErrEntryNotFound)

		assert.NoError(t, vault.DeleteUserData("language"))
	})

	t.Run("empty names are rejected", func(t *testing.T) {
		assert.Error(t, vault.StoreUserData("", []byte("x")))
		_, err := vault.GetUserData("")
		assert.Error(t, err)
		assert.Error(t, vault.DeleteUserData(""))
	})
}

func TestKeyVault_Passcode(t *testing.T) {
	vault, storage := newTestVault(t)

	t.Run("verify before set", func(t *testing.T) {
		_, err := vault.VerifyPasscode("1234")
		assert.ErrorIs(t, err, ErrPasscodeNotSet)
	})

	t.Run("set and verify", func(t *testing.T) {
		require.NoError(t, vault.SetPasscode("1234"))

		ok, err := vault.VerifyPasscode("1234")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = vault.VerifyPasscode("4321")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("passcode is stored hashed", func(t *testing.T) {
		require.NoError(t, vault.SetPasscode("1234"))

		stored, err := storage.Get("passcode_hash")
		require.NoError(t, err)
		assert.NotContains(t, string(stored), "1234")
	})

	t.Run("empty passcode is rejected", func(t *testing.T) {
		err := vault.SetPasscode("")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("short passcode is rejected", func(t *testing.T) {
		err := vault.SetPasscode("123")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("surrounding whitespace is rejected", func(t *testing.T) {
		err := vault.SetPasscode(" 1234 ")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, vault.SetPasscode("1234"))
		require.NoError(t, vault.DeletePasscode())

		has, err := vault.HasPasscode()
		require.NoError(t, err)
		assert.False(t, has)
	})
}

func TestKeyVault_Destructive(t *testing.T) {
	ctx := context.Background()

	t.Run("delete encryption key forces a fresh key", func(t *testing.T) {
		vault, _ := newTestVault(t)

		first, err := vault.GetOrCreateMasterKey(ctx)
		require.NoError(t, err)
		require.NoError(t, vault.DeleteEncryptionKey())

		has, err := vault.HasMasterKey()
		require.NoError(t, err)
		assert.False(t, has)

		second, err := vault.GetOrCreateMasterKey(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("delete all wipes every entry", func(t *testing.T) {
		vault, _ := newTestVault(t)
		_, err := vault.GetOrCreateMasterKey(ctx)
		require.NoError(t, err)
		require.NoError(t, vault.SetPasscode("1234"))
		require.NoError(t, vault.StoreUserData("theme", []byte("dark")))

		require.NoError(t, vault.DeleteAll())

		entries, err := vault.Entries()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
