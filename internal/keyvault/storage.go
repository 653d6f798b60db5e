// Package keyvault mediates every access to the secure keystore: the vault
// master key, the optional passcode hash, and namespaced user preference
// entries. No other package reads or writes keystore entries directly.
package keyvault

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	filePermissions os.FileMode = 0o600
	dirPermissions  os.FileMode = 0o700

	entrySuffix = ".entry"
)

// SecureStorage persists small named secrets. Implementations must keep
// entries private to the owning user and survive process restarts.
type SecureStorage interface {
	// Get returns the value stored under name, or ErrEntryNotFound.
	Get(name string) ([]byte, error)

	// Set stores value under name, replacing any previous value.
	Set(name string, value []byte) error

	// Delete removes the entry under name. Deleting an absent entry is not
	// an error.
	Delete(name string) error

	// Keys lists the names of all stored entries.
	Keys() ([]string, error)

	// DeleteAll removes every entry.
	DeleteAll() error
}

// FileStorage implements SecureStorage with one file per entry inside a
// single keystore directory. The directory is created mode 0700 and entry
// files mode 0600, so the keystore is readable only by the owning user.
type FileStorage struct {
	dir string
}

// NewFileStorage creates the keystore directory if needed and returns a
// store rooted there.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// entryPath maps an entry name to its file. Names become filenames via
// base64url, so separators or dots in a name can never escape the keystore
// directory.
func (s *FileStorage) entryPath(name string) string {
	return filepath.Join(s.dir, base64.RawURLEncoding.EncodeToString([]byte(name))+entrySuffix)
}

func (s *FileStorage) Get(name string) ([]byte, error) {
	value, err := os.ReadFile(s.entryPath(name))
	if os.IsNotExist(err) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore entry: %w", err)
	}
	return value, nil
}

// Set writes the entry atomically: the value lands in a temp file that is
// synced and then renamed over the target, so a crash mid-write never
// leaves a truncated entry behind.
func (s *FileStorage) Set(name string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create keystore temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write keystore entry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync keystore entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close keystore entry: %w", err)
	}
	if err := os.Chmod(tmpPath, filePermissions); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set keystore entry permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.entryPath(name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to store keystore entry: %w", err)
	}
	return nil
}

func (s *FileStorage) Delete(name string) error {
	err := os.Remove(s.entryPath(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete keystore entry: %w", err)
	}
	return nil
}

func (s *FileStorage) Keys() ([]string, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list keystore: %w", err)
	}

	names := make([]string, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), entrySuffix) {
			continue
		}
		decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(entry.Name(), entrySuffix))
		if err != nil {
			// Foreign file in the keystore directory, not ours to report.
			continue
		}
		names = append(names, string(decoded))
	}
	return names, nil
}

func (s *FileStorage) DeleteAll() error {
	names, err := s.Keys()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := s.Delete(name); err != nil {
			return err
		}
	}
	return nil
}
