package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_Paths(t *testing.T) {
	layout := NewLayout("/data/vault")

	assert.Equal(t, "/data/vault/documents", layout.DocumentsDir())
	assert.Equal(t, "/data/vault/thumbnails", layout.ThumbnailsDir())
	assert.Equal(t, "/data/vault/signatures", layout.SignaturesDir())
	assert.Equal(t, "/data/vault/tmp", layout.TempDir())
	assert.Equal(t, "/data/vault/documents/doc-1_page_3.enc", layout.PagePath("doc-1", 3))
	assert.Equal(t, "/data/vault/thumbnails/doc-1.enc", layout.ThumbnailPath("doc-1"))
	assert.Equal(t, "/data/vault/signatures/sig-1.enc", layout.SignaturePath("sig-1"))
}

func TestLayout_TempFile(t *testing.T) {
	layout := NewLayout("/data/vault")

	first := layout.TempFile("jpg")
	second := layout.TempFile("jpg")

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "/data/vault/tmp/"))
	assert.True(t, strings.HasSuffix(first, ".jpg"))

	bare := layout.TempFile("")
	assert.True(t, strings.HasSuffix(bare, ".tmp"))

	dotted := layout.TempFile(".png")
	assert.True(t, strings.HasSuffix(dotted, ".png"))
	assert.False(t, strings.Contains(filepath.Base(dotted), ".."))
}

func TestLayout_EnsureDirs(t *testing.T) {
	layout := NewLayout(filepath.Join(t.TempDir(), "vault"))

	require.NoError(t, layout.EnsureDirs())

	for _, dir := range []string{layout.DocumentsDir(), layout.ThumbnailsDir(), layout.SignaturesDir(), layout.TempDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}

	// Idempotent.
	assert.NoError(t, layout.EnsureDirs())
}

func TestDirSize(t *testing.T) {
	t.Run("sums nested files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), make([]byte, 100), 0o600))
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o700))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.bin"), make([]byte, 50), 0o600))

		size, err := DirSize(dir)

		require.NoError(t, err)
		assert.Equal(t, int64(150), size)
	})

	t.Run("missing directory counts as empty", func(t *testing.T) {
		size, err := DirSize(filepath.Join(t.TempDir(), "never-created"))

		require.NoError(t, err)
		assert.Equal(t, int64(0), size)
	})
}
