package erase

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	apperrors "github.com/scanvault/scanvault/internal/errors"
)

func writeTestFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "victim.enc")
	data := bytes.Repeat([]byte{0xAB}, size)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestEraser_SecureDeleteFile(t *testing.T) {
	t.Run("deletes the file", func(t *testing.T) {
		path := writeTestFile(t, 1000)
		eraser := NewEraser(3, nil)

		result, err := eraser.SecureDeleteFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, StatusDeleted, result.Status)
		assert.Equal(t, path, result.Path)

		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("overwrites contents before deleting", func(t *testing.T) {
		const size = 3*eraseBufferSize + 100
		path := writeTestFile(t, size)
		eraser := NewEraser(3, nil)

		// Hold a read handle across the erase; the unlink removes the
		// directory entry but the handle still sees the final contents.
		file, err := os.Open(path)
		require.NoError(t, err)
		defer file.Close()

		_, err = eraser.SecureDeleteFile(context.Background(), path)
		require.NoError(t, err)

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Len(t, data, size, "overwrite must not change the file size")
		assert.Equal(t, make([]byte, size), data, "every byte should be zeroed")
	})

	t.Run("missing file is a result, not an error", func(t *testing.T) {
		eraser := NewEraser(3, nil)

		result, err := eraser.SecureDeleteFile(context.Background(), filepath.Join(t.TempDir(), "absent.enc"))
		require.NoError(t, err)
		assert.Equal(t, StatusNotFound, result.Status)
	})

	t.Run("directory is rejected", func(t *testing.T) {
		eraser := NewEraser(3, nil)

		result, err := eraser.SecureDeleteFile(context.Background(), t.TempDir())
		require.Error(t, err)
		assert.Equal(t, StatusFailed, result.Status)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("canceled context leaves the file in place", func(t *testing.T) {
		path := writeTestFile(t, 1000)
		eraser := NewEraser(3, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := eraser.SecureDeleteFile(ctx, path)
		require.Error(t, err)
		assert.Equal(t, StatusFailed, result.Status)
		assert.ErrorIs(t, err, context.Canceled)

		_, statErr := os.Stat(path)
		assert.NoError(t, statErr, "an interrupted erase must not delete the file")
	})

	t.Run("honors a rate limiter", func(t *testing.T) {
		path := writeTestFile(t, 2*eraseBufferSize)
		limiter := rate.NewLimiter(rate.Inf, eraseBufferSize)
		eraser := NewEraser(1, limiter)

		result, err := eraser.SecureDeleteFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, StatusDeleted, result.Status)
	})
}

func TestEraser_SecureDeleteFiles(t *testing.T) {
	t.Run("processes every path despite failures", func(t *testing.T) {
		existing := writeTestFile(t, 100)
		missing := filepath.Join(t.TempDir(), "missing.enc")
		directory := t.TempDir()
		trailing := writeTestFile(t, 100)

		eraser := NewEraser(1, nil)
		results, err := eraser.SecureDeleteFiles(context.Background(), []string{existing, missing, directory, trailing})

		require.Len(t, results, 4)
		assert.Equal(t, StatusDeleted, results[0].Status)
		assert.Equal(t, StatusNotFound, results[1].Status)
		assert.Equal(t, StatusFailed, results[2].Status)
		assert.Equal(t, StatusDeleted, results[3].Status, "a failure must not stop later paths")

		assert.ErrorIs(t, err, ErrIncompleteErase)

		_, statErr := os.Stat(existing)
		assert.True(t, os.IsNotExist(statErr))
		_, statErr = os.Stat(trailing)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("clean batch returns no error", func(t *testing.T) {
		first := writeTestFile(t, 100)
		second := writeTestFile(t, 100)

		eraser := NewEraser(1, nil)
		results, err := eraser.SecureDeleteFiles(context.Background(), []string{first, second})

		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, result := range results {
			assert.Equal(t, StatusDeleted, result.Status)
		}
	})

	t.Run("empty batch is fine", func(t *testing.T) {
		eraser := NewEraser(1, nil)
		results, err := eraser.SecureDeleteFiles(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestNewEraser_ClampsPasses(t *testing.T) {
	eraser := NewEraser(0, nil)
	assert.Equal(t, defaultPasses, eraser.passes)

	eraser = NewEraser(7, nil)
	assert.Equal(t, 7, eraser.passes)
}

func TestNewLimiter(t *testing.T) {
	t.Run("zero and negative rates disable the limiter", func(t *testing.T) {
		assert.Nil(t, NewLimiter(0))
		assert.Nil(t, NewLimiter(-100))
	})

	t.Run("burst covers a full overwrite chunk", func(t *testing.T) {
		limiter := NewLimiter(1024)
		require.NotNil(t, limiter)
		assert.GreaterOrEqual(t, limiter.Burst(), eraseBufferSize)
	})

	t.Run("large rates keep their own burst", func(t *testing.T) {
		limiter := NewLimiter(10 << 20)
		require.NotNil(t, limiter)
		assert.Equal(t, 10<<20, limiter.Burst())
	})
}
