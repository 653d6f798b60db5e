package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunImportDocument(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("success", func(t *testing.T) {
		_, store := newTestVault(t)
		pageOne := writeTempFile(t, []byte("page one bytes"))
		pageTwo := writeTempFile(t, []byte("page two bytes"))

		var out bytes.Buffer
		err := RunImportDocument(ctx, store, logger, &out, ImportOptions{
			Title:     "Tax Return 2025",
			MimeType:  "image/jpeg",
			PagePaths: []string{pageOne, pageTwo},
			Format:    "text",
		})
		require.NoError(t, err)
		assert.Contains(t, out.String(), `imported "Tax Return 2025" as`)
		assert.Contains(t, out.String(), "2 page(s)")

		docs, err := store.GetAllDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Tax Return 2025", docs[0].Title)

		// The plaintext sources stay where they were; erasing them is the
		// caller's decision.
		_, err = os.Stat(pageOne)
		assert.NoError(t, err)
	})

	t.Run("json-format", func(t *testing.T) {
		_, store := newTestVault(t)
		page := writeTempFile(t, []byte("receipt bytes"))

		var out bytes.Buffer
		err := RunImportDocument(ctx, store, logger, &out, ImportOptions{
			Title:     "Receipt",
			MimeType:  "image/png",
			PagePaths: []string{page},
			Format:    "json",
		})
		require.NoError(t, err)

		var view documentView
		require.NoError(t, json.Unmarshal(out.Bytes(), &view))
		assert.Equal(t, "Receipt", view.Title)
		assert.Equal(t, 1, view.Pages)
		assert.Equal(t, "image/png", view.MimeType)
	})

	t.Run("into-folder-with-tags", func(t *testing.T) {
		_, store := newTestVault(t)
		folder, err := store.CreateFolder(ctx, "Taxes")
		require.NoError(t, err)
		tag, err := store.CreateTag(ctx, "important", "#FF0000")
		require.NoError(t, err)
		page := writeTempFile(t, []byte("w2 bytes"))

		var out bytes.Buffer
		err = RunImportDocument(ctx, store, logger, &out, ImportOptions{
			Title:     "W-2",
			MimeType:  "image/jpeg",
			FolderID:  folder.ID.String(),
			TagIDs:    []string{tag.ID.String()},
			PagePaths: []string{page},
			Format:    "text",
		})
		require.NoError(t, err)

		docs, err := store.GetDocumentsInFolder(ctx, folder.ID)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		require.Len(t, docs[0].Tags, 1)
		assert.Equal(t, "important", docs[0].Tags[0].Name)
	})

	t.Run("no-pages", func(t *testing.T) {
		_, store := newTestVault(t)

		err := RunImportDocument(ctx, store, logger, &bytes.Buffer{}, ImportOptions{
			Title:    "Empty",
			MimeType: "image/jpeg",
			Format:   "text",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one page path is required")
	})

	t.Run("invalid-folder-id", func(t *testing.T) {
		_, store := newTestVault(t)
		page := writeTempFile(t, []byte("bytes"))

		err := RunImportDocument(ctx, store, logger, &bytes.Buffer{}, ImportOptions{
			Title:     "Bad folder",
			MimeType:  "image/jpeg",
			FolderID:  "nope",
			PagePaths: []string{page},
			Format:    "text",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid id")
	})

	t.Run("invalid-format", func(t *testing.T) {
		_, store := newTestVault(t)

		err := RunImportDocument(ctx, store, logger, &bytes.Buffer{}, ImportOptions{
			Title:  "x",
			Format: "yaml",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid format")
	})
}
