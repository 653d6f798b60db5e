package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderCommands(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("create-list-rename-delete", func(t *testing.T) {
		_, store := newTestVault(t)

		var out bytes.Buffer
		require.NoError(t, RunCreateFolder(ctx, store, &out, "Receipts"))
		assert.Contains(t, out.String(), `created folder "Receipts" as`)

		folders, err := store.ListFolders(ctx)
		require.NoError(t, err)
		require.Len(t, folders, 1)
		id := folders[0].ID.String()

		out.Reset()
		require.NoError(t, RunListFolders(ctx, store, &out, "text"))
		assert.Contains(t, out.String(), "Receipts")
		assert.Contains(t, out.String(), "1 folder(s)")

		out.Reset()
		require.NoError(t, RunRenameFolder(ctx, store, &out, id, "Invoices"))
		assert.Contains(t, out.String(), `renamed folder`)

		folders, err = store.ListFolders(ctx)
		require.NoError(t, err)
		require.Len(t, folders, 1)
		assert.Equal(t, "Invoices", folders[0].Name)

		out.Reset()
		require.NoError(t, RunDeleteFolder(ctx, store, &out, id))
		assert.Contains(t, out.String(), "its documents were kept")

		folders, err = store.ListFolders(ctx)
		require.NoError(t, err)
		assert.Empty(t, folders)
	})

	t.Run("blank-name-rejected", func(t *testing.T) {
		_, store := newTestVault(t)

		err := RunCreateFolder(ctx, store, io.Discard, "   ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create folder")
	})

	t.Run("move-document", func(t *testing.T) {
		_, store := newTestVault(t)
		folder, err := store.CreateFolder(ctx, "Taxes")
		require.NoError(t, err)

		page := writeTempFile(t, []byte("bytes"))
		require.NoError(t, RunImportDocument(ctx, store, logger, io.Discard, ImportOptions{
			Title:     "W-2",
			MimeType:  "image/jpeg",
			PagePaths: []string{page},
			Format:    "text",
		}))
		docs, err := store.GetAllDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		id := docs[0].ID.String()

		var out bytes.Buffer
		require.NoError(t, RunMoveDocument(ctx, store, &out, id, folder.ID.String()))
		assert.Contains(t, out.String(), "into folder")

		inFolder, err := store.GetDocumentsInFolder(ctx, folder.ID)
		require.NoError(t, err)
		assert.Len(t, inFolder, 1)

		out.Reset()
		require.NoError(t, RunMoveDocument(ctx, store, &out, id, ""))
		assert.Contains(t, out.String(), "out of its folder")

		inFolder, err = store.GetDocumentsInFolder(ctx, folder.ID)
		require.NoError(t, err)
		assert.Empty(t, inFolder)
	})
}
