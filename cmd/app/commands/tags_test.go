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

func TestTagCommands(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("create-list-delete", func(t *testing.T) {
		_, store := newTestVault(t)

		var out bytes.Buffer
		require.NoError(t, RunCreateTag(ctx, store, &out, "urgent", "#FF0000"))
		assert.Contains(t, out.String(), `created tag "urgent" as`)

		out.Reset()
		require.NoError(t, RunListTags(ctx, store, &out, "text"))
		assert.Contains(t, out.String(), "urgent")
		assert.Contains(t, out.String(), "#FF0000")
		assert.Contains(t, out.String(), "1 tag(s)")

		tags, err := store.ListTags(ctx)
		require.NoError(t, err)
		require.Len(t, tags, 1)

		out.Reset()
		require.NoError(t, RunDeleteTag(ctx, store, &out, tags[0].ID.String()))
		assert.Contains(t, out.String(), "deleted tag")

		tags, err = store.ListTags(ctx)
		require.NoError(t, err)
		assert.Empty(t, tags)
	})

	t.Run("duplicate-name", func(t *testing.T) {
		_, store := newTestVault(t)
		require.NoError(t, RunCreateTag(ctx, store, io.Discard, "urgent", ""))

		err := RunCreateTag(ctx, store, io.Discard, "urgent", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tag name already exists")
	})

	t.Run("attach-detach", func(t *testing.T) {
		_, store := newTestVault(t)
		tag, err := store.CreateTag(ctx, "medical", "#00AA00")
		require.NoError(t, err)

		page := writeTempFile(t, []byte("bytes"))
		require.NoError(t, RunImportDocument(ctx, store, logger, io.Discard, ImportOptions{
			Title:     "Prescription",
			MimeType:  "image/jpeg",
			PagePaths: []string{page},
			Format:    "text",
		}))
		docs, err := store.GetAllDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		id := docs[0].ID.String()

		var out bytes.Buffer
		require.NoError(t, RunTagDocument(ctx, store, &out, id, tag.ID.String()))
		assert.Contains(t, out.String(), "tagged")

		tagged, err := store.GetDocumentsByTag(ctx, tag.ID)
		require.NoError(t, err)
		assert.Len(t, tagged, 1)

		out.Reset()
		require.NoError(t, RunUntagDocument(ctx, store, &out, id, tag.ID.String()))
		assert.Contains(t, out.String(), "removed")

		tagged, err = store.GetDocumentsByTag(ctx, tag.ID)
		require.NoError(t, err)
		assert.Empty(t, tagged)
	})
}
