package usecase

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanvault/scanvault/internal/cache"
	cryptoService "github.com/scanvault/scanvault/internal/crypto/service"
	"github.com/scanvault/scanvault/internal/database"
	"github.com/scanvault/scanvault/internal/document/repository"
	"github.com/scanvault/scanvault/internal/erase"
	"github.com/scanvault/scanvault/internal/storage"
)

// listedColumns mirrors the documents projection the repository lists with.
var listedColumns = []string{
	"id", "title", "description", "thumbnail_path", "ocr_text", "ocr_status",
	"size_bytes", "mime_type", "folder_id", "is_favorite", "created_at", "updated_at",
}

// newCountingStore wires the use case over sqlmock so tests can pin down
// exactly how many statements an operation issues. Listings and searches
// must not grow with the number of documents returned.
func newCountingStore(t *testing.T) (DocumentStore, sqlmock.Sqlmock, *cryptoService.CipherCodec) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	keys := staticKeys{key: bytes.Repeat([]byte{0x42}, 32)}
	codec := cryptoService.NewCipherCodec(keys, cryptoService.NewPool(1), 1<<20)
	searchRepo := repository.NewSQLiteSearchRepository(db)

	store := NewDocumentStore(
		repository.NewSQLiteDocumentRepository(db),
		repository.NewSQLiteFolderRepository(db),
		repository.NewSQLiteTagRepository(db),
		repository.NewSQLiteSignatureRepository(db),
		searchRepo,
		searchRepo,
		repository.NewSQLiteMetaRepository(db),
		keys,
		codec,
		cryptoService.NewSearchIndexer(keys),
		storage.NewLayout(t.TempDir()),
		cache.NewThumbnailCache(1<<20, 8),
		erase.NewEraser(0, nil),
		database.NewTxManager(db),
		"",
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return store, mock, codec
}

func sealWith(t *testing.T, codec *cryptoService.CipherCodec, s string) string {
	t.Helper()
	sealed, err := codec.EncryptString(context.Background(), s)
	require.NoError(t, err)
	return sealed
}

func TestDocumentStore_ListingQueryCount(t *testing.T) {
	ctx := context.Background()
	store, mock, codec := newCountingStore(t)

	now := time.Now().UTC()
	idA := uuid.New()
	idB := uuid.New()
	tagID := uuid.New()

	docRows := sqlmock.NewRows(listedColumns).
		AddRow(idA.String(), sealWith(t, codec, "Tax report 2023"), sealWith(t, codec, "scanned at home"),
			nil, nil, "pending", int64(232), "image/jpeg", nil, false, now, now).
		AddRow(idB.String(), sealWith(t, codec, "Insurance policy"), nil,
			nil, nil, "pending", int64(116), "application/pdf", nil, true, now, now)
	pageRows := sqlmock.NewRows([]string{"document_id", "page_number", "file_path"}).
		AddRow(idA.String(), int64(1), "/vault/documents/a_page_1.enc").
		AddRow(idA.String(), int64(2), "/vault/documents/a_page_2.enc").
		AddRow(idB.String(), int64(1), "/vault/documents/b_page_1.enc")
	tagRows := sqlmock.NewRows([]string{"document_id", "id", "name", "color", "created_at"}).
		AddRow(idA.String(), tagID.String(), "taxes", "#FF5733", now)

	// One statement for the rows, one batched statement for all pages, one
	// batched statement for all tags.
	mock.ExpectQuery(`FROM documents ORDER BY updated_at`).WillReturnRows(docRows)
	mock.ExpectQuery(`FROM document_pages`).WillReturnRows(pageRows)
	mock.ExpectQuery(`FROM document_tags`).WillReturnRows(tagRows)

	docs, err := store.GetAllDocuments(ctx)

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Tax report 2023", docs[0].Title)
	assert.Equal(t, "scanned at home", docs[0].Description)
	require.Len(t, docs[0].Pages, 2)
	require.Len(t, docs[0].Tags, 1)
	assert.Equal(t, "taxes", docs[0].Tags[0].Name)
	assert.Equal(t, "Insurance policy", docs[1].Title)
	require.Len(t, docs[1].Pages, 1)
	assert.Empty(t, docs[1].Tags)

	assert.NoError(t, mock.ExpectationsWereMet(), "listing two documents must take exactly three statements")
}

func TestDocumentStore_TagListingQueryCount(t *testing.T) {
	ctx := context.Background()
	store, mock, codec := newCountingStore(t)

	now := time.Now().UTC()
	id := uuid.New()
	tagID := uuid.New()

	docRows := sqlmock.NewRows(listedColumns).
		AddRow(id.String(), sealWith(t, codec, "Receipt"), nil,
			nil, nil, "pending", int64(116), "image/jpeg", nil, false, now, now)
	pageRows := sqlmock.NewRows([]string{"document_id", "page_number", "file_path"}).
		AddRow(id.String(), int64(1), "/vault/documents/r_page_1.enc")
	tagRows := sqlmock.NewRows([]string{"document_id", "id", "name", "color", "created_at"}).
		AddRow(id.String(), tagID.String(), "groceries", nil, now)

	// The tag filter rides inside the row query as a join, so a filtered
	// listing costs the same three statements as a plain one.
	mock.ExpectQuery(`JOIN document_tags dt`).WillReturnRows(docRows)
	mock.ExpectQuery(`FROM document_pages`).WillReturnRows(pageRows)
	mock.ExpectQuery(`JOIN tags t`).WillReturnRows(tagRows)

	docs, err := store.GetDocumentsByTag(ctx, tagID)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Receipt", docs[0].Title)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStore_SearchQueryCount(t *testing.T) {
	ctx := context.Background()
	store, mock, codec := newCountingStore(t)

	now := time.Now().UTC()
	id := uuid.New()

	docRows := sqlmock.NewRows(listedColumns).
		AddRow(id.String(), sealWith(t, codec, "Tax report 2023"), nil,
			nil, nil, "pending", int64(116), "image/jpeg", nil, false, now, now)
	pageRows := sqlmock.NewRows([]string{"document_id", "page_number", "file_path"}).
		AddRow(id.String(), int64(1), "/vault/documents/t_page_1.enc")
	tagRows := sqlmock.NewRows([]string{"document_id", "id", "name", "color", "created_at"})

	// Index lookup, then the same three listing statements, then the
	// history write. Four reads total regardless of match count.
	mock.ExpectQuery(`FROM search_index`).
		WillReturnRows(sqlmock.NewRows([]string{"document_id"}).AddRow(id.String()))
	mock.ExpectQuery(`FROM documents WHERE id IN`).WillReturnRows(docRows)
	mock.ExpectQuery(`FROM document_pages`).WillReturnRows(pageRows)
	mock.ExpectQuery(`FROM document_tags`).WillReturnRows(tagRows)
	mock.ExpectExec(`INSERT INTO search_history`).WillReturnResult(sqlmock.NewResult(1, 1))

	docs, err := store.SearchDocuments(ctx, "tax report")

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Tax report 2023", docs[0].Title)

	assert.NoError(t, mock.ExpectationsWereMet(), "a search must take four reads and one history write")
}
