package migration

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoService "github.com/scanvault/scanvault/internal/crypto/service"
	"github.com/scanvault/scanvault/internal/database"
	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

// staticKeys is a fixed master key for tests.
type staticKeys struct {
	key []byte
}

func (s staticKeys) MasterKey(ctx context.Context) ([]byte, error) {
	return s.key, nil
}

func newTestCodec() *cryptoService.CipherCodec {
	keys := staticKeys{key: bytes.Repeat([]byte{0x42}, 32)}
	return cryptoService.NewCipherCodec(keys, nil, 0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// legacyFixture records the ids and plaintext written into a legacy store
// so tests can follow them through a conversion.
type legacyFixture struct {
	folderID    uuid.UUID
	taxDoc      uuid.UUID
	receiptDoc  uuid.UUID
	tagID       uuid.UUID
	signatureID uuid.UUID
}

const (
	legacyTaxTitle       = "Tax return 2023"
	legacyTaxDescription = "Scanned at the office"
	legacyTaxOcrText     = "total refund 812 euro"
	legacyReceiptTitle   = "Grocery receipt"
)

// newLegacyStore creates a plaintext store with the old schema at path and
// returns an open handle. The caller closes it before running a conversion.
func newLegacyStore(t *testing.T, path string) *sql.DB {
	t.Helper()

	db, err := database.Connect(database.Config{
		Path:               path,
		MaxOpenConnections: 1,
		MaxIdleConnections: 1,
		BusyTimeout:        5 * time.Second,
	})
	require.NoError(t, err, "failed to create legacy store")

	statements := []string{
		`CREATE TABLE folders (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE documents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			thumbnail_path TEXT,
			ocr_text TEXT,
			ocr_status TEXT NOT NULL DEFAULT 'pending',
			size_bytes INTEGER NOT NULL DEFAULT 0,
			mime_type TEXT NOT NULL,
			folder_id TEXT REFERENCES folders(id) ON DELETE SET NULL,
			is_favorite INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE document_pages (
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			page_number INTEGER NOT NULL,
			file_path TEXT NOT NULL,
			PRIMARY KEY (document_id, page_number)
		)`,
		`CREATE TABLE tags (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			color TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE document_tags (
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (document_id, tag_id)
		)`,
		`CREATE TABLE signatures (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			file_path TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE search_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			searched_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE documents_fts (
			document_id TEXT NOT NULL,
			content TEXT NOT NULL
		)`,
	}
	for _, statement := range statements {
		_, err := db.Exec(statement)
		require.NoError(t, err, "failed to create legacy schema")
	}
	return db
}

// seedLegacyStore fills a legacy store with one folder, two documents along
// with pages, a tag, a signature, and search history.
func seedLegacyStore(t *testing.T, db *sql.DB) legacyFixture {
	t.Helper()

	f := legacyFixture{
		folderID:    uuid.New(),
		taxDoc:      uuid.New(),
		receiptDoc:  uuid.New(),
		tagID:       uuid.New(),
		signatureID: uuid.New(),
	}
	now := time.Now().UTC()

	_, err := db.Exec(`INSERT INTO folders (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		f.folderID, "Taxes", now, now)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO documents
		(id, title, description, thumbnail_path, ocr_text, ocr_status, size_bytes, mime_type, folder_id, is_favorite, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'completed', 4096, 'application/pdf', ?, 1, ?, ?)`,
		f.taxDoc, legacyTaxTitle, legacyTaxDescription,
		"thumbnails/"+f.taxDoc.String()+".jpg", legacyTaxOcrText, f.folderID, now, now)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO documents
		(id, title, ocr_status, size_bytes, mime_type, is_favorite, created_at, updated_at)
		VALUES (?, ?, 'pending', 512, 'image/jpeg', 0, ?, ?)`,
		f.receiptDoc, legacyReceiptTitle, now, now)
	require.NoError(t, err)

	for page := 1; page <= 2; page++ {
		_, err = db.Exec(`INSERT INTO document_pages (document_id, page_number, file_path) VALUES (?, ?, ?)`,
			f.taxDoc, page, fmt.Sprintf("documents/%s_page_%d.jpg", f.taxDoc, page))
		require.NoError(t, err)
	}
	_, err = db.Exec(`INSERT INTO document_pages (document_id, page_number, file_path) VALUES (?, 1, ?)`,
		f.receiptDoc, "documents/"+f.receiptDoc.String()+"_page_1.jpg")
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO tags (id, name, color, created_at) VALUES (?, 'finance', '#2E7D32', ?)`,
		f.tagID, now)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO document_tags (document_id, tag_id) VALUES (?, ?)`, f.taxDoc, f.tagID)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO signatures (id, name, file_path, created_at) VALUES (?, 'Default', ?, ?)`,
		f.signatureID, "signatures/"+f.signatureID.String()+".enc", now)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO search_history (id, query, searched_at) VALUES (1, 'tax', ?), (2, 'receipt', ?)`,
		now.Add(-time.Hour), now)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO documents_fts (document_id, content) VALUES (?, ?)`,
		f.taxDoc, legacyTaxTitle)
	require.NoError(t, err)

	return f
}

// createLegacyStore builds and seeds a legacy store file at path.
func createLegacyStore(t *testing.T, path string) legacyFixture {
	t.Helper()

	db := newLegacyStore(t, path)
	f := seedLegacyStore(t, db)
	require.NoError(t, db.Close())
	return f
}

// openStore opens a store file for post-conversion assertions.
func openStore(t *testing.T, path string) *sql.DB {
	t.Helper()

	db, err := database.Connect(database.Config{
		Path:               path,
		MaxOpenConnections: 1,
		MaxIdleConnections: 1,
		BusyTimeout:        5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// execStore runs one statement against a store file and closes the handle
// again, so the file stays clean for a following conversion.
func execStore(t *testing.T, path, query string, args ...any) {
	t.Helper()

	db, err := database.Connect(database.Config{
		Path:               path,
		MaxOpenConnections: 1,
		MaxIdleConnections: 1,
		BusyTimeout:        5 * time.Second,
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	_, err = db.Exec(query, args...)
	require.NoError(t, err)
}

func TestNewMigrator_BatchSizeBounds(t *testing.T) {
	codec := newTestCodec()
	logger := discardLogger()

	assert.Equal(t, defaultBatchSize, NewMigrator("vault.db", codec, 0, logger).batchSize)
	assert.Equal(t, defaultBatchSize, NewMigrator("vault.db", codec, -3, logger).batchSize)
	assert.Equal(t, 25, NewMigrator("vault.db", codec, 25, logger).batchSize)
	assert.Equal(t, maxBatchSize, NewMigrator("vault.db", codec, 100000, logger).batchSize)
}

func TestMigrator_Run_ConvertsLegacyStore(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "vault.db")
	f := createLegacyStore(t, storePath)
	codec := newTestCodec()
	ctx := context.Background()

	// A batch size of two forces the page copy through more than one
	// insert statement.
	m := NewMigrator(storePath, codec, 2, discardLogger())
	result, err := m.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, StatusMigrated, result.Status)
	assert.Equal(t, map[string]int64{
		"folders":        1,
		"documents":      2,
		"document_pages": 3,
		"tags":           1,
		"document_tags":  1,
		"signatures":     1,
		"search_history": 2,
	}, result.RowsCopied)

	assert.NoFileExists(t, storePath+backupSuffix, "backup must be gone after a successful conversion")
	assert.NoFileExists(t, storePath+workingSuffix)

	db := openStore(t, storePath)

	t.Run("markers are set", func(t *testing.T) {
		var value string
		require.NoError(t, db.QueryRow(`SELECT value FROM vault_meta WHERE key = ?`,
			documentDomain.MetaKeyCipherVersion).Scan(&value))
		assert.Equal(t, documentDomain.CipherVersionSealed, value)

		require.NoError(t, db.QueryRow(`SELECT value FROM vault_meta WHERE key = ?`,
			documentDomain.MetaKeySearchIndexDirty).Scan(&value))
		assert.Equal(t, documentDomain.SearchIndexDirty, value)
	})

	t.Run("document text is sealed and recoverable", func(t *testing.T) {
		var title, description, ocrText string
		require.NoError(t, db.QueryRow(`SELECT title, description, ocr_text FROM documents WHERE id = ?`,
			f.taxDoc).Scan(&title, &description, &ocrText))

		assert.NotEqual(t, legacyTaxTitle, title)
		assert.True(t, codec.IsLikelyEncryptedString(title))

		unsealed, err := codec.DecryptString(ctx, title)
		require.NoError(t, err)
		assert.Equal(t, legacyTaxTitle, unsealed)

		unsealed, err = codec.DecryptString(ctx, description)
		require.NoError(t, err)
		assert.Equal(t, legacyTaxDescription, unsealed)

		unsealed, err = codec.DecryptString(ctx, ocrText)
		require.NoError(t, err)
		assert.Equal(t, legacyTaxOcrText, unsealed)
	})

	t.Run("absent values stay null", func(t *testing.T) {
		var description, ocrText sql.NullString
		require.NoError(t, db.QueryRow(`SELECT description, ocr_text FROM documents WHERE id = ?`,
			f.receiptDoc).Scan(&description, &ocrText))
		assert.False(t, description.Valid)
		assert.False(t, ocrText.Valid)
	})

	t.Run("plain columns ride through unchanged", func(t *testing.T) {
		var (
			status   string
			size     int64
			mime     string
			folderID string
			favorite int
		)
		require.NoError(t, db.QueryRow(
			`SELECT ocr_status, size_bytes, mime_type, folder_id, is_favorite FROM documents WHERE id = ?`,
			f.taxDoc).Scan(&status, &size, &mime, &folderID, &favorite))
		assert.Equal(t, "completed", status)
		assert.Equal(t, int64(4096), size)
		assert.Equal(t, "application/pdf", mime)
		assert.Equal(t, f.folderID.String(), folderID)
		assert.Equal(t, 1, favorite)

		var folderName string
		require.NoError(t, db.QueryRow(`SELECT name FROM folders WHERE id = ?`, f.folderID).Scan(&folderName))
		assert.Equal(t, "Taxes", folderName)
	})

	t.Run("relations survive", func(t *testing.T) {
		var pages int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM document_pages WHERE document_id = ?`,
			f.taxDoc).Scan(&pages))
		assert.Equal(t, 2, pages)

		var tagName string
		require.NoError(t, db.QueryRow(
			`SELECT t.name FROM tags t JOIN document_tags dt ON dt.tag_id = t.id WHERE dt.document_id = ?`,
			f.taxDoc).Scan(&tagName))
		assert.Equal(t, "finance", tagName)

		var signatureName string
		require.NoError(t, db.QueryRow(`SELECT name FROM signatures WHERE id = ?`,
			f.signatureID).Scan(&signatureName))
		assert.Equal(t, "Default", signatureName)
	})

	t.Run("search history is sealed in order", func(t *testing.T) {
		rows, err := db.Query(`SELECT query FROM search_history ORDER BY id`)
		require.NoError(t, err)
		defer rows.Close()

		var queries []string
		for rows.Next() {
			var query string
			require.NoError(t, rows.Scan(&query))
			assert.True(t, codec.IsLikelyEncryptedString(query))

			unsealed, err := codec.DecryptString(ctx, query)
			require.NoError(t, err)
			queries = append(queries, unsealed)
		}
		require.NoError(t, rows.Err())
		assert.Equal(t, []string{"tax", "receipt"}, queries)
	})

	t.Run("legacy full text table is not carried over", func(t *testing.T) {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'documents_fts'`).Scan(&name)
		assert.ErrorIs(t, err, sql.ErrNoRows)

		var tokens int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM search_index`).Scan(&tokens))
		assert.Zero(t, tokens, "the token index is rebuilt lazily, not during conversion")
	})
}

func TestMigrator_Run_EmptyLegacyStore(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "vault.db")
	db := newLegacyStore(t, storePath)
	require.NoError(t, db.Close())

	m := NewMigrator(storePath, newTestCodec(), 0, discardLogger())
	result, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusMigrated, result.Status)
	assert.Len(t, result.RowsCopied, len(copyOrder))
	for table, rows := range result.RowsCopied {
		assert.Zero(t, rows, "table %s should be empty", table)
	}

	converted := openStore(t, storePath)
	var value string
	require.NoError(t, converted.QueryRow(`SELECT value FROM vault_meta WHERE key = ?`,
		documentDomain.MetaKeyCipherVersion).Scan(&value))
	assert.Equal(t, documentDomain.CipherVersionSealed, value)
}

func TestMigrator_Run_SecondRunIsNoOp(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "vault.db")
	f := createLegacyStore(t, storePath)
	codec := newTestCodec()
	ctx := context.Background()

	m := NewMigrator(storePath, codec, 0, discardLogger())
	first, err := m.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusMigrated, first.Status)

	second, err := m.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNotNeeded, second.Status)
	assert.Nil(t, second.RowsCopied)

	// The store was not sealed a second time.
	db := openStore(t, storePath)
	var title string
	require.NoError(t, db.QueryRow(`SELECT title FROM documents WHERE id = ?`, f.taxDoc).Scan(&title))

	unsealed, err := codec.DecryptString(ctx, title)
	require.NoError(t, err)
	assert.Equal(t, legacyTaxTitle, unsealed)
}

func TestMigrator_Run_MissingStore(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "vault.db")

	m := NewMigrator(storePath, newTestCodec(), 0, discardLogger())
	result, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusNotNeeded, result.Status)
	assert.NoFileExists(t, storePath+backupSuffix)
	assert.NoFileExists(t, storePath)
}

func TestMigrator_Run_NotAStore(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "vault.db")
	garbage := []byte("not a database at all")
	require.NoError(t, os.WriteFile(storePath, garbage, 0o600))

	m := NewMigrator(storePath, newTestCodec(), 0, discardLogger())
	result, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, result.Status)
	assert.NoFileExists(t, storePath+backupSuffix)

	kept, err := os.ReadFile(storePath)
	require.NoError(t, err)
	assert.Equal(t, garbage, kept, "an unrecognized file must not be modified")
}

func TestMigrator_Run_AlreadyConvertedStore(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "vault.db")

	db, err := database.Connect(database.Config{
		Path:               storePath,
		MaxOpenConnections: 1,
		MaxIdleConnections: 1,
		BusyTimeout:        5 * time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateUp(db))
	_, err = db.Exec(`INSERT INTO vault_meta (key, value) VALUES (?, ?)`,
		documentDomain.MetaKeyCipherVersion, documentDomain.CipherVersionSealed)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// A crash between the swap and the cleanup leaves the backup behind.
	backupPath := storePath + backupSuffix
	require.NoError(t, os.WriteFile(backupPath, []byte("stale"), 0o600))

	m := NewMigrator(storePath, newTestCodec(), 0, discardLogger())
	result, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusNotNeeded, result.Status)
	assert.NoFileExists(t, backupPath, "a stale backup of a converted store is removed")
}

func TestMigrator_Run_FreshStoreWithoutMarker(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "vault.db")

	// A store created at startup carries the migration ledger from its
	// first moment, even before initialization writes the cipher marker.
	db, err := database.Connect(database.Config{
		Path:               storePath,
		MaxOpenConnections: 1,
		MaxIdleConnections: 1,
		BusyTimeout:        5 * time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateUp(db))
	require.NoError(t, db.Close())

	m := NewMigrator(storePath, newTestCodec(), 0, discardLogger())
	result, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusNotNeeded, result.Status)
	assert.NoFileExists(t, storePath+backupSuffix)
}

func TestMigrator_Run_SkipsAlreadySealedValues(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "vault.db")
	codec := newTestCodec()
	ctx := context.Background()

	createLegacyStore(t, storePath)

	// An interrupted earlier conversion can leave a mix of sealed and
	// plaintext values behind.
	sealedTitle, err := codec.EncryptString(ctx, "Sealed already")
	require.NoError(t, err)

	docID := uuid.New()
	now := time.Now().UTC()
	execStore(t, storePath, `INSERT INTO documents
		(id, title, ocr_status, size_bytes, mime_type, is_favorite, created_at, updated_at)
		VALUES (?, ?, 'pending', 0, 'image/jpeg', 0, ?, ?)`,
		docID, sealedTitle, now, now)

	m := NewMigrator(storePath, codec, 0, discardLogger())
	result, err := m.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusMigrated, result.Status)

	db := openStore(t, storePath)
	var title string
	require.NoError(t, db.QueryRow(`SELECT title FROM documents WHERE id = ?`, docID).Scan(&title))
	assert.Equal(t, sealedTitle, title, "a sealed value must not be sealed twice")

	unsealed, err := codec.DecryptString(ctx, title)
	require.NoError(t, err)
	assert.Equal(t, "Sealed already", unsealed)
}

func TestMigrator_Run_FailedCopyRestoresBackup(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "vault.db")
	f := createLegacyStore(t, storePath)

	original, err := os.ReadFile(storePath)
	require.NoError(t, err)

	m := NewMigrator(storePath, newTestCodec(), 0, discardLogger())
	m.beforeTableCopy = func(table string) error {
		if table == "signatures" {
			return apperrors.New("disk went away")
		}
		return nil
	}

	result, err := m.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrMigrationFailed)
	assert.NotErrorIs(t, err, ErrRestoreFailed)
	assert.ErrorContains(t, err, "disk went away")

	restored, err := os.ReadFile(storePath)
	require.NoError(t, err)
	assert.Equal(t, original, restored, "the restored store must be byte identical to the original")

	assert.NoFileExists(t, storePath+backupSuffix, "backup is removed once the restore succeeded")
	assert.NoFileExists(t, storePath+workingSuffix)

	// Still a readable plaintext store, so the conversion can be retried.
	db := openStore(t, storePath)
	var title string
	require.NoError(t, db.QueryRow(`SELECT title FROM documents WHERE id = ?`, f.taxDoc).Scan(&title))
	assert.Equal(t, legacyTaxTitle, title)
}

func TestMigrator_Run_RestoreFailureKeepsStore(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "vault.db")
	createLegacyStore(t, storePath)

	m := NewMigrator(storePath, newTestCodec(), 0, discardLogger())
	m.beforeTableCopy = func(table string) error {
		if table != "documents" {
			return nil
		}
		// Killing the backup makes the later restore impossible.
		if err := os.Remove(storePath + backupSuffix); err != nil {
			return err
		}
		return apperrors.New("copy interrupted")
	}

	_, err := m.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMigrationFailed)
	assert.ErrorIs(t, err, ErrRestoreFailed)

	// The original file was never touched; only the backup is gone.
	db := openStore(t, storePath)
	var documents int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&documents))
	assert.Equal(t, 2, documents)
}
