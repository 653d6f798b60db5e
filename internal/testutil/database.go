// Package testutil provides testing utilities for store integration tests.
//
// Store Setup:
//
//	db := testutil.SetupDB(t)
//
// Each test gets a fresh store file under t.TempDir() with the full schema
// applied, so tests never share state and need no cleanup between runs. The
// connection is closed automatically when the test finishes.
//
// Test Fixtures (for foreign key constraints):
//
//	documentID := testutil.CreateTestDocument(t, db, "my-document")
//	folderID := testutil.CreateTestFolder(t, db, "my-folder")
//	tagID := testutil.CreateTestTag(t, db, "my-tag")
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/scanvault/scanvault/internal/database"
)

// SetupDB creates a fresh store file under the test's temp directory and
// applies all schema migrations.
func SetupDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := database.Config{
		Path: filepath.Join(t.TempDir(), "vault.db"),
		// A single pooled connection serializes access; concurrent callers
		// queue on the pool instead of racing for the write lock.
		MaxOpenConnections: 1,
		MaxIdleConnections: 1,
		BusyTimeout:        5 * time.Second,
	}

	db, err := database.Connect(cfg)
	require.NoError(t, err, "failed to open test store")

	err = database.MigrateUp(db)
	require.NoError(t, err, "failed to migrate test store")

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// CreateTestDocument creates a minimal document row for repository tests.
// Returns the document ID for use in foreign key relationships.
func CreateTestDocument(t *testing.T, db *sql.DB, title string) uuid.UUID {
	t.Helper()

	documentID := uuid.New()
	now := time.Now().UTC()

	_, err := db.ExecContext(context.Background(),
		`INSERT INTO documents (id, title, ocr_status, size_bytes, mime_type, is_favorite, created_at, updated_at)
		 VALUES (?, ?, 'pending', 0, 'application/pdf', 0, ?, ?)`,
		documentID,
		title,
		now,
		now,
	)
	require.NoError(t, err, "failed to create test document: "+title)
	return documentID
}

// CreateTestFolder creates a folder row for repository tests. Returns the
// folder ID.
func CreateTestFolder(t *testing.T, db *sql.DB, name string) uuid.UUID {
	t.Helper()

	folderID := uuid.New()
	now := time.Now().UTC()

	_, err := db.ExecContext(context.Background(),
		`INSERT INTO folders (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		folderID,
		name,
		now,
		now,
	)
	require.NoError(t, err, "failed to create test folder: "+name)
	return folderID
}

// CreateTestTag creates a tag row for repository tests. Returns the tag ID.
func CreateTestTag(t *testing.T, db *sql.DB, name string) uuid.UUID {
	t.Helper()

	tagID := uuid.New()

	_, err := db.ExecContext(context.Background(),
		`INSERT INTO tags (id, name, color, created_at) VALUES (?, ?, '#808080', ?)`,
		tagID,
		name,
		time.Now().UTC(),
	)
	require.NoError(t, err, "failed to create test tag: "+name)
	return tagID
}

// CreateTestPage creates a page row for an existing document. Returns the
// stored file path.
func CreateTestPage(t *testing.T, db *sql.DB, documentID uuid.UUID, pageNumber int) string {
	t.Helper()

	filePath := filepath.Join("documents", documentID.String()+"_page_"+uuid.NewString()+".enc")

	_, err := db.ExecContext(context.Background(),
		`INSERT INTO document_pages (document_id, page_number, file_path) VALUES (?, ?, ?)`,
		documentID,
		pageNumber,
		filePath,
	)
	require.NoError(t, err, "failed to create test page")
	return filePath
}
