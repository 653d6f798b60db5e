package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupDB(t *testing.T) {
	db := SetupDB(t)

	err := db.Ping()
	assert.NoError(t, err)

	// Schema is fully applied
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 0, count, "store should start empty")

	err = db.QueryRow("SELECT COUNT(*) FROM vault_meta").Scan(&count)
	assert.NoError(t, err)
}

func TestSetupDBEnforcesForeignKeys(t *testing.T) {
	db := SetupDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	assert.Equal(t, 1, enabled, "foreign keys should ride on the DSN")

	// A page referencing a missing document must be rejected
	_, err = db.Exec(
		`INSERT INTO document_pages (document_id, page_number, file_path) VALUES (?, 1, 'orphan.enc')`,
		uuid.NewString(),
	)
	assert.Error(t, err, "orphan page insert should violate the foreign key")
}

func TestSetupDBIsIsolatedPerTest(t *testing.T) {
	first := SetupDB(t)
	second := SetupDB(t)

	CreateTestDocument(t, first, "only-in-first")

	var count int
	err := second.QueryRow("SELECT COUNT(*) FROM documents").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "stores must not share state")
}

func TestCreateTestDocument(t *testing.T) {
	db := SetupDB(t)

	documentID := CreateTestDocument(t, db, "test-document")
	assert.NotEqual(t, uuid.Nil, documentID)

	var title, status string
	err := db.QueryRow("SELECT title, ocr_status FROM documents WHERE id = ?", documentID).Scan(&title, &status)
	require.NoError(t, err)
	assert.Equal(t, "test-document", title)
	assert.Equal(t, "pending", status)
}

func TestCreateTestFolder(t *testing.T) {
	db := SetupDB(t)

	folderID := CreateTestFolder(t, db, "test-folder")
	assert.NotEqual(t, uuid.Nil, folderID)

	var name string
	err := db.QueryRow("SELECT name FROM folders WHERE id = ?", folderID).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "test-folder", name)
}

func TestCreateTestTag(t *testing.T) {
	db := SetupDB(t)

	tagID := CreateTestTag(t, db, "test-tag")
	assert.NotEqual(t, uuid.Nil, tagID)

	var name string
	err := db.QueryRow("SELECT name FROM tags WHERE id = ?", tagID).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "test-tag", name)
}

func TestCreateTestPageCascadesWithDocument(t *testing.T) {
	db := SetupDB(t)

	documentID := CreateTestDocument(t, db, "cascade-document")
	CreateTestPage(t, db, documentID, 1)
	CreateTestPage(t, db, documentID, 2)

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM document_pages WHERE document_id = ?", documentID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = db.Exec("DELETE FROM documents WHERE id = ?", documentID)
	require.NoError(t, err)

	err = db.QueryRow("SELECT COUNT(*) FROM document_pages WHERE document_id = ?", documentID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "pages should cascade with their document")
}
