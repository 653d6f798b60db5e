package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	"github.com/scanvault/scanvault/internal/testutil"
)

func TestSQLiteFolderRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteFolderRepository(db)
	ctx := context.Background()

	folder := &documentDomain.Folder{
		ID:        uuid.New(),
		Name:      "insurance",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, folder))

	got, err := repo.GetByID(ctx, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, got.ID)
	assert.Equal(t, "insurance", got.Name)
	assert.WithinDuration(t, folder.CreatedAt, got.CreatedAt, time.Second)
}

func TestSQLiteFolderRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteFolderRepository(db)

	got, err := repo.GetByID(context.Background(), uuid.New())
	assert.Nil(t, got)
	assert.ErrorIs(t, err, documentDomain.ErrFolderNotFound)
}

func TestSQLiteFolderRepository_GetAll_OrderedByName(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteFolderRepository(db)
	ctx := context.Background()

	for _, name := range []string{"receipts", "bills", "contracts"} {
		folder := &documentDomain.Folder{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
		require.NoError(t, repo.Create(ctx, folder))
	}

	folders, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 3)
	assert.Equal(t, "bills", folders[0].Name)
	assert.Equal(t, "contracts", folders[1].Name)
	assert.Equal(t, "receipts", folders[2].Name)
}

func TestSQLiteFolderRepository_Rename(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteFolderRepository(db)
	ctx := context.Background()

	folder := &documentDomain.Folder{ID: uuid.New(), Name: "old", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, folder))

	require.NoError(t, repo.Rename(ctx, folder.ID, "new"))

	got, err := repo.GetByID(ctx, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)

	err = repo.Rename(ctx, uuid.New(), "nowhere")
	assert.ErrorIs(t, err, documentDomain.ErrFolderNotFound)
}

func TestSQLiteFolderRepository_Delete_DetachesDocuments(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteFolderRepository(db)
	docRepo := NewSQLiteDocumentRepository(db)
	ctx := context.Background()

	folder := &documentDomain.Folder{ID: uuid.New(), Name: "temporary", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, folder))

	doc := newDocument("inside")
	doc.FolderID = &folder.ID
	require.NoError(t, docRepo.Create(ctx, doc))

	require.NoError(t, repo.Delete(ctx, folder.ID))

	// The document survives with its folder reference cleared
	got, err := docRepo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FolderID)

	err = repo.Delete(ctx, folder.ID)
	assert.ErrorIs(t, err, documentDomain.ErrFolderNotFound)
}
