package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/scanvault/scanvault/internal/database"
	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

// SQLiteFolderRepository implements folder persistence.
type SQLiteFolderRepository struct {
	db *sql.DB
}

// NewSQLiteFolderRepository creates a new SQLiteFolderRepository.
func NewSQLiteFolderRepository(db *sql.DB) *SQLiteFolderRepository {
	return &SQLiteFolderRepository{db: db}
}

// Create inserts a new folder.
func (r *SQLiteFolderRepository) Create(ctx context.Context, folder *documentDomain.Folder) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO folders (id, name, created_at) VALUES (?, ?, ?)`

	if _, err := querier.ExecContext(ctx, query, folder.ID, folder.Name, folder.CreatedAt); err != nil {
		return apperrors.Wrap(err, "failed to create folder")
	}
	return nil
}

// GetByID retrieves a folder.
func (r *SQLiteFolderRepository) GetByID(ctx context.Context, id uuid.UUID) (*documentDomain.Folder, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, created_at FROM folders WHERE id = ?`

	var folder documentDomain.Folder
	err := querier.QueryRowContext(ctx, query, id).Scan(&folder.ID, &folder.Name, &folder.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, documentDomain.ErrFolderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get folder")
	}
	return &folder, nil
}

// GetAll retrieves every folder ordered by name.
func (r *SQLiteFolderRepository) GetAll(ctx context.Context) ([]*documentDomain.Folder, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, created_at FROM folders ORDER BY name`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list folders")
	}
	defer rows.Close()

	var folders []*documentDomain.Folder
	for rows.Next() {
		var folder documentDomain.Folder
		if err := rows.Scan(&folder.ID, &folder.Name, &folder.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan folder")
		}
		folders = append(folders, &folder)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list folders")
	}
	return folders, nil
}

// Rename changes a folder name.
func (r *SQLiteFolderRepository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `UPDATE folders SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to rename folder")
	}
	return requireRow(result, documentDomain.ErrFolderNotFound)
}

// Delete removes a folder. Documents inside it lose their folder
// reference but are otherwise untouched.
func (r *SQLiteFolderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete folder")
	}
	return requireRow(result, documentDomain.ErrFolderNotFound)
}
