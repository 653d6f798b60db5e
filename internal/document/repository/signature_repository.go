package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/scanvault/scanvault/internal/database"
	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

// SQLiteSignatureRepository implements persistence for saved signatures.
type SQLiteSignatureRepository struct {
	db *sql.DB
}

// NewSQLiteSignatureRepository creates a new SQLiteSignatureRepository.
func NewSQLiteSignatureRepository(db *sql.DB) *SQLiteSignatureRepository {
	return &SQLiteSignatureRepository{db: db}
}

// Create inserts a new signature.
func (r *SQLiteSignatureRepository) Create(ctx context.Context, signature *documentDomain.Signature) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO signatures (id, name, file_path, created_at) VALUES (?, ?, ?, ?)`

	if _, err := querier.ExecContext(ctx, query, signature.ID, signature.Name, signature.FilePath, signature.CreatedAt); err != nil {
		return apperrors.Wrap(err, "failed to create signature")
	}
	return nil
}

// GetByID retrieves a signature.
func (r *SQLiteSignatureRepository) GetByID(ctx context.Context, id uuid.UUID) (*documentDomain.Signature, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, file_path, created_at FROM signatures WHERE id = ?`

	var signature documentDomain.Signature
	err := querier.QueryRowContext(ctx, query, id).Scan(&signature.ID, &signature.Name, &signature.FilePath, &signature.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, documentDomain.ErrSignatureNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get signature")
	}
	return &signature, nil
}

// GetAll retrieves every signature, newest first.
func (r *SQLiteSignatureRepository) GetAll(ctx context.Context) ([]*documentDomain.Signature, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, file_path, created_at FROM signatures ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list signatures")
	}
	defer rows.Close()

	var signatures []*documentDomain.Signature
	for rows.Next() {
		var signature documentDomain.Signature
		if err := rows.Scan(&signature.ID, &signature.Name, &signature.FilePath, &signature.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan signature")
		}
		signatures = append(signatures, &signature)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list signatures")
	}
	return signatures, nil
}

// Delete removes a signature row.
func (r *SQLiteSignatureRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM signatures WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete signature")
	}
	return requireRow(result, documentDomain.ErrSignatureNotFound)
}
