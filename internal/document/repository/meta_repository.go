package repository

import (
	"context"
	"database/sql"

	"github.com/scanvault/scanvault/internal/database"
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

// SQLiteMetaRepository implements the vault_meta key/value table used for
// store-level markers such as the cipher version and the search index
// dirty flag.
type SQLiteMetaRepository struct {
	db *sql.DB
}

// NewSQLiteMetaRepository creates a new SQLiteMetaRepository.
func NewSQLiteMetaRepository(db *sql.DB) *SQLiteMetaRepository {
	return &SQLiteMetaRepository{db: db}
}

// Get retrieves a meta value.
func (r *SQLiteMetaRepository) Get(ctx context.Context, key string) (string, error) {
	querier := database.GetTx(ctx, r.db)

	var value string
	err := querier.QueryRowContext(ctx, `SELECT value FROM vault_meta WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", apperrors.Wrap(apperrors.ErrNotFound, "meta key not found")
		}
		return "", apperrors.Wrap(err, "failed to get meta value")
	}
	return value, nil
}

// Set stores a meta value, replacing any previous one.
func (r *SQLiteMetaRepository) Set(ctx context.Context, key, value string) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO vault_meta (key, value) VALUES (?, ?)
			  ON CONFLICT (key) DO UPDATE SET value = excluded.value`

	if _, err := querier.ExecContext(ctx, query, key, value); err != nil {
		return apperrors.Wrap(err, "failed to set meta value")
	}
	return nil
}

// Delete removes a meta key. Deleting an absent key is not an error.
func (r *SQLiteMetaRepository) Delete(ctx context.Context, key string) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM vault_meta WHERE key = ?`, key); err != nil {
		return apperrors.Wrap(err, "failed to delete meta value")
	}
	return nil
}
