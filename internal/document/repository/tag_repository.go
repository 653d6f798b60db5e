package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/scanvault/scanvault/internal/database"
	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

// SQLiteTagRepository implements tag persistence.
type SQLiteTagRepository struct {
	db *sql.DB
}

// NewSQLiteTagRepository creates a new SQLiteTagRepository.
func NewSQLiteTagRepository(db *sql.DB) *SQLiteTagRepository {
	return &SQLiteTagRepository{db: db}
}

// Create inserts a new tag.
func (r *SQLiteTagRepository) Create(ctx context.Context, tag *documentDomain.Tag) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO tags (id, name, color, created_at) VALUES (?, ?, ?, ?)`

	if _, err := querier.ExecContext(ctx, query, tag.ID, tag.Name, nullableString(tag.Color), tag.CreatedAt); err != nil {
		return apperrors.Wrap(err, "failed to create tag")
	}
	return nil
}

func (r *SQLiteTagRepository) getBy(ctx context.Context, query string, arg any) (*documentDomain.Tag, error) {
	querier := database.GetTx(ctx, r.db)

	var (
		tag   documentDomain.Tag
		color sql.NullString
	)
	err := querier.QueryRowContext(ctx, query, arg).Scan(&tag.ID, &tag.Name, &color, &tag.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, documentDomain.ErrTagNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get tag")
	}
	tag.Color = color.String
	return &tag, nil
}

// GetByID retrieves a tag.
func (r *SQLiteTagRepository) GetByID(ctx context.Context, id uuid.UUID) (*documentDomain.Tag, error) {
	return r.getBy(ctx, `SELECT id, name, color, created_at FROM tags WHERE id = ?`, id)
}

// GetByName retrieves a tag by its unique name.
func (r *SQLiteTagRepository) GetByName(ctx context.Context, name string) (*documentDomain.Tag, error) {
	return r.getBy(ctx, `SELECT id, name, color, created_at FROM tags WHERE name = ?`, name)
}

// GetAll retrieves every tag ordered by name.
func (r *SQLiteTagRepository) GetAll(ctx context.Context) ([]*documentDomain.Tag, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, color, created_at FROM tags ORDER BY name`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list tags")
	}
	defer rows.Close()

	var tags []*documentDomain.Tag
	for rows.Next() {
		var (
			tag   documentDomain.Tag
			color sql.NullString
		)
		if err := rows.Scan(&tag.ID, &tag.Name, &color, &tag.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan tag")
		}
		tag.Color = color.String
		tags = append(tags, &tag)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list tags")
	}
	return tags, nil
}

// Update changes a tag's name and color.
func (r *SQLiteTagRepository) Update(ctx context.Context, tag *documentDomain.Tag) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `UPDATE tags SET name = ?, color = ? WHERE id = ?`, tag.Name, nullableString(tag.Color), tag.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update tag")
	}
	return requireRow(result, documentDomain.ErrTagNotFound)
}

// Delete removes a tag; document links cascade.
func (r *SQLiteTagRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete tag")
	}
	return requireRow(result, documentDomain.ErrTagNotFound)
}
