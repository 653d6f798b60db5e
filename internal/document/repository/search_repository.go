package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/scanvault/scanvault/internal/database"
	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

// SQLiteSearchRepository implements the blind search index and the search
// history log. Index rows hold keyed token MACs, never token text, so the
// index leaks nothing about document contents.
type SQLiteSearchRepository struct {
	db *sql.DB
}

// NewSQLiteSearchRepository creates a new SQLiteSearchRepository.
func NewSQLiteSearchRepository(db *sql.DB) *SQLiteSearchRepository {
	return &SQLiteSearchRepository{db: db}
}

// ReplaceTokens replaces the indexed token MACs of a document.
func (r *SQLiteSearchRepository) ReplaceTokens(ctx context.Context, documentID uuid.UUID, macs [][]byte) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM search_index WHERE document_id = ?`, documentID); err != nil {
		return apperrors.Wrap(err, "failed to clear search index")
	}
	if len(macs) == 0 {
		return nil
	}

	query := `INSERT INTO search_index (document_id, token_mac) VALUES ` +
		strings.TrimSuffix(strings.Repeat("(?, ?), ", len(macs)), ", ")
	args := make([]any, 0, 2*len(macs))
	for _, mac := range macs {
		args = append(args, documentID, mac)
	}
	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(err, "failed to write search index")
	}
	return nil
}

// DeleteTokens removes every indexed token MAC of a document.
func (r *SQLiteSearchRepository) DeleteTokens(ctx context.Context, documentID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM search_index WHERE document_id = ?`, documentID); err != nil {
		return apperrors.Wrap(err, "failed to delete search index")
	}
	return nil
}

// FindDocumentIDs returns the ids of documents indexed under every one of
// the given token MACs, in one query.
func (r *SQLiteSearchRepository) FindDocumentIDs(ctx context.Context, macs [][]byte) ([]uuid.UUID, error) {
	if len(macs) == 0 {
		return nil, nil
	}
	querier := database.GetTx(ctx, r.db)

	query := `SELECT document_id
			  FROM search_index
			  WHERE token_mac IN (` + placeholders(len(macs)) + `)
			  GROUP BY document_id
			  HAVING COUNT(DISTINCT token_mac) = ?`

	args := make([]any, 0, len(macs)+1)
	for _, mac := range macs {
		args = append(args, mac)
	}
	args = append(args, len(macs))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to search index")
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan search result")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to search index")
	}
	return ids, nil
}

// RecordSearch appends a history entry and fills in its assigned id.
func (r *SQLiteSearchRepository) RecordSearch(ctx context.Context, entry *documentDomain.SearchEntry) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `INSERT INTO search_history (query, searched_at) VALUES (?, ?)`, entry.Query, entry.SearchedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to record search")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return apperrors.Wrap(err, "failed to read search history id")
	}
	entry.ID = id
	return nil
}

// History returns the most recent entries, newest first.
func (r *SQLiteSearchRepository) History(ctx context.Context, limit int) ([]*documentDomain.SearchEntry, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, query, searched_at FROM search_history ORDER BY searched_at DESC, id DESC LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list search history")
	}
	defer rows.Close()

	var entries []*documentDomain.SearchEntry
	for rows.Next() {
		var entry documentDomain.SearchEntry
		if err := rows.Scan(&entry.ID, &entry.Query, &entry.SearchedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan search history entry")
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list search history")
	}
	return entries, nil
}

// ClearHistory removes every history entry.
func (r *SQLiteSearchRepository) ClearHistory(ctx context.Context) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM search_history`); err != nil {
		return apperrors.Wrap(err, "failed to clear search history")
	}
	return nil
}
