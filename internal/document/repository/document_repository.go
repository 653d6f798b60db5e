// Package repository implements persistence for the document vault on the
// encrypted metadata store. Methods join an in-flight transaction when the
// context carries one, so multi-row writes stay atomic.
package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scanvault/scanvault/internal/database"
	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

const documentColumns = `id, title, description, thumbnail_path, ocr_text, ocr_status, size_bytes, mime_type, folder_id, is_favorite, created_at, updated_at`

// SQLiteDocumentRepository implements document and page persistence.
type SQLiteDocumentRepository struct {
	db *sql.DB
}

// NewSQLiteDocumentRepository creates a new SQLiteDocumentRepository.
func NewSQLiteDocumentRepository(db *sql.DB) *SQLiteDocumentRepository {
	return &SQLiteDocumentRepository{db: db}
}

// placeholders returns n comma-separated parameter markers for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func uuidArgs(ids []uuid.UUID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(s rowScanner) (*documentDomain.Document, error) {
	var (
		doc       documentDomain.Document
		desc      sql.NullString
		thumbnail sql.NullString
		ocrText   sql.NullString
		ocrStatus string
		folderID  uuid.NullUUID
	)
	err := s.Scan(
		&doc.ID,
		&doc.Title,
		&desc,
		&thumbnail,
		&ocrText,
		&ocrStatus,
		&doc.SizeBytes,
		&doc.MimeType,
		&folderID,
		&doc.IsFavorite,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Description = desc.String
	doc.ThumbnailPath = thumbnail.String
	doc.OcrText = ocrText.String
	if folderID.Valid {
		id := folderID.UUID
		doc.FolderID = &id
	}
	status, err := documentDomain.ParseOcrStatus(ocrStatus)
	if err != nil {
		return nil, err
	}
	doc.OcrStatus = status
	return &doc, nil
}

// Create inserts a new document row.
func (r *SQLiteDocumentRepository) Create(ctx context.Context, doc *documentDomain.Document) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO documents (` + documentColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.Title,
		nullableString(doc.Description),
		nullableString(doc.ThumbnailPath),
		nullableString(doc.OcrText),
		doc.OcrStatus.String(),
		doc.SizeBytes,
		doc.MimeType,
		nullableUUID(doc.FolderID),
		doc.IsFavorite,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create document")
	}
	return nil
}

// CreatePages inserts page rows for a document.
func (r *SQLiteDocumentRepository) CreatePages(ctx context.Context, pages []documentDomain.DocumentPage) error {
	if len(pages) == 0 {
		return nil
	}
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO document_pages (document_id, page_number, file_path) VALUES ` +
		strings.TrimSuffix(strings.Repeat("(?, ?, ?), ", len(pages)), ", ")

	args := make([]any, 0, 3*len(pages))
	for _, page := range pages {
		args = append(args, page.DocumentID, page.PageNumber, page.FilePath)
	}
	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(err, "failed to create document pages")
	}
	return nil
}

// GetByID retrieves a single document row.
func (r *SQLiteDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*documentDomain.Document, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`

	doc, err := scanDocument(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, documentDomain.ErrDocumentNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get document")
	}
	return doc, nil
}

func (r *SQLiteDocumentRepository) queryDocuments(ctx context.Context, query string, args ...any) ([]*documentDomain.Document, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list documents")
	}
	defer rows.Close()

	var docs []*documentDomain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan document")
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list documents")
	}
	return docs, nil
}

// GetAll retrieves every document, most recently updated first.
func (r *SQLiteDocumentRepository) GetAll(ctx context.Context) ([]*documentDomain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY updated_at DESC`
	return r.queryDocuments(ctx, query)
}

// GetByFolder retrieves the documents in one folder.
func (r *SQLiteDocumentRepository) GetByFolder(ctx context.Context, folderID uuid.UUID) ([]*documentDomain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE folder_id = ? ORDER BY updated_at DESC`
	return r.queryDocuments(ctx, query, folderID)
}

// GetFavorites retrieves the documents marked favorite.
func (r *SQLiteDocumentRepository) GetFavorites(ctx context.Context) ([]*documentDomain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE is_favorite = 1 ORDER BY updated_at DESC`
	return r.queryDocuments(ctx, query)
}

// GetByTag retrieves the documents carrying a tag. The tag join happens in
// this one query, so tag-filtered listings cost the same number of queries
// as plain listings.
func (r *SQLiteDocumentRepository) GetByTag(ctx context.Context, tagID uuid.UUID) ([]*documentDomain.Document, error) {
	query := `SELECT ` + prefixedDocumentColumns("d") + `
			  FROM documents d
			  JOIN document_tags dt ON dt.document_id = d.id
			  WHERE dt.tag_id = ?
			  ORDER BY d.updated_at DESC`
	return r.queryDocuments(ctx, query, tagID)
}

// GetByIDs retrieves the given documents, most recently updated first.
// Missing ids are simply absent from the result.
func (r *SQLiteDocumentRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*documentDomain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY updated_at DESC`
	return r.queryDocuments(ctx, query, uuidArgs(ids)...)
}

func prefixedDocumentColumns(alias string) string {
	cols := strings.Split(documentColumns, ", ")
	for i, col := range cols {
		cols[i] = alias + "." + col
	}
	return strings.Join(cols, ", ")
}

// GetPagesByDocumentIDs retrieves the pages of all given documents in one
// batched query, keyed by document id and ordered by page number.
func (r *SQLiteDocumentRepository) GetPagesByDocumentIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]documentDomain.DocumentPage, error) {
	pages := make(map[uuid.UUID][]documentDomain.DocumentPage, len(ids))
	if len(ids) == 0 {
		return pages, nil
	}
	querier := database.GetTx(ctx, r.db)

	query := `SELECT document_id, page_number, file_path
			  FROM document_pages
			  WHERE document_id IN (` + placeholders(len(ids)) + `)
			  ORDER BY document_id, page_number`

	rows, err := querier.QueryContext(ctx, query, uuidArgs(ids)...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get document pages")
	}
	defer rows.Close()

	for rows.Next() {
		var page documentDomain.DocumentPage
		if err := rows.Scan(&page.DocumentID, &page.PageNumber, &page.FilePath); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan document page")
		}
		pages[page.DocumentID] = append(pages[page.DocumentID], page)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to get document pages")
	}
	return pages, nil
}

// GetTagsByDocumentIDs retrieves the tags of all given documents in one
// batched query, keyed by document id.
func (r *SQLiteDocumentRepository) GetTagsByDocumentIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]documentDomain.Tag, error) {
	tags := make(map[uuid.UUID][]documentDomain.Tag, len(ids))
	if len(ids) == 0 {
		return tags, nil
	}
	querier := database.GetTx(ctx, r.db)

	query := `SELECT dt.document_id, t.id, t.name, t.color, t.created_at
			  FROM document_tags dt
			  JOIN tags t ON t.id = dt.tag_id
			  WHERE dt.document_id IN (` + placeholders(len(ids)) + `)
			  ORDER BY dt.document_id, t.name`

	rows, err := querier.QueryContext(ctx, query, uuidArgs(ids)...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get document tags")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			documentID uuid.UUID
			tag        documentDomain.Tag
			color      sql.NullString
		)
		if err := rows.Scan(&documentID, &tag.ID, &tag.Name, &color, &tag.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan document tag")
		}
		tag.Color = color.String
		tags[documentID] = append(tags[documentID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to get document tags")
	}
	return tags, nil
}

// SetTags replaces the tag set of a document.
func (r *SQLiteDocumentRepository) SetTags(ctx context.Context, documentID uuid.UUID, tagIDs []uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM document_tags WHERE document_id = ?`, documentID); err != nil {
		return apperrors.Wrap(err, "failed to clear document tags")
	}
	if len(tagIDs) == 0 {
		return nil
	}

	query := `INSERT INTO document_tags (document_id, tag_id) VALUES ` +
		strings.TrimSuffix(strings.Repeat("(?, ?), ", len(tagIDs)), ", ")
	args := make([]any, 0, 2*len(tagIDs))
	for _, tagID := range tagIDs {
		args = append(args, documentID, tagID)
	}
	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(err, "failed to set document tags")
	}
	return nil
}

// UpdateMetadata updates title, description, folder, and favorite flag.
func (r *SQLiteDocumentRepository) UpdateMetadata(ctx context.Context, doc *documentDomain.Document) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE documents
			  SET title = ?, description = ?, folder_id = ?, is_favorite = ?, updated_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		doc.Title,
		nullableString(doc.Description),
		nullableUUID(doc.FolderID),
		doc.IsFavorite,
		doc.UpdatedAt,
		doc.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update document")
	}
	return requireRow(result, documentDomain.ErrDocumentNotFound)
}

// UpdateOcr stores recognized text together with the resulting status.
func (r *SQLiteDocumentRepository) UpdateOcr(ctx context.Context, id uuid.UUID, sealedText string, status documentDomain.OcrStatus, updatedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE documents SET ocr_text = ?, ocr_status = ?, updated_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, nullableString(sealedText), status.String(), updatedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update document ocr")
	}
	return requireRow(result, documentDomain.ErrDocumentNotFound)
}

// UpdateOcrStatus updates only the recognition status.
func (r *SQLiteDocumentRepository) UpdateOcrStatus(ctx context.Context, id uuid.UUID, status documentDomain.OcrStatus, updatedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE documents SET ocr_status = ?, updated_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, status.String(), updatedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update document ocr status")
	}
	return requireRow(result, documentDomain.ErrDocumentNotFound)
}

// UpdateThumbnailPath points the document at a new encrypted thumbnail
// file. An empty path clears it.
func (r *SQLiteDocumentRepository) UpdateThumbnailPath(ctx context.Context, id uuid.UUID, path string, updatedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE documents SET thumbnail_path = ?, updated_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, nullableString(path), updatedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update document thumbnail")
	}
	return requireRow(result, documentDomain.ErrDocumentNotFound)
}

// UpdateFavorite toggles the favorite flag.
func (r *SQLiteDocumentRepository) UpdateFavorite(ctx context.Context, id uuid.UUID, favorite bool, updatedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE documents SET is_favorite = ?, updated_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, favorite, updatedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update document favorite")
	}
	return requireRow(result, documentDomain.ErrDocumentNotFound)
}

// DeletePages removes all page rows of a document.
func (r *SQLiteDocumentRepository) DeletePages(ctx context.Context, documentID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM document_pages WHERE document_id = ?`, documentID); err != nil {
		return apperrors.Wrap(err, "failed to delete document pages")
	}
	return nil
}

// Delete removes the document row; tag links and index rows cascade.
func (r *SQLiteDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete document")
	}
	return requireRow(result, documentDomain.ErrDocumentNotFound)
}

// Counts returns document count, page count, and the stored size total.
func (r *SQLiteDocumentRepository) Counts(ctx context.Context) (docs int, pages int, sizeBytes int64, err error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT
				(SELECT COUNT(*) FROM documents),
				(SELECT COUNT(*) FROM document_pages),
				(SELECT COALESCE(SUM(size_bytes), 0) FROM documents)`

	if err := querier.QueryRowContext(ctx, query).Scan(&docs, &pages, &sizeBytes); err != nil {
		return 0, 0, 0, apperrors.Wrap(err, "failed to count documents")
	}
	return docs, pages, sizeBytes, nil
}

func requireRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
