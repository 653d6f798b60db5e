package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	"github.com/scanvault/scanvault/internal/metrics"
)

const metricsDomain = "documents"

// documentStoreWithMetrics decorates DocumentStore with metrics
// instrumentation.
type documentStoreWithMetrics struct {
	next    DocumentStore
	metrics metrics.BusinessMetrics
}

// NewDocumentStoreWithMetrics wraps a DocumentStore with metrics recording.
func NewDocumentStoreWithMetrics(store DocumentStore, m metrics.BusinessMetrics) DocumentStore {
	return &documentStoreWithMetrics{
		next:    store,
		metrics: m,
	}
}

// record emits the operation counter and duration histogram for one call.
func (s *documentStoreWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	s.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

func (s *documentStoreWithMetrics) Initialize(ctx context.Context) error {
	start := time.Now()
	err := s.next.Initialize(ctx)
	s.record(ctx, "initialize", start, err)
	return err
}

func (s *documentStoreWithMetrics) CreateDocumentWithPages(ctx context.Context, input CreateDocumentInput) (*documentDomain.Document, error) {
	start := time.Now()
	doc, err := s.next.CreateDocumentWithPages(ctx, input)
	s.record(ctx, "document_create", start, err)
	return doc, err
}

func (s *documentStoreWithMetrics) GetDocument(ctx context.Context, id uuid.UUID) (*documentDomain.Document, error) {
	start := time.Now()
	doc, err := s.next.GetDocument(ctx, id)
	s.record(ctx, "document_get", start, err)
	return doc, err
}

func (s *documentStoreWithMetrics) GetAllDocuments(ctx context.Context) ([]*documentDomain.Document, error) {
	start := time.Now()
	docs, err := s.next.GetAllDocuments(ctx)
	s.record(ctx, "document_list", start, err)
	return docs, err
}

func (s *documentStoreWithMetrics) GetDocumentsInFolder(ctx context.Context, folderID uuid.UUID) ([]*documentDomain.Document, error) {
	start := time.Now()
	docs, err := s.next.GetDocumentsInFolder(ctx, folderID)
	s.record(ctx, "document_list_folder", start, err)
	return docs, err
}

func (s *documentStoreWithMetrics) GetFavoriteDocuments(ctx context.Context) ([]*documentDomain.Document, error) {
	start := time.Now()
	docs, err := s.next.GetFavoriteDocuments(ctx)
	s.record(ctx, "document_list_favorites", start, err)
	return docs, err
}

func (s *documentStoreWithMetrics) GetDocumentsByTag(ctx context.Context, tagID uuid.UUID) ([]*documentDomain.Document, error) {
	start := time.Now()
	docs, err := s.next.GetDocumentsByTag(ctx, tagID)
	s.record(ctx, "document_list_tag", start, err)
	return docs, err
}

func (s *documentStoreWithMetrics) SearchDocuments(ctx context.Context, query string) ([]*documentDomain.Document, error) {
	start := time.Now()
	docs, err := s.next.SearchDocuments(ctx, query)
	s.record(ctx, "document_search", start, err)
	return docs, err
}

func (s *documentStoreWithMetrics) GetDecryptedPagePath(ctx context.Context, id uuid.UUID, pageNumber int) (string, error) {
	start := time.Now()
	path, err := s.next.GetDecryptedPagePath(ctx, id, pageNumber)
	s.record(ctx, "page_decrypt", start, err)
	return path, err
}

func (s *documentStoreWithMetrics) GetDecryptedAllPages(ctx context.Context, id uuid.UUID) ([]string, error) {
	start := time.Now()
	paths, err := s.next.GetDecryptedAllPages(ctx, id)
	s.record(ctx, "page_decrypt_all", start, err)
	return paths, err
}

func (s *documentStoreWithMetrics) GetDecryptedPageBytes(ctx context.Context, id uuid.UUID, pageNumber int) ([]byte, error) {
	start := time.Now()
	data, err := s.next.GetDecryptedPageBytes(ctx, id, pageNumber)
	s.record(ctx, "page_decrypt_bytes", start, err)
	if err == nil {
		s.metrics.RecordPayloadBytes(ctx, "page_decrypt_bytes", len(data))
	}
	return data, err
}

func (s *documentStoreWithMetrics) GetDecryptedThumbnail(ctx context.Context, id uuid.UUID) ([]byte, error) {
	start := time.Now()
	data, err := s.next.GetDecryptedThumbnail(ctx, id)
	s.record(ctx, "thumbnail_get", start, err)
	if err == nil {
		s.metrics.RecordPayloadBytes(ctx, "thumbnail_get", len(data))
	}
	return data, err
}

func (s *documentStoreWithMetrics) GetDecryptedThumbnails(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]byte, error) {
	start := time.Now()
	data, err := s.next.GetDecryptedThumbnails(ctx, ids)
	s.record(ctx, "thumbnail_get_batch", start, err)
	if err == nil {
		total := 0
		for _, thumbnail := range data {
			total += len(thumbnail)
		}
		s.metrics.RecordPayloadBytes(ctx, "thumbnail_get_batch", total)
	}
	return data, err
}

func (s *documentStoreWithMetrics) UpdateDocument(ctx context.Context, input UpdateDocumentInput) (*documentDomain.Document, error) {
	start := time.Now()
	doc, err := s.next.UpdateDocument(ctx, input)
	s.record(ctx, "document_update", start, err)
	return doc, err
}

func (s *documentStoreWithMetrics) UpdateDocumentThumbnail(ctx context.Context, id uuid.UUID, sourcePath string) error {
	start := time.Now()
	err := s.next.UpdateDocumentThumbnail(ctx, id, sourcePath)
	s.record(ctx, "thumbnail_update", start, err)
	return err
}

func (s *documentStoreWithMetrics) MoveDocumentToFolder(ctx context.Context, id uuid.UUID, folderID *uuid.UUID) error {
	start := time.Now()
	err := s.next.MoveDocumentToFolder(ctx, id, folderID)
	s.record(ctx, "document_move", start, err)
	return err
}

func (s *documentStoreWithMetrics) ToggleFavorite(ctx context.Context, id uuid.UUID) (bool, error) {
	start := time.Now()
	favorite, err := s.next.ToggleFavorite(ctx, id)
	s.record(ctx, "favorite_toggle", start, err)
	return favorite, err
}

func (s *documentStoreWithMetrics) SetOcrStatus(ctx context.Context, id uuid.UUID, status documentDomain.OcrStatus) error {
	start := time.Now()
	err := s.next.SetOcrStatus(ctx, id, status)
	s.record(ctx, "ocr_set_status", start, err)
	return err
}

func (s *documentStoreWithMetrics) CompleteOcr(ctx context.Context, id uuid.UUID, text string) error {
	start := time.Now()
	err := s.next.CompleteOcr(ctx, id, text)
	s.record(ctx, "ocr_complete", start, err)
	return err
}

func (s *documentStoreWithMetrics) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := s.next.DeleteDocument(ctx, id)
	s.record(ctx, "document_delete", start, err)
	return err
}

func (s *documentStoreWithMetrics) DeleteDocuments(ctx context.Context, ids []uuid.UUID) error {
	start := time.Now()
	err := s.next.DeleteDocuments(ctx, ids)
	s.record(ctx, "document_delete_batch", start, err)
	return err
}

func (s *documentStoreWithMetrics) CreateFolder(ctx context.Context, name string) (*documentDomain.Folder, error) {
	start := time.Now()
	folder, err := s.next.CreateFolder(ctx, name)
	s.record(ctx, "folder_create", start, err)
	return folder, err
}

func (s *documentStoreWithMetrics) RenameFolder(ctx context.Context, id uuid.UUID, name string) error {
	start := time.Now()
	err := s.next.RenameFolder(ctx, id, name)
	s.record(ctx, "folder_rename", start, err)
	return err
}

func (s *documentStoreWithMetrics) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := s.next.DeleteFolder(ctx, id)
	s.record(ctx, "folder_delete", start, err)
	return err
}

func (s *documentStoreWithMetrics) ListFolders(ctx context.Context) ([]*documentDomain.Folder, error) {
	start := time.Now()
	folders, err := s.next.ListFolders(ctx)
	s.record(ctx, "folder_list", start, err)
	return folders, err
}

func (s *documentStoreWithMetrics) CreateTag(ctx context.Context, name, color string) (*documentDomain.Tag, error) {
	start := time.Now()
	tag, err := s.next.CreateTag(ctx, name, color)
	s.record(ctx, "tag_create", start, err)
	return tag, err
}

func (s *documentStoreWithMetrics) UpdateTag(ctx context.Context, id uuid.UUID, name, color string) (*documentDomain.Tag, error) {
	start := time.Now()
	tag, err := s.next.UpdateTag(ctx, id, name, color)
	s.record(ctx, "tag_update", start, err)
	return tag, err
}

func (s *documentStoreWithMetrics) DeleteTag(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := s.next.DeleteTag(ctx, id)
	s.record(ctx, "tag_delete", start, err)
	return err
}

func (s *documentStoreWithMetrics) ListTags(ctx context.Context) ([]*documentDomain.Tag, error) {
	start := time.Now()
	tags, err := s.next.ListTags(ctx)
	s.record(ctx, "tag_list", start, err)
	return tags, err
}

func (s *documentStoreWithMetrics) TagDocument(ctx context.Context, documentID, tagID uuid.UUID) error {
	start := time.Now()
	err := s.next.TagDocument(ctx, documentID, tagID)
	s.record(ctx, "tag_attach", start, err)
	return err
}

func (s *documentStoreWithMetrics) UntagDocument(ctx context.Context, documentID, tagID uuid.UUID) error {
	start := time.Now()
	err := s.next.UntagDocument(ctx, documentID, tagID)
	s.record(ctx, "tag_detach", start, err)
	return err
}

func (s *documentStoreWithMetrics) SaveSignature(ctx context.Context, name, sourcePath string) (*documentDomain.Signature, error) {
	start := time.Now()
	signature, err := s.next.SaveSignature(ctx, name, sourcePath)
	s.record(ctx, "signature_create", start, err)
	return signature, err
}

func (s *documentStoreWithMetrics) ListSignatures(ctx context.Context) ([]*documentDomain.Signature, error) {
	start := time.Now()
	signatures, err := s.next.ListSignatures(ctx)
	s.record(ctx, "signature_list", start, err)
	return signatures, err
}

func (s *documentStoreWithMetrics) DeleteSignature(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := s.next.DeleteSignature(ctx, id)
	s.record(ctx, "signature_delete", start, err)
	return err
}

func (s *documentStoreWithMetrics) RecentSearches(ctx context.Context, limit int) ([]*documentDomain.SearchEntry, error) {
	start := time.Now()
	entries, err := s.next.RecentSearches(ctx, limit)
	s.record(ctx, "history_recent", start, err)
	return entries, err
}

func (s *documentStoreWithMetrics) ClearSearchHistory(ctx context.Context) error {
	start := time.Now()
	err := s.next.ClearSearchHistory(ctx)
	s.record(ctx, "history_clear", start, err)
	return err
}

func (s *documentStoreWithMetrics) RebuildSearchIndex(ctx context.Context) error {
	start := time.Now()
	err := s.next.RebuildSearchIndex(ctx)
	s.record(ctx, "index_rebuild", start, err)
	return err
}

func (s *documentStoreWithMetrics) GetStorageInfo(ctx context.Context) (*documentDomain.StorageInfo, error) {
	start := time.Now()
	info, err := s.next.GetStorageInfo(ctx)
	s.record(ctx, "storage_info", start, err)
	return info, err
}
