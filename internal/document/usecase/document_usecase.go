// Package usecase implements the document vault's business logic. This
// layer owns the plaintext boundary: titles, descriptions, OCR text, and
// search queries are sealed here before they reach a repository and
// unsealed here on the way back out, so everything below only ever sees
// ciphertext.
package usecase

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scanvault/scanvault/internal/cache"
	cryptoService "github.com/scanvault/scanvault/internal/crypto/service"
	"github.com/scanvault/scanvault/internal/database"
	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	apperrors "github.com/scanvault/scanvault/internal/errors"
	"github.com/scanvault/scanvault/internal/storage"
)

const (
	// defaultHistoryLimit caps RecentSearches when the caller passes no
	// limit of its own.
	defaultHistoryLimit = 20

	// batchFanout bounds the goroutines used by batch operations. Vaults
	// run on phone-class hardware; unbounded fan-out mostly produces
	// contention there.
	batchFanout = 4
)

type documentStore struct {
	documents     DocumentRepository
	folders       FolderRepository
	tags          TagRepository
	signatures    SignatureRepository
	searchIndex   SearchIndexRepository
	searchHistory SearchHistoryRepository
	meta          MetaRepository
	keys          KeyVault
	codec         cryptoService.Codec
	indexer       cryptoService.Indexer
	layout        *storage.Layout
	thumbnails    *cache.ThumbnailCache
	eraser        FileEraser
	txManager     database.TxManager
	storePath     string
	logger        *slog.Logger
}

// NewDocumentStore creates a new DocumentStore use case. storePath is the
// document database file, used only for size reporting.
func NewDocumentStore(
	documents DocumentRepository,
	folders FolderRepository,
	tags TagRepository,
	signatures SignatureRepository,
	searchIndex SearchIndexRepository,
	searchHistory SearchHistoryRepository,
	meta MetaRepository,
	keys KeyVault,
	codec cryptoService.Codec,
	indexer cryptoService.Indexer,
	layout *storage.Layout,
	thumbnails *cache.ThumbnailCache,
	eraser FileEraser,
	txManager database.TxManager,
	storePath string,
	logger *slog.Logger,
) DocumentStore {
	return &documentStore{
		documents:     documents,
		folders:       folders,
		tags:          tags,
		signatures:    signatures,
		searchIndex:   searchIndex,
		searchHistory: searchHistory,
		meta:          meta,
		keys:          keys,
		codec:         codec,
		indexer:       indexer,
		layout:        layout,
		thumbnails:    thumbnails,
		eraser:        eraser,
		txManager:     txManager,
		storePath:     storePath,
		logger:        logger,
	}
}

// Initialize prepares the vault for use. It is safe to call on every
// startup: existing directories, keys, and markers are left alone.
func (d *documentStore) Initialize(ctx context.Context) error {
	if err := d.layout.EnsureDirs(); err != nil {
		return apperrors.Wrap(err, "failed to prepare data directories")
	}

	// Touching the key here means the first document import never pays
	// for key generation, and a broken keystore surfaces at startup
	// instead of mid-import.
	if _, err := d.keys.GetOrCreateMasterKey(ctx); err != nil {
		return apperrors.Wrap(err, "failed to ensure master key")
	}

	if _, err := d.meta.Get(ctx, documentDomain.MetaKeyCipherVersion); err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Wrap(err, "failed to read cipher version")
		}
		if err := d.meta.Set(ctx, documentDomain.MetaKeyCipherVersion, documentDomain.CipherVersionSealed); err != nil {
			return apperrors.Wrap(err, "failed to write cipher version")
		}
	}

	// A store conversion leaves the token index stale; rebuild before the
	// first search needs it rather than checking on every search.
	dirty, err := d.meta.Get(ctx, documentDomain.MetaKeySearchIndexDirty)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return apperrors.Wrap(err, "failed to read search index marker")
	}
	if dirty == documentDomain.SearchIndexDirty {
		if err := d.RebuildSearchIndex(ctx); err != nil {
			return apperrors.Wrap(err, "failed to rebuild search index")
		}
	}

	return nil
}

// CreateDocumentWithPages imports a scanned document. Ciphertext files are
// written first and all rows commit in one transaction afterwards, so a
// failure at any point removes what was written and leaves no trace of the
// document.
func (d *documentStore) CreateDocumentWithPages(ctx context.Context, input CreateDocumentInput) (*documentDomain.Document, error) {
	if len(input.PageSourcePaths) == 0 {
		return nil, documentDomain.ErrNoPages
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	// Every source must exist before the first byte is written; checking
	// late would mean cleaning up a half-imported document instead.
	sources := input.PageSourcePaths
	if input.ThumbnailSourcePath != "" {
		sources = append(append([]string{}, sources...), input.ThumbnailSourcePath)
	}
	for _, src := range sources {
		if _, err := os.Stat(src); err != nil {
			return nil, apperrors.Wrapf(documentDomain.ErrSourceFileMissing, "%s", src)
		}
	}

	documentID := uuid.New()
	now := time.Now().UTC()

	written, sizeBytes, err := d.encryptPages(ctx, documentID, input.PageSourcePaths)
	if err != nil {
		d.removeFiles(written)
		return nil, err
	}

	thumbnailPath := ""
	if input.ThumbnailSourcePath != "" {
		thumbnailPath = d.layout.ThumbnailPath(documentID.String())
		if err := d.codec.EncryptFile(ctx, input.ThumbnailSourcePath, thumbnailPath); err != nil {
			d.removeFiles(written)
			return nil, apperrors.Wrap(err, "failed to encrypt thumbnail")
		}
		written = append(written, thumbnailPath)
	}

	sealedTitle, err := d.sealString(ctx, input.Title)
	if err != nil {
		d.removeFiles(written)
		return nil, apperrors.Wrap(err, "failed to seal title")
	}
	sealedDescription, err := d.sealString(ctx, input.Description)
	if err != nil {
		d.removeFiles(written)
		return nil, apperrors.Wrap(err, "failed to seal description")
	}
	macs, err := d.indexer.TokenMACs(ctx, searchableText(input.Title, input.Description))
	if err != nil {
		d.removeFiles(written)
		return nil, err
	}

	doc := &documentDomain.Document{
		ID:            documentID,
		Title:         sealedTitle,
		Description:   sealedDescription,
		ThumbnailPath: thumbnailPath,
		OcrStatus:     documentDomain.OcrStatusPending,
		SizeBytes:     sizeBytes,
		MimeType:      input.MimeType,
		FolderID:      input.FolderID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	pages := make([]documentDomain.DocumentPage, len(input.PageSourcePaths))
	for i := range input.PageSourcePaths {
		pages[i] = documentDomain.DocumentPage{
			DocumentID: documentID,
			PageNumber: i + 1,
			FilePath:   written[i],
		}
	}

	err = d.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := d.documents.Create(txCtx, doc); err != nil {
			return err
		}
		if err := d.documents.CreatePages(txCtx, pages); err != nil {
			return err
		}
		if len(input.TagIDs) > 0 {
			if err := d.documents.SetTags(txCtx, documentID, input.TagIDs); err != nil {
				return err
			}
		}
		return d.searchIndex.ReplaceTokens(txCtx, documentID, macs)
	})
	if err != nil {
		d.removeFiles(written)
		return nil, apperrors.Wrap(err, "failed to store document")
	}

	doc.Title = input.Title
	doc.Description = input.Description
	doc.Pages = pages
	return doc, nil
}

// encryptPages writes one ciphertext file per source page and returns the
// written paths with their total size. On error the caller removes the
// returned paths.
func (d *documentStore) encryptPages(ctx context.Context, documentID uuid.UUID, sources []string) ([]string, int64, error) {
	var written []string
	var total int64
	for i, src := range sources {
		dst := d.layout.PagePath(documentID.String(), i+1)
		if err := d.codec.EncryptFile(ctx, src, dst); err != nil {
			return written, 0, apperrors.Wrapf(err, "failed to encrypt page %d", i+1)
		}
		written = append(written, dst)

		info, err := os.Stat(dst)
		if err != nil {
			return written, 0, apperrors.Wrap(err, "failed to stat encrypted page")
		}
		total += info.Size()
	}
	return written, total, nil
}

// GetDocument returns one document with pages and tags attached.
func (d *documentStore) GetDocument(ctx context.Context, id uuid.UUID) (*documentDomain.Document, error) {
	doc, err := d.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	docs, err := d.assemble(ctx, []*documentDomain.Document{doc})
	if err != nil {
		return nil, err
	}
	return docs[0], nil
}

// GetAllDocuments lists every document, most recently updated first.
func (d *documentStore) GetAllDocuments(ctx context.Context) ([]*documentDomain.Document, error) {
	docs, err := d.documents.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return d.assemble(ctx, docs)
}

// GetDocumentsInFolder lists the documents in one folder.
func (d *documentStore) GetDocumentsInFolder(ctx context.Context, folderID uuid.UUID) ([]*documentDomain.Document, error) {
	docs, err := d.documents.GetByFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	return d.assemble(ctx, docs)
}

// GetFavoriteDocuments lists the documents marked favorite.
func (d *documentStore) GetFavoriteDocuments(ctx context.Context) ([]*documentDomain.Document, error) {
	docs, err := d.documents.GetFavorites(ctx)
	if err != nil {
		return nil, err
	}
	return d.assemble(ctx, docs)
}

// GetDocumentsByTag lists the documents carrying one tag.
func (d *documentStore) GetDocumentsByTag(ctx context.Context, tagID uuid.UUID) ([]*documentDomain.Document, error) {
	docs, err := d.documents.GetByTag(ctx, tagID)
	if err != nil {
		return nil, err
	}
	return d.assemble(ctx, docs)
}

// SearchDocuments finds the documents whose token index matches every token
// of the query, then records the query in the search history. The query
// itself never reaches the database: only its keyed token MACs do, and the
// history row stores it sealed.
func (d *documentStore) SearchDocuments(ctx context.Context, query string) ([]*documentDomain.Document, error) {
	macs, err := d.indexer.TokenMACs(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(macs) == 0 {
		return nil, nil
	}

	ids, err := d.searchIndex.FindDocumentIDs(ctx, macs)
	if err != nil {
		return nil, err
	}
	docs, err := d.documents.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	docs, err = d.assemble(ctx, docs)
	if err != nil {
		return nil, err
	}

	if err := d.recordSearch(ctx, query); err != nil {
		return nil, err
	}
	return docs, nil
}

func (d *documentStore) recordSearch(ctx context.Context, query string) error {
	sealed, err := d.sealString(ctx, query)
	if err != nil {
		return apperrors.Wrap(err, "failed to seal search query")
	}
	entry := &documentDomain.SearchEntry{
		Query:      sealed,
		SearchedAt: time.Now().UTC(),
	}
	return d.searchHistory.RecordSearch(ctx, entry)
}

// assemble attaches pages and tags to the given documents with one batched
// query each, then unseals the caller-facing strings. Listing costs two
// queries on top of the row read no matter how many documents matched.
func (d *documentStore) assemble(ctx context.Context, docs []*documentDomain.Document) ([]*documentDomain.Document, error) {
	if len(docs) == 0 {
		return docs, nil
	}

	ids := make([]uuid.UUID, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}

	pages, err := d.documents.GetPagesByDocumentIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	tags, err := d.documents.GetTagsByDocumentIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		doc.Pages = pages[doc.ID]
		doc.Tags = tags[doc.ID]
		if err := d.unseal(ctx, doc); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// unseal replaces a document's sealed strings with their plaintext. A
// failure keeps the cause intact, so tamper detection survives the trip to
// the caller.
func (d *documentStore) unseal(ctx context.Context, doc *documentDomain.Document) error {
	title, err := d.unsealString(ctx, doc.Title)
	if err != nil {
		return apperrors.Wrapf(err, "failed to unseal document %s", doc.ID)
	}
	description, err := d.unsealString(ctx, doc.Description)
	if err != nil {
		return apperrors.Wrapf(err, "failed to unseal document %s", doc.ID)
	}
	ocrText, err := d.unsealString(ctx, doc.OcrText)
	if err != nil {
		return apperrors.Wrapf(err, "failed to unseal document %s", doc.ID)
	}
	doc.Title = title
	doc.Description = description
	doc.OcrText = ocrText
	return nil
}

// sealString encrypts s for storage. Empty stays empty: absent values are
// stored as NULL, not as sealed empty strings.
func (d *documentStore) sealString(ctx context.Context, s string) (string, error) {
	if s == "" {
		return "", nil
	}
	return d.codec.EncryptString(ctx, s)
}

func (d *documentStore) unsealString(ctx context.Context, s string) (string, error) {
	if s == "" {
		return "", nil
	}
	return d.codec.DecryptString(ctx, s)
}

// searchableText joins the text fields that feed a document's token index.
func searchableText(parts ...string) string {
	return strings.TrimSpace(strings.Join(parts, " "))
}

// removeFiles best-effort deletes ciphertext files, typically while backing
// out a failed import. Failures are logged and swallowed so they never mask
// the error that triggered the cleanup.
func (d *documentStore) removeFiles(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			d.logger.Warn("failed to remove file",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}
}

// eraseFiles securely deletes plaintext temp files. Same contract as
// removeFiles: log, never fail.
func (d *documentStore) eraseFiles(ctx context.Context, paths []string) {
	for _, path := range paths {
		if _, err := d.eraser.SecureDeleteFile(ctx, path); err != nil {
			d.logger.Warn("failed to erase temp file",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}
}
