package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	"github.com/scanvault/scanvault/internal/erase"
	appValidation "github.com/scanvault/scanvault/internal/validation"
)

// DocumentRepository defines the contract for document persistence. Title,
// Description, and OcrText cross this boundary sealed; the repository never
// sees plaintext.
type DocumentRepository interface {
	Create(ctx context.Context, doc *documentDomain.Document) error
	CreatePages(ctx context.Context, pages []documentDomain.DocumentPage) error
	GetByID(ctx context.Context, id uuid.UUID) (*documentDomain.Document, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*documentDomain.Document, error)
	GetAll(ctx context.Context) ([]*documentDomain.Document, error)
	GetByFolder(ctx context.Context, folderID uuid.UUID) ([]*documentDomain.Document, error)
	GetFavorites(ctx context.Context) ([]*documentDomain.Document, error)
	GetByTag(ctx context.Context, tagID uuid.UUID) ([]*documentDomain.Document, error)
	GetPagesByDocumentIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]documentDomain.DocumentPage, error)
	GetTagsByDocumentIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]documentDomain.Tag, error)
	SetTags(ctx context.Context, documentID uuid.UUID, tagIDs []uuid.UUID) error
	UpdateMetadata(ctx context.Context, doc *documentDomain.Document) error
	UpdateOcr(ctx context.Context, id uuid.UUID, sealedText string, status documentDomain.OcrStatus, updatedAt time.Time) error
	UpdateOcrStatus(ctx context.Context, id uuid.UUID, status documentDomain.OcrStatus, updatedAt time.Time) error
	UpdateThumbnailPath(ctx context.Context, id uuid.UUID, path string, updatedAt time.Time) error
	UpdateFavorite(ctx context.Context, id uuid.UUID, favorite bool, updatedAt time.Time) error
	DeletePages(ctx context.Context, documentID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	Counts(ctx context.Context) (docs int, pages int, sizeBytes int64, err error)
}

// FolderRepository defines the contract for folder persistence.
type FolderRepository interface {
	Create(ctx context.Context, folder *documentDomain.Folder) error
	GetByID(ctx context.Context, id uuid.UUID) (*documentDomain.Folder, error)
	GetAll(ctx context.Context) ([]*documentDomain.Folder, error)
	Rename(ctx context.Context, id uuid.UUID, name string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TagRepository defines the contract for tag persistence.
type TagRepository interface {
	Create(ctx context.Context, tag *documentDomain.Tag) error
	GetByID(ctx context.Context, id uuid.UUID) (*documentDomain.Tag, error)
	GetByName(ctx context.Context, name string) (*documentDomain.Tag, error)
	GetAll(ctx context.Context) ([]*documentDomain.Tag, error)
	Update(ctx context.Context, tag *documentDomain.Tag) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SignatureRepository defines the contract for signature persistence.
type SignatureRepository interface {
	Create(ctx context.Context, signature *documentDomain.Signature) error
	GetByID(ctx context.Context, id uuid.UUID) (*documentDomain.Signature, error)
	GetAll(ctx context.Context) ([]*documentDomain.Signature, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SearchIndexRepository defines the contract for the encrypted token index.
type SearchIndexRepository interface {
	ReplaceTokens(ctx context.Context, documentID uuid.UUID, macs [][]byte) error
	FindDocumentIDs(ctx context.Context, macs [][]byte) ([]uuid.UUID, error)
}

// SearchHistoryRepository defines the contract for remembered searches.
// Queries cross this boundary sealed.
type SearchHistoryRepository interface {
	RecordSearch(ctx context.Context, entry *documentDomain.SearchEntry) error
	History(ctx context.Context, limit int) ([]*documentDomain.SearchEntry, error)
	ClearHistory(ctx context.Context) error
}

// MetaRepository defines the contract for the store's key-value markers.
type MetaRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// KeyVault provides the master key backing every cipher operation.
type KeyVault interface {
	GetOrCreateMasterKey(ctx context.Context) ([]byte, error)
}

// FileEraser destroys plaintext files beyond recovery.
type FileEraser interface {
	SecureDeleteFile(ctx context.Context, path string) (erase.Result, error)
}

// CreateDocumentInput carries everything needed to import a scanned
// document. PageSourcePaths are plaintext images on disk; they are read,
// encrypted into the vault, and left in place for the caller to dispose of.
type CreateDocumentInput struct {
	Title               string
	Description         string
	MimeType            string
	FolderID            *uuid.UUID
	TagIDs              []uuid.UUID
	PageSourcePaths     []string
	ThumbnailSourcePath string
}

// Validate validates the CreateDocumentInput using the jellydator/validation library
func (i CreateDocumentInput) Validate() error {
	err := validation.ValidateStruct(&i,
		validation.Field(&i.Title,
			validation.Required.Error("title is required"),
			appValidation.NotBlank,
			validation.Length(1, 500).Error("title must be between 1 and 500 characters"),
		),
		validation.Field(&i.MimeType,
			validation.Required.Error("mime type is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// UpdateDocumentInput carries the editable document metadata.
type UpdateDocumentInput struct {
	ID          uuid.UUID
	Title       string
	Description string
}

// Validate validates the UpdateDocumentInput using the jellydator/validation library
func (i UpdateDocumentInput) Validate() error {
	err := validation.ValidateStruct(&i,
		validation.Field(&i.Title,
			validation.Required.Error("title is required"),
			appValidation.NotBlank,
			validation.Length(1, 500).Error("title must be between 1 and 500 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// DocumentStore is the vault's business interface. It owns the boundary
// where plaintext exists: strings are sealed before they reach a repository
// and unsealed on the way back out, page images live encrypted on disk and
// are only ever decrypted into temp files or memory on demand.
type DocumentStore interface {
	// Initialize prepares the vault for use: data directories, master key,
	// store markers, and a search index rebuild if a conversion left the
	// index stale. Call it once at startup.
	Initialize(ctx context.Context) error

	// CreateDocumentWithPages imports a scanned document. Page and
	// thumbnail files are encrypted first; all rows then commit in one
	// transaction, and any failure removes the files already written, so
	// a document either exists completely or not at all. The returned
	// document carries its pages; tags are loaded on reads.
	CreateDocumentWithPages(ctx context.Context, input CreateDocumentInput) (*documentDomain.Document, error)

	// GetDocument returns one document with pages and tags attached.
	GetDocument(ctx context.Context, id uuid.UUID) (*documentDomain.Document, error)

	// GetAllDocuments lists every document, most recently updated first.
	GetAllDocuments(ctx context.Context) ([]*documentDomain.Document, error)

	// GetDocumentsInFolder lists the documents in one folder.
	GetDocumentsInFolder(ctx context.Context, folderID uuid.UUID) ([]*documentDomain.Document, error)

	// GetFavoriteDocuments lists the documents marked favorite.
	GetFavoriteDocuments(ctx context.Context) ([]*documentDomain.Document, error)

	// GetDocumentsByTag lists the documents carrying one tag.
	GetDocumentsByTag(ctx context.Context, tagID uuid.UUID) ([]*documentDomain.Document, error)

	// SearchDocuments finds documents matching every token of the query
	// via the encrypted index and records the query in the search history.
	SearchDocuments(ctx context.Context, query string) ([]*documentDomain.Document, error)

	// GetDecryptedPagePath decrypts one page into the temp directory and
	// returns the plaintext file's path. The caller owns the file and
	// should have it securely erased when done.
	GetDecryptedPagePath(ctx context.Context, id uuid.UUID, pageNumber int) (string, error)

	// GetDecryptedAllPages decrypts every page of a document into the
	// temp directory, in page order.
	GetDecryptedAllPages(ctx context.Context, id uuid.UUID) ([]string, error)

	// GetDecryptedPageBytes returns one page's plaintext in memory. No
	// plaintext is left on disk afterwards.
	GetDecryptedPageBytes(ctx context.Context, id uuid.UUID, pageNumber int) ([]byte, error)

	// GetDecryptedThumbnail returns a document's thumbnail image,
	// serving from the in-memory cache when it can.
	GetDecryptedThumbnail(ctx context.Context, id uuid.UUID) ([]byte, error)

	// GetDecryptedThumbnails resolves thumbnails for many documents at
	// once. Documents whose thumbnail is missing or unreadable are left
	// out of the result rather than failing the batch.
	GetDecryptedThumbnails(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]byte, error)

	// UpdateDocument changes title and description and re-derives the
	// document's search tokens.
	UpdateDocument(ctx context.Context, input UpdateDocumentInput) (*documentDomain.Document, error)

	// UpdateDocumentThumbnail replaces the document's thumbnail with a
	// freshly encrypted copy of the given image.
	UpdateDocumentThumbnail(ctx context.Context, id uuid.UUID, sourcePath string) error

	// MoveDocumentToFolder files the document under a folder, or under no
	// folder when folderID is nil.
	MoveDocumentToFolder(ctx context.Context, id uuid.UUID, folderID *uuid.UUID) error

	// ToggleFavorite flips the favorite mark and returns the new state.
	ToggleFavorite(ctx context.Context, id uuid.UUID) (bool, error)

	// SetOcrStatus advances the document's text recognition state. Only
	// forward transitions are allowed.
	SetOcrStatus(ctx context.Context, id uuid.UUID, status documentDomain.OcrStatus) error

	// CompleteOcr stores the recognized text, marks recognition complete,
	// and folds the text into the document's search tokens.
	CompleteOcr(ctx context.Context, id uuid.UUID, text string) error

	// DeleteDocument removes a document: its encrypted files, its cache
	// entry, and its rows. File removal failures are logged, not fatal.
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	// DeleteDocuments removes many documents concurrently. Every id is
	// attempted; the returned error aggregates the ones that failed.
	DeleteDocuments(ctx context.Context, ids []uuid.UUID) error

	// CreateFolder creates a named folder.
	CreateFolder(ctx context.Context, name string) (*documentDomain.Folder, error)

	// RenameFolder renames a folder.
	RenameFolder(ctx context.Context, id uuid.UUID, name string) error

	// DeleteFolder removes a folder. Its documents are detached, not
	// deleted.
	DeleteFolder(ctx context.Context, id uuid.UUID) error

	// ListFolders lists all folders by name.
	ListFolders(ctx context.Context) ([]*documentDomain.Folder, error)

	// CreateTag creates a tag with a display color.
	CreateTag(ctx context.Context, name, color string) (*documentDomain.Tag, error)

	// UpdateTag changes a tag's name and color.
	UpdateTag(ctx context.Context, id uuid.UUID, name, color string) (*documentDomain.Tag, error)

	// DeleteTag removes a tag from every document carrying it.
	DeleteTag(ctx context.Context, id uuid.UUID) error

	// ListTags lists all tags by name.
	ListTags(ctx context.Context) ([]*documentDomain.Tag, error)

	// TagDocument attaches a tag to a document. Tagging twice is a no-op.
	TagDocument(ctx context.Context, documentID, tagID uuid.UUID) error

	// UntagDocument detaches a tag from a document.
	UntagDocument(ctx context.Context, documentID, tagID uuid.UUID) error

	// SaveSignature encrypts a signature image into the vault.
	SaveSignature(ctx context.Context, name, sourcePath string) (*documentDomain.Signature, error)

	// ListSignatures lists stored signatures, newest first.
	ListSignatures(ctx context.Context) ([]*documentDomain.Signature, error)

	// DeleteSignature erases the signature file and removes its row.
	DeleteSignature(ctx context.Context, id uuid.UUID) error

	// RecentSearches returns the latest remembered queries, newest first.
	RecentSearches(ctx context.Context, limit int) ([]*documentDomain.SearchEntry, error)

	// ClearSearchHistory forgets all remembered queries.
	ClearSearchHistory(ctx context.Context) error

	// RebuildSearchIndex re-derives the token index for every document.
	RebuildSearchIndex(ctx context.Context) error

	// GetStorageInfo reports document counts, on-disk sizes, and
	// thumbnail cache behavior.
	GetStorageInfo(ctx context.Context) (*documentDomain.StorageInfo, error)
}
