package usecase

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	apperrors "github.com/scanvault/scanvault/internal/errors"
	"github.com/scanvault/scanvault/internal/storage"
	appValidation "github.com/scanvault/scanvault/internal/validation"
)

// CreateFolder creates a named folder.
func (d *documentStore) CreateFolder(ctx context.Context, name string) (*documentDomain.Folder, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	folder := &documentDomain.Folder{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.folders.Create(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// RenameFolder renames a folder.
func (d *documentStore) RenameFolder(ctx context.Context, id uuid.UUID, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	return d.folders.Rename(ctx, id, name)
}

// DeleteFolder removes a folder. Its documents are detached, not deleted.
func (d *documentStore) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	return d.folders.Delete(ctx, id)
}

// ListFolders lists all folders by name.
func (d *documentStore) ListFolders(ctx context.Context) ([]*documentDomain.Folder, error) {
	return d.folders.GetAll(ctx)
}

// CreateTag creates a tag. Names are unique; color is an optional hex code.
func (d *documentStore) CreateTag(ctx context.Context, name, color string) (*documentDomain.Tag, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateColor(color); err != nil {
		return nil, err
	}

	if _, err := d.tags.GetByName(ctx, name); err == nil {
		return nil, apperrors.Wrapf(documentDomain.ErrTagNameTaken, "%s", name)
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	tag := &documentDomain.Tag{
		ID:        uuid.New(),
		Name:      name,
		Color:     color,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.tags.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// UpdateTag changes a tag's name and color.
func (d *documentStore) UpdateTag(ctx context.Context, id uuid.UUID, name, color string) (*documentDomain.Tag, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateColor(color); err != nil {
		return nil, err
	}

	tag, err := d.tags.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != tag.Name {
		if _, err := d.tags.GetByName(ctx, name); err == nil {
			return nil, apperrors.Wrapf(documentDomain.ErrTagNameTaken, "%s", name)
		} else if !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	tag.Name = name
	tag.Color = color
	if err := d.tags.Update(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteTag removes a tag from every document carrying it.
func (d *documentStore) DeleteTag(ctx context.Context, id uuid.UUID) error {
	return d.tags.Delete(ctx, id)
}

// ListTags lists all tags by name.
func (d *documentStore) ListTags(ctx context.Context) ([]*documentDomain.Tag, error) {
	return d.tags.GetAll(ctx)
}

// TagDocument attaches a tag to a document. Tagging twice is a no-op.
func (d *documentStore) TagDocument(ctx context.Context, documentID, tagID uuid.UUID) error {
	if _, err := d.documents.GetByID(ctx, documentID); err != nil {
		return err
	}
	if _, err := d.tags.GetByID(ctx, tagID); err != nil {
		return err
	}

	tagsByDoc, err := d.documents.GetTagsByDocumentIDs(ctx, []uuid.UUID{documentID})
	if err != nil {
		return err
	}

	current := tagsByDoc[documentID]
	ids := make([]uuid.UUID, 0, len(current)+1)
	for _, tag := range current {
		if tag.ID == tagID {
			return nil
		}
		ids = append(ids, tag.ID)
	}
	ids = append(ids, tagID)
	return d.documents.SetTags(ctx, documentID, ids)
}

// UntagDocument detaches a tag from a document. Detaching an absent tag is
// a no-op.
func (d *documentStore) UntagDocument(ctx context.Context, documentID, tagID uuid.UUID) error {
	if _, err := d.documents.GetByID(ctx, documentID); err != nil {
		return err
	}

	tagsByDoc, err := d.documents.GetTagsByDocumentIDs(ctx, []uuid.UUID{documentID})
	if err != nil {
		return err
	}

	current := tagsByDoc[documentID]
	ids := make([]uuid.UUID, 0, len(current))
	found := false
	for _, tag := range current {
		if tag.ID == tagID {
			found = true
			continue
		}
		ids = append(ids, tag.ID)
	}
	if !found {
		return nil
	}
	return d.documents.SetTags(ctx, documentID, ids)
}

// SaveSignature encrypts a signature image into the vault.
func (d *documentStore) SaveSignature(ctx context.Context, name, sourcePath string) (*documentDomain.Signature, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, apperrors.Wrapf(documentDomain.ErrSourceFileMissing, "%s", sourcePath)
	}

	id := uuid.New()
	path := d.layout.SignaturePath(id.String())
	if err := d.codec.EncryptFile(ctx, sourcePath, path); err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt signature")
	}

	signature := &documentDomain.Signature{
		ID:        id,
		Name:      name,
		FilePath:  path,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.signatures.Create(ctx, signature); err != nil {
		d.removeFiles([]string{path})
		return nil, err
	}
	return signature, nil
}

// ListSignatures lists stored signatures, newest first.
func (d *documentStore) ListSignatures(ctx context.Context) ([]*documentDomain.Signature, error) {
	return d.signatures.GetAll(ctx)
}

// DeleteSignature erases the signature file and removes its row. A file
// that will not erase is logged and never blocks the metadata removal.
func (d *documentStore) DeleteSignature(ctx context.Context, id uuid.UUID) error {
	signature, err := d.signatures.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := d.eraser.SecureDeleteFile(ctx, signature.FilePath); err != nil {
		d.logger.Warn("failed to erase signature file",
			slog.String("path", signature.FilePath),
			slog.String("error", err.Error()))
	}
	return d.signatures.Delete(ctx, id)
}

// RecentSearches returns the latest remembered queries, newest first,
// unsealed for display.
func (d *documentStore) RecentSearches(ctx context.Context, limit int) ([]*documentDomain.SearchEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	entries, err := d.searchHistory.History(ctx, limit)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		query, err := d.unsealString(ctx, entry.Query)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unseal search history")
		}
		entry.Query = query
	}
	return entries, nil
}

// ClearSearchHistory forgets all remembered queries.
func (d *documentStore) ClearSearchHistory(ctx context.Context) error {
	return d.searchHistory.ClearHistory(ctx)
}

// RebuildSearchIndex re-derives the token index for every document from
// its unsealed text, replaces all index rows in one transaction, and
// clears the dirty marker.
func (d *documentStore) RebuildSearchIndex(ctx context.Context) error {
	docs, err := d.documents.GetAll(ctx)
	if err != nil {
		return err
	}

	type docTokens struct {
		id   uuid.UUID
		macs [][]byte
	}
	tokens := make([]docTokens, 0, len(docs))
	for _, doc := range docs {
		if err := d.unseal(ctx, doc); err != nil {
			return err
		}
		macs, err := d.indexer.TokenMACs(ctx, searchableText(doc.Title, doc.Description, doc.OcrText))
		if err != nil {
			return err
		}
		tokens = append(tokens, docTokens{id: doc.ID, macs: macs})
	}

	return d.txManager.WithTx(ctx, func(txCtx context.Context) error {
		for _, t := range tokens {
			if err := d.searchIndex.ReplaceTokens(txCtx, t.id, t.macs); err != nil {
				return err
			}
		}
		return d.meta.Delete(txCtx, documentDomain.MetaKeySearchIndexDirty)
	})
}

// GetStorageInfo reports document counts, on-disk sizes, and thumbnail
// cache behavior. Document bytes come from the rows; the directory walks
// cover what no row tracks.
func (d *documentStore) GetStorageInfo(ctx context.Context) (*documentDomain.StorageInfo, error) {
	docs, pages, documentBytes, err := d.documents.Counts(ctx)
	if err != nil {
		return nil, err
	}

	thumbnailBytes, err := storage.DirSize(d.layout.ThumbnailsDir())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to size thumbnails directory")
	}
	signatureBytes, err := storage.DirSize(d.layout.SignaturesDir())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to size signatures directory")
	}
	tempBytes, err := storage.DirSize(d.layout.TempDir())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to size temp directory")
	}

	var databaseBytes int64
	if info, err := os.Stat(d.storePath); err == nil {
		databaseBytes = info.Size()
	}

	stats := d.thumbnails.Stats()
	return &documentDomain.StorageInfo{
		DocumentCount:       docs,
		PageCount:           pages,
		TotalSizeBytes:      documentBytes + thumbnailBytes + signatureBytes + tempBytes + databaseBytes,
		DocumentsSizeBytes:  documentBytes,
		ThumbnailsSizeBytes: thumbnailBytes,
		SignaturesSizeBytes: signatureBytes,
		TempSizeBytes:       tempBytes,
		DatabaseSizeBytes:   databaseBytes,
		CacheHits:           stats.Hits,
		CacheMisses:         stats.Misses,
		CacheSizeBytes:      stats.SizeBytes,
		CacheItems:          stats.Items,
	}, nil
}

func validateName(name string) error {
	return appValidation.WrapValidationError(validation.Validate(name,
		validation.Required.Error("name is required"),
		appValidation.NotBlank,
		validation.Length(1, 100).Error("name must be between 1 and 100 characters"),
	))
}

func validateColor(color string) error {
	if color == "" {
		return nil
	}
	return appValidation.WrapValidationError(validation.Validate(color, appValidation.HexColor))
}
