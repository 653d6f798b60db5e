package usecase

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

// UpdateDocument changes title and description. The search tokens are
// re-derived from the new text plus any recognized text already on the
// document, and both writes commit together.
func (d *documentStore) UpdateDocument(ctx context.Context, input UpdateDocumentInput) (*documentDomain.Document, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	doc, err := d.documents.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	ocrText, err := d.unsealString(ctx, doc.OcrText)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to unseal document %s", doc.ID)
	}

	sealedTitle, err := d.sealString(ctx, input.Title)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to seal title")
	}
	sealedDescription, err := d.sealString(ctx, input.Description)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to seal description")
	}
	macs, err := d.indexer.TokenMACs(ctx, searchableText(input.Title, input.Description, ocrText))
	if err != nil {
		return nil, err
	}

	doc.Title = sealedTitle
	doc.Description = sealedDescription
	doc.UpdatedAt = time.Now().UTC()

	err = d.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := d.documents.UpdateMetadata(txCtx, doc); err != nil {
			return err
		}
		return d.searchIndex.ReplaceTokens(txCtx, doc.ID, macs)
	})
	if err != nil {
		return nil, err
	}

	doc.Title = input.Title
	doc.Description = input.Description
	doc.OcrText = ocrText
	return doc, nil
}

// UpdateDocumentThumbnail replaces the document's thumbnail with a freshly
// encrypted copy of the given image and drops the stale cache entry.
func (d *documentStore) UpdateDocumentThumbnail(ctx context.Context, id uuid.UUID, sourcePath string) error {
	if _, err := os.Stat(sourcePath); err != nil {
		return apperrors.Wrapf(documentDomain.ErrSourceFileMissing, "%s", sourcePath)
	}

	doc, err := d.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if doc.ThumbnailPath != "" {
		d.removeFiles([]string{doc.ThumbnailPath})
	}

	path := d.layout.ThumbnailPath(id.String())
	if err := d.codec.EncryptFile(ctx, sourcePath, path); err != nil {
		return apperrors.Wrap(err, "failed to encrypt thumbnail")
	}
	if err := d.documents.UpdateThumbnailPath(ctx, id, path, time.Now().UTC()); err != nil {
		return err
	}

	d.thumbnails.Remove(id)
	return nil
}

// MoveDocumentToFolder files the document under a folder, or under no
// folder when folderID is nil.
func (d *documentStore) MoveDocumentToFolder(ctx context.Context, id uuid.UUID, folderID *uuid.UUID) error {
	if folderID != nil {
		if _, err := d.folders.GetByID(ctx, *folderID); err != nil {
			return err
		}
	}

	doc, err := d.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// Title and description ride along still sealed; only the folder and
	// timestamp actually change.
	doc.FolderID = folderID
	doc.UpdatedAt = time.Now().UTC()
	return d.documents.UpdateMetadata(ctx, doc)
}

// ToggleFavorite flips the favorite mark and returns the new state.
func (d *documentStore) ToggleFavorite(ctx context.Context, id uuid.UUID) (bool, error) {
	doc, err := d.documents.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	favorite := !doc.IsFavorite
	if err := d.documents.UpdateFavorite(ctx, id, favorite, time.Now().UTC()); err != nil {
		return false, err
	}
	return favorite, nil
}

// SetOcrStatus advances the document's text recognition state.
func (d *documentStore) SetOcrStatus(ctx context.Context, id uuid.UUID, status documentDomain.OcrStatus) error {
	if !status.Valid() {
		return apperrors.Wrapf(documentDomain.ErrInvalidOcrStatus, "%s", status)
	}

	doc, err := d.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !doc.OcrStatus.CanTransitionTo(status) {
		return apperrors.Wrapf(documentDomain.ErrOcrTransitionNotAllowed, "%s to %s", doc.OcrStatus, status)
	}

	return d.documents.UpdateOcrStatus(ctx, id, status, time.Now().UTC())
}

// CompleteOcr stores the recognized text, marks recognition complete, and
// folds the text into the document's search tokens. The document must be
// in the processing state.
func (d *documentStore) CompleteOcr(ctx context.Context, id uuid.UUID, text string) error {
	doc, err := d.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !doc.OcrStatus.CanTransitionTo(documentDomain.OcrStatusCompleted) {
		return apperrors.Wrapf(documentDomain.ErrOcrTransitionNotAllowed, "%s to %s", doc.OcrStatus, documentDomain.OcrStatusCompleted)
	}

	title, err := d.unsealString(ctx, doc.Title)
	if err != nil {
		return apperrors.Wrapf(err, "failed to unseal document %s", doc.ID)
	}
	description, err := d.unsealString(ctx, doc.Description)
	if err != nil {
		return apperrors.Wrapf(err, "failed to unseal document %s", doc.ID)
	}

	sealedText, err := d.sealString(ctx, text)
	if err != nil {
		return apperrors.Wrap(err, "failed to seal recognized text")
	}
	macs, err := d.indexer.TokenMACs(ctx, searchableText(title, description, text))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return d.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := d.documents.UpdateOcr(txCtx, id, sealedText, documentDomain.OcrStatusCompleted, now); err != nil {
			return err
		}
		return d.searchIndex.ReplaceTokens(txCtx, id, macs)
	})
}

// DeleteDocument removes a document. Encrypted files and the cache entry
// go first, then the rows commit away in one transaction; a file that will
// not delete is logged and never blocks the metadata removal.
func (d *documentStore) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	doc, err := d.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	pagesByDoc, err := d.documents.GetPagesByDocumentIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return err
	}

	var paths []string
	for _, page := range pagesByDoc[id] {
		paths = append(paths, page.FilePath)
	}
	if doc.ThumbnailPath != "" {
		paths = append(paths, doc.ThumbnailPath)
	}
	d.removeFiles(paths)
	d.thumbnails.Remove(id)

	err = d.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := d.documents.DeletePages(txCtx, id); err != nil {
			return err
		}
		return d.documents.Delete(txCtx, id)
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to delete document")
	}
	return nil
}

// DeleteDocuments removes many documents with bounded concurrency. Every
// id is attempted regardless of earlier failures; the returned error joins
// whatever went wrong.
func (d *documentStore) DeleteDocuments(ctx context.Context, ids []uuid.UUID) error {
	var mu sync.Mutex
	var failures []error

	g := new(errgroup.Group)
	g.SetLimit(batchFanout)
	for _, id := range ids {
		g.Go(func() error {
			if err := d.DeleteDocument(ctx, id); err != nil {
				mu.Lock()
				failures = append(failures, apperrors.Wrapf(err, "document %s", id))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return apperrors.Join(failures...)
}
