package usecase

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

// GetDecryptedPagePath decrypts one page into the temp directory and
// returns the plaintext file's path. The caller owns the file; erasing it
// when done is what keeps plaintext off disk.
func (d *documentStore) GetDecryptedPagePath(ctx context.Context, id uuid.UUID, pageNumber int) (string, error) {
	page, mimeType, err := d.findPage(ctx, id, pageNumber)
	if err != nil {
		return "", err
	}

	dst := d.layout.TempFile(extensionFor(mimeType))
	if err := d.codec.DecryptFile(ctx, page.FilePath, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// GetDecryptedAllPages decrypts every page of a document into the temp
// directory, in page order. A failure part way erases the plaintext already
// produced before returning.
func (d *documentStore) GetDecryptedAllPages(ctx context.Context, id uuid.UUID) ([]string, error) {
	doc, err := d.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pagesByDoc, err := d.documents.GetPagesByDocumentIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}

	var outputs []string
	for _, page := range pagesByDoc[id] {
		dst := d.layout.TempFile(extensionFor(doc.MimeType))
		if err := d.codec.DecryptFile(ctx, page.FilePath, dst); err != nil {
			d.eraseFiles(context.WithoutCancel(ctx), outputs)
			return nil, apperrors.Wrapf(err, "failed to decrypt page %d", page.PageNumber)
		}
		outputs = append(outputs, dst)
	}
	return outputs, nil
}

// GetDecryptedPageBytes returns one page's plaintext in memory. The
// intermediate temp file is securely erased before returning, whether the
// read worked or not.
func (d *documentStore) GetDecryptedPageBytes(ctx context.Context, id uuid.UUID, pageNumber int) ([]byte, error) {
	path, err := d.GetDecryptedPagePath(ctx, id, pageNumber)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	d.eraseFiles(context.WithoutCancel(ctx), []string{path})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read decrypted page")
	}
	return data, nil
}

// GetDecryptedThumbnail returns a document's thumbnail image, serving from
// the in-memory cache when it can and decrypting on a miss.
func (d *documentStore) GetDecryptedThumbnail(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if data, ok := d.thumbnails.Get(id); ok {
		return data, nil
	}

	doc, err := d.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.ThumbnailPath == "" {
		return nil, apperrors.Wrapf(documentDomain.ErrThumbnailNotFound, "document %s", id)
	}

	data, err := d.decryptToMemory(ctx, doc.ThumbnailPath)
	if err != nil {
		return nil, err
	}
	d.thumbnails.Put(id, data)
	return data, nil
}

// GetDecryptedThumbnails resolves thumbnails for many documents with
// bounded concurrency. A document whose thumbnail is missing or unreadable
// leaves a gap in the result, not a failed batch.
func (d *documentStore) GetDecryptedThumbnails(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]byte, error) {
	results := make(map[uuid.UUID][]byte, len(ids))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(batchFanout)
	for _, id := range ids {
		g.Go(func() error {
			data, err := d.GetDecryptedThumbnail(ctx, id)
			if err != nil {
				if !apperrors.Is(err, apperrors.ErrNotFound) {
					d.logger.Warn("skipping thumbnail",
						slog.String("document_id", id.String()),
						slog.String("error", err.Error()))
				}
				return nil
			}
			mu.Lock()
			results[id] = data
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// decryptToMemory round-trips a ciphertext file through a temp file into
// memory, erasing the temp file before returning.
func (d *documentStore) decryptToMemory(ctx context.Context, path string) ([]byte, error) {
	tmp := d.layout.TempFile("bin")
	if err := d.codec.DecryptFile(ctx, path, tmp); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(tmp)
	d.eraseFiles(context.WithoutCancel(ctx), []string{tmp})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read decrypted file")
	}
	return data, nil
}

func (d *documentStore) findPage(ctx context.Context, id uuid.UUID, pageNumber int) (documentDomain.DocumentPage, string, error) {
	var zero documentDomain.DocumentPage

	doc, err := d.documents.GetByID(ctx, id)
	if err != nil {
		return zero, "", err
	}
	pagesByDoc, err := d.documents.GetPagesByDocumentIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return zero, "", err
	}
	for _, page := range pagesByDoc[id] {
		if page.PageNumber == pageNumber {
			return page, doc.MimeType, nil
		}
	}
	return zero, "", apperrors.Wrapf(documentDomain.ErrPageNotFound, "page %d of document %s", pageNumber, id)
}

// extensionFor picks the temp file extension for decrypted content, so
// viewers handed a path can tell what they are looking at.
func extensionFor(mimeType string) string {
	switch mimeType {
	case "application/pdf":
		return "pdf"
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}
