package domain

import (
	"github.com/scanvault/scanvault/internal/errors"
)

// Document-specific error definitions.
var (
	// ErrDocumentNotFound indicates no document exists with the given id.
	ErrDocumentNotFound = errors.Wrap(errors.ErrNotFound, "document not found")

	// ErrPageNotFound indicates the document has no page with the given number.
	ErrPageNotFound = errors.Wrap(errors.ErrNotFound, "document page not found")

	// ErrFolderNotFound indicates no folder exists with the given id.
	ErrFolderNotFound = errors.Wrap(errors.ErrNotFound, "folder not found")

	// ErrTagNotFound indicates no tag exists with the given id.
	ErrTagNotFound = errors.Wrap(errors.ErrNotFound, "tag not found")

	// ErrSignatureNotFound indicates no signature exists with the given id.
	ErrSignatureNotFound = errors.Wrap(errors.ErrNotFound, "signature not found")

	// ErrThumbnailNotFound indicates the document has no thumbnail.
	ErrThumbnailNotFound = errors.Wrap(errors.ErrNotFound, "document thumbnail not found")

	// ErrNoPages indicates an attempt to create a document without pages.
	ErrNoPages = errors.Wrap(errors.ErrInvalidInput, "a document needs at least one page")

	// ErrSourceFileMissing indicates a source image path that does not exist.
	ErrSourceFileMissing = errors.Wrap(errors.ErrInvalidInput, "source image file does not exist")

	// ErrTagNameTaken indicates a tag with the same name already exists.
	ErrTagNameTaken = errors.Wrap(errors.ErrConflict, "tag name already exists")

	// ErrInvalidOcrStatus indicates a stored status outside the known states.
	ErrInvalidOcrStatus = errors.Wrap(errors.ErrInvalidInput, "invalid ocr status")

	// ErrOcrTransitionNotAllowed indicates a status change the lifecycle
	// forbids.
	ErrOcrTransitionNotAllowed = errors.Wrap(errors.ErrConflict, "ocr status transition not allowed")
)
