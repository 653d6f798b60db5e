package commands

import (
	"context"
	"fmt"
	"io"

	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	documentUsecase "github.com/scanvault/scanvault/internal/document/usecase"
)

// ListOptions selects which documents to list. At most one of FolderID,
// TagID, and FavoritesOnly may be set; with none set every document is
// listed.
type ListOptions struct {
	FolderID      string
	TagID         string
	FavoritesOnly bool
	Format        string
}

// RunListDocuments prints documents, most recently updated first.
func RunListDocuments(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	opts ListOptions,
) error {
	if err := validateFormat(opts.Format); err != nil {
		return err
	}

	selectors := 0
	if opts.FolderID != "" {
		selectors++
	}
	if opts.TagID != "" {
		selectors++
	}
	if opts.FavoritesOnly {
		selectors++
	}
	if selectors > 1 {
		return fmt.Errorf("at most one of --folder, --tag, and --favorites may be used")
	}

	var docs []*documentDomain.Document
	var err error

	switch {
	case opts.FolderID != "":
		folderID, parseErr := parseID(opts.FolderID)
		if parseErr != nil {
			return parseErr
		}
		docs, err = store.GetDocumentsInFolder(ctx, folderID)
	case opts.TagID != "":
		tagID, parseErr := parseID(opts.TagID)
		if parseErr != nil {
			return parseErr
		}
		docs, err = store.GetDocumentsByTag(ctx, tagID)
	case opts.FavoritesOnly:
		docs, err = store.GetFavoriteDocuments(ctx)
	default:
		docs, err = store.GetAllDocuments(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	return printDocuments(writer, docs, opts.Format)
}
