package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	documentUsecase "github.com/scanvault/scanvault/internal/document/usecase"
)

// ImportOptions carries the raw flag values for a document import.
type ImportOptions struct {
	Title         string
	Description   string
	MimeType      string
	FolderID      string
	TagIDs        []string
	ThumbnailPath string
	PagePaths     []string
	Format        string
}

// RunImportDocument encrypts the given page images into the vault as one
// document. The source files are left in place; pass them to the erase
// command afterwards to destroy the plaintext.
func RunImportDocument(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	logger *slog.Logger,
	writer io.Writer,
	opts ImportOptions,
) error {
	if err := validateFormat(opts.Format); err != nil {
		return err
	}
	if len(opts.PagePaths) == 0 {
		return fmt.Errorf("at least one page path is required")
	}

	input := documentUsecase.CreateDocumentInput{
		Title:               opts.Title,
		Description:         opts.Description,
		MimeType:            opts.MimeType,
		PageSourcePaths:     opts.PagePaths,
		ThumbnailSourcePath: opts.ThumbnailPath,
	}

	if opts.FolderID != "" {
		folderID, err := parseID(opts.FolderID)
		if err != nil {
			return err
		}
		input.FolderID = &folderID
	}

	for _, raw := range opts.TagIDs {
		tagID, err := parseID(raw)
		if err != nil {
			return err
		}
		input.TagIDs = append(input.TagIDs, tagID)
	}

	logger.Info("importing document",
		slog.String("title", opts.Title),
		slog.Int("pages", len(opts.PagePaths)),
	)

	doc, err := store.CreateDocumentWithPages(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to import document: %w", err)
	}

	logger.Info("document imported",
		slog.String("document_id", doc.ID.String()),
		slog.Int64("size_bytes", doc.SizeBytes),
	)

	if opts.Format == "json" {
		return writeJSON(writer, newDocumentView(doc))
	}

	fmt.Fprintf(writer, "imported %q as %s (%d page(s), %d bytes)\n",
		doc.Title, doc.ID, len(doc.Pages), doc.SizeBytes)
	return nil
}
