package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	documentUsecase "github.com/scanvault/scanvault/internal/document/usecase"
)

// RunShowDocument prints one document with its pages and tags.
func RunShowDocument(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	idStr string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	id, err := parseID(idStr)
	if err != nil {
		return err
	}

	doc, err := store.GetDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, newDocumentView(doc))
	}

	fmt.Fprintf(writer, "id:          %s\n", doc.ID)
	fmt.Fprintf(writer, "title:       %s\n", doc.Title)
	if doc.Description != "" {
		fmt.Fprintf(writer, "description: %s\n", doc.Description)
	}
	fmt.Fprintf(writer, "mime type:   %s\n", doc.MimeType)
	fmt.Fprintf(writer, "pages:       %d\n", len(doc.Pages))
	fmt.Fprintf(writer, "size:        %d bytes\n", doc.SizeBytes)
	fmt.Fprintf(writer, "favorite:    %t\n", doc.IsFavorite)
	fmt.Fprintf(writer, "ocr status:  %s\n", doc.OcrStatus)
	if doc.FolderID != nil {
		fmt.Fprintf(writer, "folder:      %s\n", doc.FolderID)
	}
	if len(doc.Tags) > 0 {
		fmt.Fprint(writer, "tags:        ")
		for i, tag := range doc.Tags {
			if i > 0 {
				fmt.Fprint(writer, ", ")
			}
			fmt.Fprint(writer, tag.Name)
		}
		fmt.Fprintln(writer)
	}
	fmt.Fprintf(writer, "created:     %s\n", doc.CreatedAt.Format(time.DateTime))
	fmt.Fprintf(writer, "updated:     %s\n", doc.UpdatedAt.Format(time.DateTime))
	return nil
}
