// Package commands contains CLI command implementations for the application.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/scanvault/scanvault/internal/app"
	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// validateFormat checks the output format flag.
// Returns an error if the format string is invalid.
func validateFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}
}

// parseID converts an id string to a UUID.
// Returns an error naming the bad value if it does not parse.
func parseID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", value, err)
	}
	return id, nil
}

// writeJSON writes v to writer as indented JSON.
func writeJSON(writer io.Writer, v any) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// documentView is the output shape commands print for a document.
type documentView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	MimeType    string    `json:"mime_type"`
	Pages       int       `json:"pages"`
	SizeBytes   int64     `json:"size_bytes"`
	FolderID    string    `json:"folder_id,omitempty"`
	Favorite    bool      `json:"favorite"`
	OcrStatus   string    `json:"ocr_status"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// newDocumentView flattens a domain document for printing.
func newDocumentView(doc *documentDomain.Document) documentView {
	view := documentView{
		ID:          doc.ID.String(),
		Title:       doc.Title,
		Description: doc.Description,
		MimeType:    doc.MimeType,
		Pages:       len(doc.Pages),
		SizeBytes:   doc.SizeBytes,
		Favorite:    doc.IsFavorite,
		OcrStatus:   string(doc.OcrStatus),
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if doc.FolderID != nil {
		view.FolderID = doc.FolderID.String()
	}
	for _, tag := range doc.Tags {
		view.Tags = append(view.Tags, tag.Name)
	}
	return view
}

// printDocumentLine writes the one-line text rendering used by list and search.
func printDocumentLine(writer io.Writer, doc *documentDomain.Document) {
	marker := " "
	if doc.IsFavorite {
		marker = "*"
	}
	fmt.Fprintf(writer, "%s %s  %-30q  %d page(s)  %s\n",
		marker, doc.ID, doc.Title, len(doc.Pages), doc.UpdatedAt.Format(time.DateTime))
}

// printDocuments renders a document list in the requested format.
func printDocuments(writer io.Writer, docs []*documentDomain.Document, format string) error {
	if format == "json" {
		views := make([]documentView, 0, len(docs))
		for _, doc := range docs {
			views = append(views, newDocumentView(doc))
		}
		return writeJSON(writer, views)
	}

	for _, doc := range docs {
		printDocumentLine(writer, doc)
	}
	fmt.Fprintf(writer, "%d document(s)\n", len(docs))
	return nil
}
