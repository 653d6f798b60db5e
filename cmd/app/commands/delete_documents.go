package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	documentUsecase "github.com/scanvault/scanvault/internal/document/usecase"
)

// RunDeleteDocuments removes the given documents: encrypted files, cache
// entries, and rows. Every id is attempted even when some fail.
func RunDeleteDocuments(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	logger *slog.Logger,
	writer io.Writer,
	idStrs []string,
) error {
	if len(idStrs) == 0 {
		return fmt.Errorf("at least one document id is required")
	}

	ids := make([]uuid.UUID, 0, len(idStrs))
	for _, raw := range idStrs {
		id, err := parseID(raw)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	logger.Info("deleting documents", slog.Int("count", len(ids)))

	if err := store.DeleteDocuments(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	fmt.Fprintf(writer, "deleted %d document(s)\n", len(ids))
	return nil
}
