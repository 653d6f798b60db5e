package commands

import (
	"context"
	"fmt"
	"io"

	documentUsecase "github.com/scanvault/scanvault/internal/document/usecase"
)

// RunToggleFavorite flips a document's favorite mark and prints the new state.
func RunToggleFavorite(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	idStr string,
) error {
	id, err := parseID(idStr)
	if err != nil {
		return err
	}

	favorite, err := store.ToggleFavorite(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to toggle favorite: %w", err)
	}

	if favorite {
		fmt.Fprintf(writer, "%s is now a favorite\n", id)
	} else {
		fmt.Fprintf(writer, "%s is no longer a favorite\n", id)
	}
	return nil
}
