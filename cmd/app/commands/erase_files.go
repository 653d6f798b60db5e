package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/scanvault/scanvault/internal/erase"
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

// RunEraseFiles overwrites and deletes the given files. Every path is
// attempted even when an earlier one fails; the per-path outcomes are
// printed and any failures are returned as one error.
func RunEraseFiles(
	ctx context.Context,
	eraser *erase.Eraser,
	logger *slog.Logger,
	writer io.Writer,
	paths []string,
) error {
	if len(paths) == 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "at least one path is required")
	}

	logger.Info("erasing files", slog.Int("count", len(paths)))

	results, err := eraser.SecureDeleteFiles(ctx, paths)
	for _, result := range results {
		switch result.Status {
		case erase.StatusDeleted:
			fmt.Fprintf(writer, "erased    %s\n", result.Path)
		case erase.StatusNotFound:
			fmt.Fprintf(writer, "not found %s\n", result.Path)
		default:
			fmt.Fprintf(writer, "failed    %s: %v\n", result.Path, result.Err)
		}
	}
	if err != nil {
		return err
	}

	logger.Info("files erased", slog.Int("count", len(results)))
	return nil
}
