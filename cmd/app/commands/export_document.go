package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	documentUsecase "github.com/scanvault/scanvault/internal/document/usecase"
	"github.com/scanvault/scanvault/internal/erase"
)

// RunExportDocument decrypts every page of a document into outputDir as
// page_<n> files. The intermediate plaintext in the vault's temp directory
// is securely erased once the copies are written; the exported files are
// the caller's to protect.
func RunExportDocument(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	eraser *erase.Eraser,
	logger *slog.Logger,
	writer io.Writer,
	idStr string,
	outputDir string,
) error {
	id, err := parseID(idStr)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o700); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logger.Info("exporting document", slog.String("document_id", id.String()))

	paths, err := store.GetDecryptedAllPages(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to decrypt pages: %w", err)
	}
	defer func() {
		if _, eraseErr := eraser.SecureDeleteFiles(context.WithoutCancel(ctx), paths); eraseErr != nil {
			logger.Warn("failed to erase temporary plaintext", slog.Any("error", eraseErr))
		}
	}()

	var exported []string
	for i, src := range paths {
		dst := filepath.Join(outputDir, fmt.Sprintf("page_%03d%s", i+1, filepath.Ext(src)))
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("failed to write %s: %w", dst, err)
		}
		exported = append(exported, dst)
	}

	logger.Info("document exported",
		slog.String("document_id", id.String()),
		slog.Int("pages", len(exported)),
	)

	for _, path := range exported {
		fmt.Fprintln(writer, path)
	}
	fmt.Fprintf(writer, "exported %d page(s) to %s\n", len(exported), outputDir)
	return nil
}

// copyFile copies src to dst, failing if dst cannot be created.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
