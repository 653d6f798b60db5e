package commands

import (
	"context"
	"fmt"
	"io"

	documentUsecase "github.com/scanvault/scanvault/internal/document/usecase"
)

// folderView is the output shape commands print for a folder.
type folderView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RunListFolders prints all folders by name.
func RunListFolders(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	folders, err := store.ListFolders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}

	if format == "json" {
		views := make([]folderView, 0, len(folders))
		for _, folder := range folders {
			views = append(views, folderView{ID: folder.ID.String(), Name: folder.Name})
		}
		return writeJSON(writer, views)
	}

	for _, folder := range folders {
		fmt.Fprintf(writer, "%s  %s\n", folder.ID, folder.Name)
	}
	fmt.Fprintf(writer, "%d folder(s)\n", len(folders))
	return nil
}

// RunCreateFolder creates a named folder and prints its id.
func RunCreateFolder(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	name string,
) error {
	folder, err := store.CreateFolder(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	fmt.Fprintf(writer, "created folder %q as %s\n", folder.Name, folder.ID)
	return nil
}

// RunRenameFolder renames a folder.
func RunRenameFolder(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	idStr string,
	name string,
) error {
	id, err := parseID(idStr)
	if err != nil {
		return err
	}

	if err := store.RenameFolder(ctx, id, name); err != nil {
		return fmt.Errorf("failed to rename folder: %w", err)
	}

	fmt.Fprintf(writer, "renamed folder %s to %q\n", id, name)
	return nil
}

// RunDeleteFolder removes a folder. Documents filed under it are detached,
// not deleted.
func RunDeleteFolder(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	idStr string,
) error {
	id, err := parseID(idStr)
	if err != nil {
		return err
	}

	if err := store.DeleteFolder(ctx, id); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	fmt.Fprintf(writer, "deleted folder %s; its documents were kept\n", id)
	return nil
}

// RunMoveDocument files a document under a folder, or under no folder when
// folderIDStr is empty.
func RunMoveDocument(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	idStr string,
	folderIDStr string,
) error {
	id, err := parseID(idStr)
	if err != nil {
		return err
	}

	if folderIDStr == "" {
		if err := store.MoveDocumentToFolder(ctx, id, nil); err != nil {
			return fmt.Errorf("failed to move document: %w", err)
		}
		fmt.Fprintf(writer, "moved %s out of its folder\n", id)
		return nil
	}

	folderID, err := parseID(folderIDStr)
	if err != nil {
		return err
	}
	if err := store.MoveDocumentToFolder(ctx, id, &folderID); err != nil {
		return fmt.Errorf("failed to move document: %w", err)
	}

	fmt.Fprintf(writer, "moved %s into folder %s\n", id, folderID)
	return nil
}
