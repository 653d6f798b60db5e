package commands

import (
	"context"
	"fmt"
	"io"

	documentUsecase "github.com/scanvault/scanvault/internal/document/usecase"
)

// tagView is the output shape commands print for a tag.
type tagView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// RunListTags prints all tags by name.
func RunListTags(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	tags, err := store.ListTags(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}

	if format == "json" {
		views := make([]tagView, 0, len(tags))
		for _, tag := range tags {
			views = append(views, tagView{ID: tag.ID.String(), Name: tag.Name, Color: tag.Color})
		}
		return writeJSON(writer, views)
	}

	for _, tag := range tags {
		fmt.Fprintf(writer, "%s  %s  %s\n", tag.ID, tag.Color, tag.Name)
	}
	fmt.Fprintf(writer, "%d tag(s)\n", len(tags))
	return nil
}

// RunCreateTag creates a tag with a display color and prints its id.
func RunCreateTag(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	name string,
	color string,
) error {
	tag, err := store.CreateTag(ctx, name, color)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}

	fmt.Fprintf(writer, "created tag %q as %s\n", tag.Name, tag.ID)
	return nil
}

// RunDeleteTag removes a tag from every document carrying it.
func RunDeleteTag(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	idStr string,
) error {
	id, err := parseID(idStr)
	if err != nil {
		return err
	}

	if err := store.DeleteTag(ctx, id); err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	fmt.Fprintf(writer, "deleted tag %s\n", id)
	return nil
}

// RunTagDocument attaches a tag to a document.
func RunTagDocument(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	documentIDStr string,
	tagIDStr string,
) error {
	documentID, err := parseID(documentIDStr)
	if err != nil {
		return err
	}
	tagID, err := parseID(tagIDStr)
	if err != nil {
		return err
	}

	if err := store.TagDocument(ctx, documentID, tagID); err != nil {
		return fmt.Errorf("failed to tag document: %w", err)
	}

	fmt.Fprintf(writer, "tagged %s with %s\n", documentID, tagID)
	return nil
}

// RunUntagDocument detaches a tag from a document.
func RunUntagDocument(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	documentIDStr string,
	tagIDStr string,
) error {
	documentID, err := parseID(documentIDStr)
	if err != nil {
		return err
	}
	tagID, err := parseID(tagIDStr)
	if err != nil {
		return err
	}

	if err := store.UntagDocument(ctx, documentID, tagID); err != nil {
		return fmt.Errorf("failed to untag document: %w", err)
	}

	fmt.Fprintf(writer, "removed %s from %s\n", tagID, documentID)
	return nil
}
