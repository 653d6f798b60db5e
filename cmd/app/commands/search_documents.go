package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	documentUsecase "github.com/scanvault/scanvault/internal/document/usecase"
)

// RunSearchDocuments finds documents matching every token of the query and
// prints them. The query is remembered in the search history.
func RunSearchDocuments(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	logger *slog.Logger,
	writer io.Writer,
	query string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if query == "" {
		return fmt.Errorf("a search query is required")
	}

	// The query itself is sensitive; only its length reaches the log.
	logger.Info("searching documents", slog.Int("query_length", len(query)))

	docs, err := store.SearchDocuments(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	return printDocuments(writer, docs, format)
}

// RunSearchHistory prints the most recent remembered queries, or forgets
// them all when clear is set.
func RunSearchHistory(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	limit int,
	clear bool,
) error {
	if clear {
		if err := store.ClearSearchHistory(ctx); err != nil {
			return fmt.Errorf("failed to clear search history: %w", err)
		}
		fmt.Fprintln(writer, "search history cleared")
		return nil
	}

	entries, err := store.RecentSearches(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load search history: %w", err)
	}

	for _, entry := range entries {
		fmt.Fprintf(writer, "%s  %s\n", entry.SearchedAt.Format(time.DateTime), entry.Query)
	}
	fmt.Fprintf(writer, "%d remembered search(es)\n", len(entries))
	return nil
}
