package commands

import (
	"context"
	"fmt"
	"io"

	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	documentUsecase "github.com/scanvault/scanvault/internal/document/usecase"
)

// storageInfoView is the output shape for storage statistics.
type storageInfoView struct {
	Documents           int    `json:"documents"`
	Pages               int    `json:"pages"`
	TotalSizeBytes      int64  `json:"total_size_bytes"`
	DocumentsSizeBytes  int64  `json:"documents_size_bytes"`
	ThumbnailsSizeBytes int64  `json:"thumbnails_size_bytes"`
	SignaturesSizeBytes int64  `json:"signatures_size_bytes"`
	TempSizeBytes       int64  `json:"temp_size_bytes"`
	DatabaseSizeBytes   int64  `json:"database_size_bytes"`
	CacheHits           uint64 `json:"cache_hits"`
	CacheMisses         uint64 `json:"cache_misses"`
	CacheSizeBytes      int64  `json:"cache_size_bytes"`
	CacheItems          int    `json:"cache_items"`
}

func newStorageInfoView(info *documentDomain.StorageInfo) storageInfoView {
	return storageInfoView{
		Documents:           info.DocumentCount,
		Pages:               info.PageCount,
		TotalSizeBytes:      info.TotalSizeBytes,
		DocumentsSizeBytes:  info.DocumentsSizeBytes,
		ThumbnailsSizeBytes: info.ThumbnailsSizeBytes,
		SignaturesSizeBytes: info.SignaturesSizeBytes,
		TempSizeBytes:       info.TempSizeBytes,
		DatabaseSizeBytes:   info.DatabaseSizeBytes,
		CacheHits:           info.CacheHits,
		CacheMisses:         info.CacheMisses,
		CacheSizeBytes:      info.CacheSizeBytes,
		CacheItems:          info.CacheItems,
	}
}

// RunStorageInfo prints document counts, on-disk usage, and thumbnail cache
// statistics.
func RunStorageInfo(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	info, err := store.GetStorageInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to read storage info: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, newStorageInfoView(info))
	}

	fmt.Fprintf(writer, "documents:    %d (%d page(s))\n", info.DocumentCount, info.PageCount)
	fmt.Fprintf(writer, "total size:   %d bytes\n", info.TotalSizeBytes)
	fmt.Fprintf(writer, "  pages:      %d bytes\n", info.DocumentsSizeBytes)
	fmt.Fprintf(writer, "  thumbnails: %d bytes\n", info.ThumbnailsSizeBytes)
	fmt.Fprintf(writer, "  signatures: %d bytes\n", info.SignaturesSizeBytes)
	fmt.Fprintf(writer, "  temp:       %d bytes\n", info.TempSizeBytes)
	fmt.Fprintf(writer, "  database:   %d bytes\n", info.DatabaseSizeBytes)
	fmt.Fprintf(writer, "cache:        %d item(s), %d bytes, %d hit(s), %d miss(es)\n",
		info.CacheItems, info.CacheSizeBytes, info.CacheHits, info.CacheMisses)
	return nil
}
