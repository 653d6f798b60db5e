// Package domain defines the core models for the document vault: scanned
// documents with their encrypted pages, folders, tags, signatures, and the
// search types built on the encrypted token index.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is a scanned document. Title, Description, and OcrText hold
// plaintext in memory only; at rest they are sealed by the cipher codec, so
// repositories always see the sealed form and use cases the plaintext.
type Document struct {
	ID            uuid.UUID
	Title         string
	Description   string
	ThumbnailPath string
	OcrText       string
	OcrStatus     OcrStatus
	SizeBytes     int64
	MimeType      string
	FolderID      *uuid.UUID
	IsFavorite    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Pages is populated by batched page loads; never empty after creation.
	Pages []DocumentPage
	// Tags is populated on request.
	Tags []Tag
}

// DocumentPage is one encrypted page file of a document. PageNumber starts
// at one.
type DocumentPage struct {
	DocumentID uuid.UUID
	PageNumber int
	FilePath   string
}

// Folder groups documents. Deleting a folder detaches its documents rather
// than deleting them.
type Folder struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tag is a named label attachable to any number of documents.
type Tag struct {
	ID        uuid.UUID
	Name      string
	Color     string
	CreatedAt time.Time
}

// Signature is a stored signature image, kept encrypted like pages.
type Signature struct {
	ID        uuid.UUID
	Name      string
	FilePath  string
	CreatedAt time.Time
}

// SearchEntry is one remembered search. Query holds plaintext in memory
// only and is sealed at rest.
type SearchEntry struct {
	ID         int64
	Query      string
	SearchedAt time.Time
}

// StorageInfo aggregates the vault's disk usage and cache behavior.
type StorageInfo struct {
	DocumentCount       int
	PageCount           int
	TotalSizeBytes      int64
	DocumentsSizeBytes  int64
	ThumbnailsSizeBytes int64
	SignaturesSizeBytes int64
	TempSizeBytes       int64
	DatabaseSizeBytes   int64
	CacheHits           uint64
	CacheMisses         uint64
	CacheSizeBytes      int64
	CacheItems          int
}
