// Package service implements the vault's cryptography: the authenticated
// CBC codec for in-memory payloads, the streaming CTR cipher for page and
// thumbnail files, and the keyed token index that makes encrypted text
// searchable without decrypting it.
package service

import (
	"context"
)

// KeySource provides the vault master key to cryptographic services.
type KeySource interface {
	// MasterKey returns the 32-byte master key, creating it on first use.
	MasterKey(ctx context.Context) ([]byte, error)
}

// Codec defines the interface for encrypting and decrypting vault payloads.
type Codec interface {
	// Encrypt encrypts a non-empty plaintext and returns an authenticated blob.
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)

	// Decrypt decrypts an authenticated or legacy blob.
	Decrypt(ctx context.Context, data []byte) ([]byte, error)

	// DecryptAsync decrypts like Decrypt but may offload large payloads to a
	// bounded worker pool to keep the calling path responsive.
	DecryptAsync(ctx context.Context, data []byte) ([]byte, error)

	// EncryptString encrypts a string and returns the blob base64 encoded.
	EncryptString(ctx context.Context, plaintext string) (string, error)

	// DecryptString decrypts a base64-encoded blob back to a string.
	DecryptString(ctx context.Context, encoded string) (string, error)

	// EncryptFile encrypts the file at srcPath into dstPath using a
	// streaming cipher suitable for large binaries.
	EncryptFile(ctx context.Context, srcPath, dstPath string) error

	// DecryptFile decrypts the file at srcPath into dstPath.
	DecryptFile(ctx context.Context, srcPath, dstPath string) error

	// IsLikelyEncrypted reports whether data is structurally consistent with
	// one of the blob formats. Heuristic only.
	IsLikelyEncrypted(data []byte) bool

	// IsLikelyEncryptedString reports whether encoded is base64 of a
	// structurally plausible blob. Heuristic only.
	IsLikelyEncryptedString(encoded string) bool
}

// Indexer produces keyed token MACs for the encrypted search index.
type Indexer interface {
	// TokenMACs normalizes and tokenizes text, then returns one MAC per
	// distinct token under the derived search index key.
	TokenMACs(ctx context.Context, text string) ([][]byte, error)
}
