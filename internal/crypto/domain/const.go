// Package domain defines the core cryptographic domain model for the vault.
//
// Every persisted payload is protected by a single 256-bit master key:
// content blobs use AES-256-CBC with an HMAC-SHA256 tag (encrypt-then-MAC),
// page and thumbnail files use streaming AES-256-CTR. Auxiliary keys (the
// MAC key, the search-token key) are derived from the master key on demand
// and never stored.
package domain

const (
	// KeySize is the size in bytes of the master key and every derived key (256 bits).
	KeySize = 32

	// BlockSize is the AES block size in bytes. CBC ciphertexts are always a
	// positive multiple of it thanks to PKCS#7 padding.
	BlockSize = 16

	// IVSize is the size in bytes of the initialization vector carried at the
	// front of every encrypted payload and file.
	IVSize = 16

	// TagSize is the size in bytes of the HMAC-SHA256 authentication tag
	// appended to authenticated payloads.
	TagSize = 32

	// MinAuthenticatedSize is the smallest well-formed authenticated payload:
	// an IV, one ciphertext block, and the tag.
	MinAuthenticatedSize = IVSize + BlockSize + TagSize

	// MinLegacySize is the smallest well-formed legacy payload: an IV and one
	// ciphertext block, no tag.
	MinLegacySize = IVSize + BlockSize
)
