package domain

import (
	"github.com/scanvault/scanvault/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// so callers can react to the category (invalid input vs. tampering) with
// errors.Is without depending on message text.
var (
	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	//
	// The master key and every derived key must be exactly 32 bytes (256 bits).
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrEmptyPlaintext indicates an attempt to encrypt an empty payload.
	//
	// Empty input is rejected up front: an empty ciphertext cannot be
	// distinguished from a missing or truncated one at rest.
	ErrEmptyPlaintext = errors.Wrap(errors.ErrInvalidInput, "plaintext must not be empty")

	// ErrCiphertextTooShort indicates the payload is too small to contain an
	// IV and at least one ciphertext block in either wire format.
	ErrCiphertextTooShort = errors.Wrap(errors.ErrInvalidInput, "ciphertext too short")

	// ErrDecryptionFailed indicates a decryption operation failed.
	//
	// This error can occur due to a wrong key, corrupted data, or invalid
	// padding. For security reasons the specific cause is not disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrIntegrityViolation indicates an authentication tag mismatch on a
	// payload whose structure rules out the legacy format.
	//
	// Unlike ErrDecryptionFailed this is a deliberate tamper signal: it is
	// never downgraded to a generic failure and must reach the caller as-is.
	ErrIntegrityViolation = errors.New("integrity check failed: payload may have been tampered with")

	// ErrEncryptionFailed indicates an encryption operation failed, e.g. the
	// random source was unavailable while drawing an IV.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrEmptyFilePath indicates a file cipher operation received an empty path.
	ErrEmptyFilePath = errors.Wrap(errors.ErrInvalidInput, "file path must not be empty")

	// ErrSameFilePath indicates a file cipher operation received identical
	// source and destination paths, which would destroy the source mid-stream.
	ErrSameFilePath = errors.Wrap(errors.ErrInvalidInput, "source and destination paths must differ")
)
