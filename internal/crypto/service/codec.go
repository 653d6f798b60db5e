package service

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"

	cryptoDomain "github.com/scanvault/scanvault/internal/crypto/domain"
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

// hmacKeyInfo separates the MAC key from the encryption key. Changing it
// invalidates every stored tag, so the value is versioned.
const hmacKeyInfo = "scanvault-hmac-v1"

// CipherCodec implements the Codec interface with AES-256-CBC and an
// encrypt-then-MAC HMAC-SHA256 tag.
//
// Wire format (current):
//
//	IV(16) || Ciphertext(N) || Tag(32)
//
// The tag is HMAC-SHA256 over IV || Ciphertext under a MAC key derived from
// the master key, so confidentiality and integrity use independent keys.
// Older vaults wrote IV(16) || Ciphertext(N) without a tag; Decrypt still
// accepts that layout, Encrypt never produces it.
//
// Security properties:
//   - 256-bit AES key, fresh random 16-byte IV per encryption
//   - PKCS#7 padding to the AES block size
//   - Tag comparison in constant time
//   - A failed tag check on a well-formed payload surfaces as
//     ErrIntegrityViolation and is never downgraded to a generic error
//
// Thread safety:
//
//	The codec holds no mutable state and is safe for concurrent use from
//	multiple goroutines. Keys are fetched from the KeySource per operation
//	and the MAC key is derived on demand, never retained.
type CipherCodec struct {
	keys             KeySource
	pool             *Pool
	offloadThreshold int
	ivReader         io.Reader
}

// NewCipherCodec creates a CipherCodec backed by the given key source,
// drawing IVs from crypto/rand.
//
// pool may be nil, in which case DecryptAsync always decrypts inline.
// offloadThreshold is the payload size in bytes at which DecryptAsync moves
// work onto the pool; smaller payloads decrypt on the caller's goroutine.
func NewCipherCodec(keys KeySource, pool *Pool, offloadThreshold int) *CipherCodec {
	return &CipherCodec{
		keys:             keys,
		pool:             pool,
		offloadThreshold: offloadThreshold,
		ivReader:         rand.Reader,
	}
}

// NewCipherCodecWithIVReader creates a CipherCodec that draws IVs from r
// instead of crypto/rand. It exists so tests can verify IV handling with a
// deterministic source; production code must use NewCipherCodec.
func NewCipherCodecWithIVReader(keys KeySource, pool *Pool, offloadThreshold int, r io.Reader) *CipherCodec {
	codec := NewCipherCodec(keys, pool, offloadThreshold)
	codec.ivReader = r
	return codec
}

// Encrypt encrypts plaintext into the authenticated wire format.
//
// Empty plaintext is rejected: an empty blob is indistinguishable from a
// missing or truncated one, so callers must not create it.
//
// Returns:
//   - The blob IV || Ciphertext || Tag
//   - ErrEmptyPlaintext when plaintext is empty
//   - An error if the master key cannot be loaded or the IV source fails
func (c *CipherCodec) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, cryptoDomain.ErrEmptyPlaintext
	}

	key, err := c.masterKey(ctx)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperrors.Wrapf(cryptoDomain.ErrEncryptionFailed, "failed to initialize cipher: %v", err)
	}

	iv := make([]byte, cryptoDomain.IVSize)
	if _, err := io.ReadFull(c.ivReader, iv); err != nil {
		return nil, apperrors.Wrapf(cryptoDomain.ErrEncryptionFailed, "failed to generate iv: %v", err)
	}

	padded := pkcs7Pad(plaintext, cryptoDomain.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	hmacKey := deriveHmacKey(key)
	tag := computeTag(hmacKey, iv, ciphertext)
	cryptoDomain.Zero(hmacKey)

	blob := make([]byte, 0, len(iv)+len(ciphertext)+len(tag))
	blob = append(blob, iv...)
	blob = append(blob, ciphertext...)
	blob = append(blob, tag...)
	return blob, nil
}

// Decrypt decrypts a blob in either wire format.
//
// Payloads large enough to carry a tag are treated as the current format
// first: the tag is recomputed and compared in constant time. On a match the
// ciphertext is decrypted and unpadded. On a mismatch the payload gets one
// legacy interpretation attempt, treating the whole remainder after the IV
// as untagged ciphertext, so blobs written before tagging existed keep
// decrypting regardless of size. If the legacy attempt cannot succeed
// either, the failure is reported as ErrIntegrityViolation: a payload of
// authenticated shape that matches neither format has been tampered with or
// corrupted, and that outcome must stay distinguishable from ordinary
// malformed input.
//
// Returns:
//   - The plaintext
//   - ErrCiphertextTooShort when data cannot contain an IV and a block
//   - ErrIntegrityViolation on tag mismatch without a valid legacy reading
//   - ErrDecryptionFailed when data matches neither format structurally
func (c *CipherCodec) Decrypt(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) <= cryptoDomain.IVSize {
		return nil, cryptoDomain.ErrCiphertextTooShort
	}

	key, err := c.masterKey(ctx)
	if err != nil {
		return nil, err
	}

	if blob, ok := cryptoDomain.SplitAuthenticated(data); ok {
		hmacKey := deriveHmacKey(key)
		expected := computeTag(hmacKey, blob.IV, blob.Ciphertext)
		cryptoDomain.Zero(hmacKey)
		if subtle.ConstantTimeCompare(blob.Tag, expected) == 1 {
			plaintext, err := decryptCBC(key, blob.IV, blob.Ciphertext)
			if err != nil {
				return nil, err
			}
			return plaintext, nil
		}

		// The tag did not verify. The payload may still be a legacy blob
		// whose tail merely looks like a tag, so give it one legacy
		// attempt before concluding tampering.
		if legacy, ok := cryptoDomain.SplitLegacy(data); ok {
			if plaintext, err := decryptCBC(key, legacy.IV, legacy.Ciphertext); err == nil {
				return plaintext, nil
			}
		}
		return nil, cryptoDomain.ErrIntegrityViolation
	}

	legacy, ok := cryptoDomain.SplitLegacy(data)
	if !ok {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	plaintext, err := decryptCBC(key, legacy.IV, legacy.Ciphertext)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}

// DecryptAsync decrypts data, offloading to the worker pool when the
// payload is at least the configured threshold.
//
// Inline versus offloaded is a size policy, never implicit: small payloads
// stay on the caller's goroutine where the scheduling overhead would exceed
// the work. When ctx is canceled while waiting for a pool slot, no work
// starts; when canceled after work has started, the decryption runs to
// completion in the background and the result is discarded, so a slow
// decrypt is never half-finished by a departing caller.
func (c *CipherCodec) DecryptAsync(ctx context.Context, data []byte) ([]byte, error) {
	if c.pool == nil || len(data) < c.offloadThreshold {
		return c.Decrypt(ctx, data)
	}

	var (
		plaintext []byte
		decErr    error
	)
	if err := c.pool.Do(ctx, func() {
		plaintext, decErr = c.Decrypt(context.WithoutCancel(ctx), data)
	}); err != nil {
		return nil, err
	}
	return plaintext, decErr
}

// EncryptString encrypts plaintext and returns the blob base64 encoded,
// for callers that persist ciphertext in text columns.
func (c *CipherCodec) EncryptString(ctx context.Context, plaintext string) (string, error) {
	blob, err := c.Encrypt(ctx, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

// DecryptString decodes a base64 blob and decrypts it back to a string.
func (c *CipherCodec) DecryptString(ctx context.Context, encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", apperrors.Wrap(cryptoDomain.ErrDecryptionFailed, "payload is not valid base64")
	}
	plaintext, err := c.Decrypt(ctx, data)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// IsLikelyEncrypted reports whether data is structurally consistent with one
// of the blob formats. It is a routing heuristic for migration and import
// paths, not a correctness or security guarantee.
func (c *CipherCodec) IsLikelyEncrypted(data []byte) bool {
	return cryptoDomain.LikelyEncrypted(data)
}

// IsLikelyEncryptedString reports whether encoded decodes from base64 into a
// structurally plausible blob.
func (c *CipherCodec) IsLikelyEncryptedString(encoded string) bool {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	return cryptoDomain.LikelyEncrypted(data)
}

func (c *CipherCodec) masterKey(ctx context.Context) ([]byte, error) {
	key, err := c.keys.MasterKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key: %w", err)
	}
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	return key, nil
}

// deriveHmacKey derives the MAC key from the master key via
// HMAC-SHA256(masterKey, hmacKeyInfo). The result is computed per operation
// and zeroed by callers once the tag is in hand; it cannot be inverted to
// recover the master key.
func deriveHmacKey(masterKey []byte) []byte {
	mac := hmac.New(sha256.New, masterKey)
	mac.Write([]byte(hmacKeyInfo))
	return mac.Sum(nil)
}

func computeTag(hmacKey, iv, ciphertext []byte) []byte {
	mac := hmac.New(sha256.New, hmacKey)
	mac.Write(iv)
	mac.Write(ciphertext)
	return mac.Sum(nil)
}

func decryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%cryptoDomain.BlockSize != 0 {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperrors.Wrapf(cryptoDomain.ErrDecryptionFailed, "failed to initialize cipher: %v", err)
	}
	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)
	return pkcs7Unpad(padded, cryptoDomain.BlockSize)
}
