package service

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"
	"os"

	cryptoDomain "github.com/scanvault/scanvault/internal/crypto/domain"
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

// fileBufferSize is the chunk size for streaming file encryption. Pages are
// photographs of paper and routinely run tens of megabytes; they are never
// loaded whole.
const fileBufferSize = 64 * 1024

// EncryptFile encrypts the file at srcPath into dstPath with AES-256-CTR,
// writing the random IV as the file header:
//
//	IV(16) || CTR keystream XOR plaintext
//
// CTR needs no padding, keeps the output length at source length plus the
// IV, and streams through a fixed-size buffer. There is no per-file tag;
// the file formats are distinguished from the in-memory blob format by
// their location, never by sniffing.
//
// On any failure the partial destination file is removed, so dstPath either
// holds a complete encrypted file or does not exist.
func (c *CipherCodec) EncryptFile(ctx context.Context, srcPath, dstPath string) error {
	if err := validateFilePaths(srcPath, dstPath); err != nil {
		return err
	}

	key, err := c.masterKey(ctx)
	if err != nil {
		return err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return apperrors.Wrapf(cryptoDomain.ErrEncryptionFailed, "failed to initialize cipher: %v", err)
	}

	iv := make([]byte, cryptoDomain.IVSize)
	if _, err := io.ReadFull(c.ivReader, iv); err != nil {
		return apperrors.Wrapf(cryptoDomain.ErrEncryptionFailed, "failed to generate iv: %v", err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	return writeStreamed(ctx, src, dstPath, iv, cipher.NewCTR(block, iv), true)
}

// DecryptFile decrypts a file written by EncryptFile into dstPath. The
// partial destination is removed on failure.
func (c *CipherCodec) DecryptFile(ctx context.Context, srcPath, dstPath string) error {
	if err := validateFilePaths(srcPath, dstPath); err != nil {
		return err
	}

	key, err := c.masterKey(ctx)
	if err != nil {
		return err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return apperrors.Wrapf(cryptoDomain.ErrDecryptionFailed, "failed to initialize cipher: %v", err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	iv := make([]byte, cryptoDomain.IVSize)
	if _, err := io.ReadFull(src, iv); err != nil {
		return cryptoDomain.ErrCiphertextTooShort
	}

	return writeStreamed(ctx, src, dstPath, nil, cipher.NewCTR(block, iv), false)
}

// writeStreamed pumps src through stream into a fresh file at dstPath,
// optionally prefixed with header. sync controls whether the result is
// fsynced before close; encrypted originals are synced because the database
// row referencing them commits afterwards, decrypted temp copies are not.
func writeStreamed(ctx context.Context, src io.Reader, dstPath string, header []byte, stream cipher.Stream, sync bool) (err error) {
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", cerr)
		}
		if err != nil {
			// A partial destination must not be mistaken for a complete
			// file later.
			os.Remove(dstPath)
		}
	}()

	if len(header) > 0 {
		if _, err := dst.Write(header); err != nil {
			return fmt.Errorf("failed to write file header: %w", err)
		}
	}

	buf := make([]byte, fileBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			stream.XORKeyStream(buf[:n], buf[:n])
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return fmt.Errorf("failed to write destination file: %w", werr)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("failed to read source file: %w", rerr)
		}
	}

	if sync {
		if err := dst.Sync(); err != nil {
			return fmt.Errorf("failed to sync destination file: %w", err)
		}
	}
	return nil
}

func validateFilePaths(srcPath, dstPath string) error {
	if srcPath == "" || dstPath == "" {
		return cryptoDomain.ErrEmptyFilePath
	}
	if srcPath == dstPath {
		return cryptoDomain.ErrSameFilePath
	}
	return nil
}
