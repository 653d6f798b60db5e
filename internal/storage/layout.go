// Package storage decides where the vault's files live on disk. All path
// derivation happens here so encrypted pages, thumbnails, and temporary
// decrypted artifacts can never end up in each other's directories.
package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const dirPermissions os.FileMode = 0o700

// Layout derives every vault file path from a single data directory:
//
//	<dataDir>/documents/<documentID>_page_<n>.enc
//	<dataDir>/thumbnails/<documentID>.enc
//	<dataDir>/signatures/<signatureID>.enc
//	<dataDir>/tmp/<random>.<ext>
type Layout struct {
	dataDir string
}

// NewLayout creates a layout rooted at dataDir.
func NewLayout(dataDir string) *Layout {
	return &Layout{dataDir: dataDir}
}

// DataDir returns the root data directory.
func (l *Layout) DataDir() string {
	return l.dataDir
}

// DocumentsDir returns the directory holding encrypted page files.
func (l *Layout) DocumentsDir() string {
	return filepath.Join(l.dataDir, "documents")
}

// ThumbnailsDir returns the directory holding encrypted thumbnails.
func (l *Layout) ThumbnailsDir() string {
	return filepath.Join(l.dataDir, "thumbnails")
}

// SignaturesDir returns the directory holding encrypted signature images.
func (l *Layout) SignaturesDir() string {
	return filepath.Join(l.dataDir, "signatures")
}

// TempDir returns the directory for transient decrypted artifacts. Callers
// own what they create here and are responsible for secure erasure.
func (l *Layout) TempDir() string {
	return filepath.Join(l.dataDir, "tmp")
}

// PagePath returns the encrypted file path for one page of a document. The
// name is fully determined by (documentID, pageNumber), so a failed create
// can always be cleaned up from ids alone.
func (l *Layout) PagePath(documentID string, pageNumber int) string {
	return filepath.Join(l.DocumentsDir(), fmt.Sprintf("%s_page_%d.enc", documentID, pageNumber))
}

// ThumbnailPath returns the encrypted thumbnail path for a document.
func (l *Layout) ThumbnailPath(documentID string) string {
	return filepath.Join(l.ThumbnailsDir(), documentID+".enc")
}

// SignaturePath returns the encrypted file path for a saved signature.
func (l *Layout) SignaturePath(signatureID string) string {
	return filepath.Join(l.SignaturesDir(), signatureID+".enc")
}

// TempFile returns a fresh unique path inside the temp directory. ext is
// appended as the extension when non-empty, so image viewers opening a
// decrypted page see a recognizable suffix.
func (l *Layout) TempFile(ext string) string {
	name := uuid.New().String()
	if ext != "" {
		name += "." + strings.TrimPrefix(ext, ".")
	} else {
		name += ".tmp"
	}
	return filepath.Join(l.TempDir(), name)
}

// EnsureDirs creates the documents, thumbnails, signatures, and temp
// directories. The directories are private to the owning user.
func (l *Layout) EnsureDirs() error {
	for _, dir := range []string{l.DocumentsDir(), l.ThumbnailsDir(), l.SignaturesDir(), l.TempDir()} {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DirSize returns the total size in bytes of all regular files under dir.
// A missing directory counts as empty.
func DirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to measure directory %s: %w", dir, err)
	}
	return total, nil
}
