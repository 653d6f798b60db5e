// Package erase implements secure file deletion by overwriting file
// contents before unlinking.
//
// Plain deletion only removes the directory entry; the encrypted payload
// stays on flash until the block is reused. Overwriting with zeros first
// means even a recovered block holds nothing. Each pass is flushed to disk
// so the writes are not absorbed by the page cache.
package erase

import (
	"context"
	"io"
	"os"

	"golang.org/x/time/rate"

	apperrors "github.com/scanvault/scanvault/internal/errors"
)

const (
	// defaultPasses is how many zero-overwrite passes a file receives.
	defaultPasses = 3

	// eraseBufferSize is the overwrite chunk size.
	eraseBufferSize = 64 * 1024
)

// zeros is the shared overwrite chunk. It is never written to.
var zeros = make([]byte, eraseBufferSize)

// ErrIncompleteErase reports that a batch erase left at least one file
// behind. The individual failures are joined onto it.
var ErrIncompleteErase = apperrors.New("incomplete secure erase")

// Status classifies the outcome for a single path.
type Status string

const (
	StatusDeleted  Status = "deleted"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
)

// Result describes what happened to one path.
type Result struct {
	Path   string
	Status Status
	Err    error
}

// Eraser overwrites and deletes files. An optional rate limiter bounds
// overwrite bandwidth so large erases do not starve interactive I/O.
type Eraser struct {
	passes  int
	limiter *rate.Limiter
}

// NewEraser creates an Eraser performing the given number of overwrite
// passes. Values below one fall back to the default. A nil limiter means
// unthrottled writes.
func NewEraser(passes int, limiter *rate.Limiter) *Eraser {
	if passes < 1 {
		passes = defaultPasses
	}
	return &Eraser{passes: passes, limiter: limiter}
}

// NewLimiter builds a write limiter capping overwrite bandwidth at
// bytesPerSec. The burst always covers a full overwrite chunk so a limit
// below the chunk size still makes progress. A bytesPerSec below one
// returns nil, meaning unthrottled.
func NewLimiter(bytesPerSec int) *rate.Limiter {
	if bytesPerSec < 1 {
		return nil
	}
	burst := bytesPerSec
	if burst < eraseBufferSize {
		burst = eraseBufferSize
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// SecureDeleteFile overwrites path with zeros and removes it. A missing
// file yields a StatusNotFound result and a nil error: the caller wanted
// the file gone and it already is.
func (e *Eraser) SecureDeleteFile(ctx context.Context, path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Path: path, Status: StatusNotFound}, nil
		}
		return e.failed(path, apperrors.Wrap(err, "failed to stat file"))
	}
	if info.IsDir() {
		return e.failed(path, apperrors.Wrap(apperrors.ErrInvalidInput, "path is a directory"))
	}

	if err := e.overwrite(ctx, path, info.Size()); err != nil {
		return e.failed(path, err)
	}
	if err := os.Remove(path); err != nil {
		return e.failed(path, apperrors.Wrap(err, "failed to remove file"))
	}
	return Result{Path: path, Status: StatusDeleted}, nil
}

// SecureDeleteFiles erases every path, never aborting early: one stubborn
// file must not leave the rest recoverable. The results carry the per-path
// outcomes; the returned error aggregates any failures.
func (e *Eraser) SecureDeleteFiles(ctx context.Context, paths []string) ([]Result, error) {
	results := make([]Result, 0, len(paths))
	var failures []error

	for _, path := range paths {
		result, err := e.SecureDeleteFile(ctx, path)
		results = append(results, result)
		if err != nil {
			failures = append(failures, err)
		}
	}

	if len(failures) > 0 {
		return results, apperrors.Join(append([]error{ErrIncompleteErase}, failures...)...)
	}
	return results, nil
}

// overwrite writes zeros over the whole file once per pass, flushing each
// pass so the writes reach the device before the delete.
func (e *Eraser) overwrite(ctx context.Context, path string, size int64) error {
	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return apperrors.Wrap(err, "failed to open file for overwrite")
	}
	defer file.Close()

	for pass := 0; pass < e.passes; pass++ {
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return apperrors.Wrap(err, "failed to rewind file")
		}

		remaining := size
		for remaining > 0 {
			chunk := int64(eraseBufferSize)
			if remaining < chunk {
				chunk = remaining
			}

			if e.limiter != nil {
				if err := e.limiter.WaitN(ctx, int(chunk)); err != nil {
					return apperrors.Wrap(err, "overwrite canceled")
				}
			} else if err := ctx.Err(); err != nil {
				return apperrors.Wrap(err, "overwrite canceled")
			}

			if _, err := file.Write(zeros[:chunk]); err != nil {
				return apperrors.Wrap(err, "failed to overwrite file")
			}
			remaining -= chunk
		}

		if err := file.Sync(); err != nil {
			return apperrors.Wrap(err, "failed to flush overwrite pass")
		}
	}
	return nil
}

func (e *Eraser) failed(path string, err error) (Result, error) {
	return Result{Path: path, Status: StatusFailed, Err: err}, err
}
