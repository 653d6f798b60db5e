package cache

import (
	"github.com/google/uuid"
)

// ThumbnailCache caches decrypted thumbnail bytes keyed by document id.
// It is a typed view over Cache so call sites never stringify ids
// themselves.
type ThumbnailCache struct {
	cache *Cache
}

// NewThumbnailCache creates a thumbnail cache with the given budgets.
func NewThumbnailCache(maxBytes int64, maxItems int) *ThumbnailCache {
	return &ThumbnailCache{cache: New(maxBytes, maxItems)}
}

// Get returns the cached thumbnail for a document, if present.
func (t *ThumbnailCache) Get(id uuid.UUID) ([]byte, bool) {
	return t.cache.Get(id.String())
}

// Put stores a document's thumbnail bytes.
func (t *ThumbnailCache) Put(id uuid.UUID, data []byte) {
	t.cache.Put(id.String(), data)
}

// Remove drops a document's thumbnail.
func (t *ThumbnailCache) Remove(id uuid.UUID) {
	t.cache.Remove(id.String())
}

// TrimToSize evicts until at most target bytes remain.
func (t *ThumbnailCache) TrimToSize(target int64) {
	t.cache.TrimToSize(target)
}

// Clear drops every thumbnail.
func (t *ThumbnailCache) Clear() {
	t.cache.Clear()
}

// Stats returns a snapshot of the cache counters.
func (t *ThumbnailCache) Stats() Stats {
	return t.cache.Stats()
}
