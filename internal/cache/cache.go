// Package cache provides the bounded in-memory LRU cache for decrypted
// thumbnail bytes, so list screens do not redo a decrypt per scroll.
package cache

import (
	"container/list"
	"sync"
)

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Items     int
	SizeBytes int64
	MaxBytes  int64
	MaxItems  int
}

type entry struct {
	key   string
	value []byte
}

// Cache is a string-keyed LRU over byte slices with two budgets checked on
// every insert: total bytes and item count. Eviction removes the least
// recently used entry first until both budgets hold; both Get and Put
// refresh recency. A single item larger than the whole byte budget is still
// accepted after everything else is evicted, because the most recently
// requested item is by definition the one the caller needs now.
//
// Values are copied on the way in and out, so callers can never mutate
// cached bytes. Safe for concurrent use.
type Cache struct {
	mu        sync.Mutex
	maxBytes  int64
	maxItems  int
	order     *list.List               // front = most recently used
	items     map[string]*list.Element // key -> element holding *entry
	sizeBytes int64
	hits      uint64
	misses    uint64
}

// New creates a cache with the given budgets. Budgets below one are clamped
// to one; budgets come from the device capability profile, never from call
// sites.
func New(maxBytes int64, maxItems int) *Cache {
	if maxBytes < 1 {
		maxBytes = 1
	}
	if maxItems < 1 {
		maxItems = 1
	}
	return &Cache{
		maxBytes: maxBytes,
		maxItems: maxItems,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns a copy of the cached value and records a hit or miss. A hit
// refreshes the entry's recency.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(elem)

	value := elem.Value.(*entry).value
	out := make([]byte, len(value))
	copy(out, value)
	return out, true
}

// Put stores a copy of value under key as the most recently used entry,
// then evicts least-recently-used entries until both budgets hold again.
// The entry just inserted is never evicted by its own insert.
func (c *Cache) Put(key string, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry)
		c.sizeBytes += int64(len(stored)) - int64(len(ent.value))
		ent.value = stored
		c.order.MoveToFront(elem)
	} else {
		elem := c.order.PushFront(&entry{key: key, value: stored})
		c.items[key] = elem
		c.sizeBytes += int64(len(stored))
	}

	for (c.sizeBytes > c.maxBytes || c.order.Len() > c.maxItems) && c.order.Len() > 1 {
		c.evictOldest()
	}
}

// Remove drops the entry for key if present.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// TrimToSize evicts least-recently-used entries until the cache holds at
// most targetBytes. A target of zero empties the cache.
func (c *Cache) TrimToSize(targetBytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if targetBytes < 0 {
		targetBytes = 0
	}
	for c.sizeBytes > targetBytes && c.order.Len() > 0 {
		c.evictOldest()
	}
}

// Clear drops every entry. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)
	c.sizeBytes = 0
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Items:     c.order.Len(),
		SizeBytes: c.sizeBytes,
		MaxBytes:  c.maxBytes,
		MaxItems:  c.maxItems,
	}
}

func (c *Cache) evictOldest() {
	if elem := c.order.Back(); elem != nil {
		c.removeElement(elem)
	}
}

func (c *Cache) removeElement(elem *list.Element) {
	ent := elem.Value.(*entry)
	c.order.Remove(elem)
	delete(c.items, ent.key)
	c.sizeBytes -= int64(len(ent.value))
}
