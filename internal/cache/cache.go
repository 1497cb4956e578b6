package cache

import (
	"sync"

	"github.com/google/uuid"
)

// Preview holds the bytes served for an image preview.
type Preview struct {
	MIMEType string
	Body     []byte
}

// entry wraps a preview with insertion order tracking.
type entry struct {
	preview   *Preview
	insertIdx int64
}

// PreviewCache owns preview resources behind opaque handles.
// A handle stays valid until Release is called. maxEntries must cover every
// slot image (config validation enforces it), so eviction only reclaims
// handles an owner failed to release.
// Thread-safe with sync.RWMutex.
type PreviewCache struct {
	mu         sync.RWMutex
	items      map[string]entry
	maxEntries int
	nextIdx    int64
	released   int64
}

// New creates a new PreviewCache holding at most maxEntries previews.
func New(maxEntries int) *PreviewCache {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &PreviewCache{
		items:      make(map[string]entry),
		maxEntries: maxEntries,
	}
}

// Acquire stores a preview and returns its handle. Evicts the oldest entry if at capacity.
func (c *PreviewCache) Acquire(p *Preview) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	handle := uuid.New().String()

	if len(c.items) >= c.maxEntries {
		c.evictOldest()
	}

	c.items[handle] = entry{
		preview:   p,
		insertIdx: c.nextIdx,
	}
	c.nextIdx++

	return handle
}

// Get returns the preview for handle if it has not been released.
func (c *PreviewCache) Get(handle string) (*Preview, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[handle]
	if !ok {
		return nil, false
	}
	return e.preview, true
}

// Release frees the preview behind handle. Releasing an unknown handle is a no-op.
func (c *PreviewCache) Release(handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[handle]; ok {
		delete(c.items, handle)
		c.released++
	}
}

// Len returns the number of live previews.
func (c *PreviewCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Released returns how many previews have been explicitly released.
func (c *PreviewCache) Released() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.released
}

// evictOldest removes the entry with the lowest insertIdx. Must be called with mu held.
func (c *PreviewCache) evictOldest() {
	var oldestKey string
	var oldestIdx int64 = -1

	for key, e := range c.items {
		if oldestIdx == -1 || e.insertIdx < oldestIdx {
			oldestIdx = e.insertIdx
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
