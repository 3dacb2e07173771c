package render

import (
	"maps"
	"slices"
)

// PutResult describes what Cache.Put did.
type PutResult int

const (
	// Unchanged means the token already mapped to the same style.
	Unchanged PutResult = iota
	// Inserted means a new token was added.
	Inserted
	// Updated means an existing token now maps to a different style.
	Updated
	// Flushed means the cache was full and was cleared before inserting.
	Flushed
)

// Cache maps title tokens to sanitized styles and holds at most max entries.
// Inserting a new token into a full cache clears every entry first; there is
// no per-entry eviction.
//
// It is not safe for concurrent use; Stylesheet guards its cache.
type Cache struct {
	max     int
	entries map[string]string
}

// NewCache creates an empty cache bounded to max entries (DefaultMaxEntries
// when max < 1).
func NewCache(max int) *Cache {
	if max < 1 {
		max = DefaultMaxEntries
	}
	return &Cache{max: max, entries: make(map[string]string)}
}

// Get returns the style cached for token.
func (c *Cache) Get(token string) (string, bool) {
	style, ok := c.entries[token]
	return style, ok
}

// Put stores style under token, flushing the cache if a new token would
// exceed the bound.
func (c *Cache) Put(token, style string) PutResult {
	if old, ok := c.entries[token]; ok {
		if old == style {
			return Unchanged
		}
		c.entries[token] = style
		return Updated
	}

	result := Inserted
	if len(c.entries) >= c.max {
		c.Clear()
		result = Flushed
	}
	c.entries[token] = style
	return result
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Tokens returns the cached tokens in sorted order.
func (c *Cache) Tokens() []string {
	return slices.Sorted(maps.Keys(c.entries))
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.entries = make(map[string]string)
}
