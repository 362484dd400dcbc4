// Package cache keeps project file contents in memory so the extractor and
// the grammar parser read each file at most once per run.
package cache

import (
	"container/list"
	"sync"
)

// Entry is one cached file read. Missing records that the file could not be
// read, so an absent header is not looked up on disk again.
type Entry struct {
	Value   []byte
	Missing bool
}

// Size is the number of content bytes the entry holds.
func (e Entry) Size() int64 { return int64(len(e.Value)) }

// Stats is a snapshot of cache occupancy and lookups.
type Stats struct {
	Entries   int
	SizeBytes int64
	Hits      int
	Misses    int
}

type node struct {
	path  string
	entry Entry
}

// MemoryCache is a least recently used cache of file contents keyed by
// normalized path, bounded both by entry count and by total content bytes.
type MemoryCache struct {
	maxEntries int
	maxBytes   int64

	mu    sync.Mutex
	index map[string]*list.Element
	order *list.List // front is most recently used
	stats Stats
}

// NewMemoryCache creates a cache holding at most maxEntries files and
// maxBytes of content.
func NewMemoryCache(maxEntries int, maxBytes int64) *MemoryCache {
	return &MemoryCache{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		index:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Get looks up path. The returned content is a copy the caller may modify.
func (c *MemoryCache) Get(path string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[path]
	if !ok {
		c.stats.Misses++
		return Entry{}, false
	}
	c.stats.Hits++
	c.order.MoveToFront(elem)

	cached := elem.Value.(*node).entry
	return Entry{Value: append([]byte(nil), cached.Value...), Missing: cached.Missing}, true
}

// Set stores the content read for path.
func (c *MemoryCache) Set(path string, content []byte) {
	c.store(path, Entry{Value: content})
}

// SetMissing records that path could not be read.
func (c *MemoryCache) SetMissing(path string) {
	c.store(path, Entry{Missing: true})
}

func (c *MemoryCache) store(path string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[path]; ok {
		n := elem.Value.(*node)
		c.stats.SizeBytes += entry.Size() - n.entry.Size()
		n.entry = entry
		c.order.MoveToFront(elem)
	} else {
		c.index[path] = c.order.PushFront(&node{path: path, entry: entry})
		c.stats.SizeBytes += entry.Size()
	}

	for c.order.Len() > 0 && (c.order.Len() > c.maxEntries || c.stats.SizeBytes > c.maxBytes) {
		oldest := c.order.Back()
		n := oldest.Value.(*node)
		c.order.Remove(oldest)
		delete(c.index, n.path)
		c.stats.SizeBytes -= n.entry.Size()
	}
}

// Stats returns current occupancy and the hit and miss counts so far.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = c.order.Len()
	return s
}
