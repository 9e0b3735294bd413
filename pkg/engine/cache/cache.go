// Package cache provides the deduplicating result store shared by the
// executors. Entries are keyed by plugin identity, operation identity and a
// digest of the input value, so the same work is never computed twice within
// a cache's lifetime, including across concurrent bulk file workers.
package cache

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/clipstream/engine/pkg/engine/model"
)

// Cache is the store consumed by the executors. Implementations must be safe
// for concurrent Get and Put from many goroutines.
type Cache interface {
	// Get returns the cached output for the key, if present. A key that
	// was never stored, or was evicted, reports false.
	Get(pluginName, operationName string, input model.PluginData) (model.PluginData, bool)

	// Put stores the output under the key. At most one value is retained
	// per key; a later Put overwrites an earlier one.
	Put(pluginName, operationName string, input, output model.PluginData)
}

type key struct {
	plugin string
	op     string
	digest uint64
}

type entry struct {
	out  model.PluginData
	size int64
}

// ResultCache is an in-memory Cache with least-recently-used eviction. With
// no byte limit it grows without bound; with one, eviction keeps the resident
// size at or under the limit.
type ResultCache struct {
	mu       sync.Mutex
	maxBytes int64
	bytes    int64
	entries  *simplelru.LRU[key, entry]
}

// Entries above this count evict by recency even in the unbounded cache, as
// a backstop against pathological runs.
const maxEntries = 1 << 20

// NewUnbounded creates a cache with no byte limit.
func NewUnbounded() *ResultCache {
	return newCache(0)
}

// NewBounded creates a cache that evicts least-recently-used entries once
// the resident size exceeds maxBytes.
func NewBounded(maxBytes int64) *ResultCache {
	return newCache(maxBytes)
}

func newCache(maxBytes int64) *ResultCache {
	c := &ResultCache{maxBytes: maxBytes}
	// NewLRU only fails on a non-positive size.
	c.entries, _ = simplelru.NewLRU[key, entry](maxEntries, func(_ key, e entry) {
		c.bytes -= e.size
	})

	return c
}

func makeKey(pluginName, operationName string, input model.PluginData) (key, bool) {
	enc, err := input.Canonical()
	if err != nil {
		return key{}, false
	}

	return key{plugin: pluginName, op: operationName, digest: xxhash.Sum64(enc)}, true
}

// Get implements Cache. A hit refreshes the entry's recency.
func (c *ResultCache) Get(pluginName, operationName string, input model.PluginData) (model.PluginData, bool) {
	k, ok := makeKey(pluginName, operationName, input)
	if !ok {
		return model.PluginData{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Get(k)
	if !ok {
		return model.PluginData{}, false
	}

	return e.out.Clone(), true
}

// Put implements Cache.
func (c *ResultCache) Put(pluginName, operationName string, input, output model.PluginData) {
	k, ok := makeKey(pluginName, operationName, input)
	if !ok {
		return
	}

	enc, err := output.Canonical()
	if err != nil {
		return
	}
	e := entry{out: output.Clone(), size: int64(len(enc))}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries.Peek(k); ok {
		c.bytes -= old.size
	}
	c.entries.Add(k, e)
	c.bytes += e.size

	if c.maxBytes <= 0 {
		return
	}
	for c.bytes > c.maxBytes && c.entries.Len() > 0 {
		c.entries.RemoveOldest()
	}
}

// Len reports the number of resident entries.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries.Len()
}

var _ Cache = (*ResultCache)(nil)
