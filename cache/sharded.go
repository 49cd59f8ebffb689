// Package cache provides the sharded LRU cache backing the device's
// native view deduplication.
//
// Views are keyed by binding keys: value types whose equality and hash
// cover every field that affects the GPU-visible view. Two lookups with
// equal keys must observe the same cached view, so creation goes through
// GetOrCreate, which holds the shard lock across the create callback to
// keep concurrent binding set creation from racing duplicate native views
// into existence.
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

const (
	// DefaultShardCount is the number of shards. Must be a power of 2 so
	// shard selection is a bitwise AND on the key hash.
	DefaultShardCount = 16

	// DefaultCapacity is the default maximum entries per shard.
	DefaultCapacity = 256

	shardMask = DefaultShardCount - 1
)

// Hasher computes the shard-selection hash for a key. Keys carrying their
// own Hash method pass it through; string keys use StringHasher.
type Hasher[K any] func(K) uint64

// StringHasher computes the FNV-1a hash of a string key.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // fnv.Write never returns an error
	return h.Sum64()
}

// Uint64Hasher returns the key itself as the hash (identity hash).
func Uint64Hasher(u uint64) uint64 {
	return u
}

// ShardedCache is a thread-safe, sharded LRU cache.
//
// Each shard has its own lock, so lookups of keys hashing to different
// shards never contend. Capacity is enforced per shard; evicted values are
// handed to the eviction handler so their native objects can be released.
type ShardedCache[K comparable, V any] struct {
	shards   [DefaultShardCount]*cacheShard[K, V]
	hasher   Hasher[K]
	capacity int

	// onEvict receives entries removed by capacity pressure or Clear.
	// Called outside the shard lock.
	onEvict func(K, V)

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type cacheShard[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*cacheEntry[K, V]
	lru     *lruList[K]
}

type cacheEntry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// evicted is one entry removed while a shard lock was held, delivered to
// the eviction handler after unlock.
type evicted[K comparable, V any] struct {
	key   K
	value V
}

// NewSharded creates a sharded cache with the given per-shard capacity.
// Total capacity is capacity * DefaultShardCount. If capacity <= 0,
// DefaultCapacity is used.
func NewSharded[K comparable, V any](capacity int, hasher Hasher[K]) *ShardedCache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &ShardedCache[K, V]{
		hasher:   hasher,
		capacity: capacity,
	}
	for i := range c.shards {
		c.shards[i] = &cacheShard[K, V]{
			entries: make(map[K]*cacheEntry[K, V]),
			lru:     newLRUList[K](),
		}
	}
	return c
}

// SetEvictionHandler installs a callback invoked for every entry the cache
// drops on its own (capacity eviction or Clear). Entries removed by Delete
// and DeleteFunc are returned to the caller instead. The handler runs
// outside the shard lock and must not re-enter the cache.
func (c *ShardedCache[K, V]) SetEvictionHandler(fn func(K, V)) {
	c.onEvict = fn
}

func (c *ShardedCache[K, V]) getShard(key K) *cacheShard[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// deliver hands evicted entries to the handler; call with no locks held.
func (c *ShardedCache[K, V]) deliver(evs []evicted[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, ev := range evs {
		c.onEvict(ev.key, ev.value)
	}
}

// evictOverCapacity removes oldest entries until the shard fits one more.
// Caller holds the shard lock.
func (c *ShardedCache[K, V]) evictOverCapacity(shard *cacheShard[K, V], evs []evicted[K, V]) []evicted[K, V] {
	for shard.lru.Len() >= c.capacity {
		oldest, ok := shard.lru.RemoveOldest()
		if !ok {
			break
		}
		if entry, ok := shard.entries[oldest]; ok {
			evs = append(evs, evicted[K, V]{key: oldest, value: entry.value})
			delete(shard.entries, oldest)
		}
		c.evictions.Add(1)
	}
	return evs
}

// Get retrieves a cached value by key, refreshing its recency on a hit.
func (c *ShardedCache[K, V]) Get(key K) (V, bool) {
	shard := c.getShard(key)

	shard.mu.Lock()
	entry, ok := shard.entries[key]
	if !ok {
		shard.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	shard.lru.MoveToFront(entry.node)
	value := entry.value
	shard.mu.Unlock()

	c.hits.Add(1)
	return value, true
}

// GetOrCreate returns the cached value for key, creating it with create on
// a miss. The shard lock is held across create, so concurrent callers with
// the same key observe exactly one creation. If create fails, nothing is
// cached and the error is returned.
func (c *ShardedCache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	shard := c.getShard(key)

	shard.mu.Lock()
	if entry, ok := shard.entries[key]; ok {
		shard.lru.MoveToFront(entry.node)
		value := entry.value
		shard.mu.Unlock()
		c.hits.Add(1)
		return value, nil
	}

	c.misses.Add(1)
	value, err := create()
	if err != nil {
		shard.mu.Unlock()
		var zero V
		return zero, err
	}

	evs := c.evictOverCapacity(shard, nil)
	node := shard.lru.PushFront(key)
	shard.entries[key] = &cacheEntry[K, V]{value: value, node: node}
	shard.mu.Unlock()

	c.deliver(evs)
	return value, nil
}

// Set stores a value, replacing any existing entry for key. The replaced
// value, if any, goes to the eviction handler.
func (c *ShardedCache[K, V]) Set(key K, value V) {
	shard := c.getShard(key)

	shard.mu.Lock()
	var evs []evicted[K, V]
	if existing, ok := shard.entries[key]; ok {
		evs = append(evs, evicted[K, V]{key: key, value: existing.value})
		existing.value = value
		shard.lru.MoveToFront(existing.node)
	} else {
		evs = c.evictOverCapacity(shard, evs)
		node := shard.lru.PushFront(key)
		shard.entries[key] = &cacheEntry[K, V]{value: value, node: node}
	}
	shard.mu.Unlock()

	c.deliver(evs)
}

// Delete removes the entry for key and returns its value.
func (c *ShardedCache[K, V]) Delete(key K) (V, bool) {
	shard := c.getShard(key)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, ok := shard.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	shard.lru.Remove(entry.node)
	delete(shard.entries, key)
	return entry.value, true
}

// DeleteFunc removes every entry the predicate matches and returns the
// removed values. Used to purge a destroyed resource's views in one sweep.
func (c *ShardedCache[K, V]) DeleteFunc(match func(K, V) bool) []V {
	var removed []V
	for _, shard := range c.shards {
		shard.mu.Lock()
		for key, entry := range shard.entries {
			if match(key, entry.value) {
				shard.lru.Remove(entry.node)
				delete(shard.entries, key)
				removed = append(removed, entry.value)
			}
		}
		shard.mu.Unlock()
	}
	return removed
}

// Clear removes all entries, delivering them to the eviction handler.
func (c *ShardedCache[K, V]) Clear() {
	var evs []evicted[K, V]
	for _, shard := range c.shards {
		shard.mu.Lock()
		for key, entry := range shard.entries {
			evs = append(evs, evicted[K, V]{key: key, value: entry.value})
		}
		shard.entries = make(map[K]*cacheEntry[K, V])
		shard.lru.Clear()
		shard.mu.Unlock()
	}
	c.deliver(evs)
}

// Len returns the total number of entries across all shards.
func (c *ShardedCache[K, V]) Len() int {
	total := 0
	for _, shard := range c.shards {
		shard.mu.RLock()
		total += len(shard.entries)
		shard.mu.RUnlock()
	}
	return total
}

// Capacity returns the per-shard capacity.
func (c *ShardedCache[K, V]) Capacity() int {
	return c.capacity
}

// TotalCapacity returns the capacity across all shards.
func (c *ShardedCache[K, V]) TotalCapacity() int {
	return c.capacity * DefaultShardCount
}

// Stats returns a snapshot of the cache counters.
func (c *ShardedCache[K, V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Len:           c.Len(),
		Capacity:      c.capacity,
		TotalCapacity: c.capacity * DefaultShardCount,
		Hits:          hits,
		Misses:        misses,
		HitRate:       hitRate,
		Evictions:     c.evictions.Load(),
	}
}

// ResetStats resets the counters to zero.
func (c *ShardedCache[K, V]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}
