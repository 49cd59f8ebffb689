package cache

// lruNode is one entry in the recency list.
type lruNode[K any] struct {
	key        K
	prev, next *lruNode[K]
}

// lruList is a doubly linked recency list with a sentinel root. Front is
// most recently used, back is the eviction candidate. Not safe for
// concurrent use; the owning shard serializes access.
type lruList[K any] struct {
	root lruNode[K]
	len  int
}

func newLRUList[K any]() *lruList[K] {
	l := &lruList[K]{}
	l.root.prev = &l.root
	l.root.next = &l.root
	return l
}

// Len returns the number of entries.
func (l *lruList[K]) Len() int { return l.len }

// PushFront inserts key at the front and returns its node.
func (l *lruList[K]) PushFront(key K) *lruNode[K] {
	n := &lruNode[K]{key: key}
	l.insertAfter(n, &l.root)
	l.len++
	return n
}

// MoveToFront marks a node as most recently used.
func (l *lruList[K]) MoveToFront(n *lruNode[K]) {
	if l.root.next == n {
		return
	}
	l.unlink(n)
	l.insertAfter(n, &l.root)
}

// Remove unlinks a node.
func (l *lruList[K]) Remove(n *lruNode[K]) {
	l.unlink(n)
	n.prev, n.next = nil, nil
	l.len--
}

// RemoveOldest removes and returns the back entry's key.
func (l *lruList[K]) RemoveOldest() (K, bool) {
	if l.len == 0 {
		var zero K
		return zero, false
	}
	n := l.root.prev
	l.Remove(n)
	return n.key, true
}

// Clear resets the list to empty.
func (l *lruList[K]) Clear() {
	l.root.prev = &l.root
	l.root.next = &l.root
	l.len = 0
}

func (l *lruList[K]) insertAfter(n, at *lruNode[K]) {
	n.prev = at
	n.next = at.next
	at.next.prev = n
	at.next = n
}

func (l *lruList[K]) unlink(n *lruNode[K]) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

// Stats is a point-in-time snapshot of cache behavior.
type Stats struct {
	// Len is the current entry count across all shards.
	Len int
	// Capacity is the per-shard capacity.
	Capacity int
	// TotalCapacity is Capacity times the shard count.
	TotalCapacity int
	// Hits is the number of lookups that found an entry.
	Hits uint64
	// Misses is the number of lookups that did not.
	Misses uint64
	// HitRate is Hits over all lookups, or zero before any lookup.
	HitRate float64
	// Evictions is the number of entries removed by capacity pressure.
	Evictions uint64
}
