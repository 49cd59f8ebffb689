// Package markers tracks recently seen debug marker labels.
//
// Command lists emit a log line the first time a marker label appears, but
// render loops push the same labels every frame; a bounded recency set
// keeps the log to one line per distinct label without growing without
// bound when labels are dynamic.
package markers

import (
	"container/list"
	"sync"
)

// DefaultCapacity is the tracker capacity used when none is given.
const DefaultCapacity = 256

// Tracker is a bounded LRU set of strings. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recent; values are strings
	elems    map[string]*list.Element
}

// NewTracker creates a tracker holding at most capacity labels. If
// capacity <= 0, DefaultCapacity is used.
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracker{
		capacity: capacity,
		order:    list.New(),
		elems:    make(map[string]*list.Element),
	}
}

// Seen records the label and reports whether it was already tracked. A
// label evicted by capacity pressure counts as new again.
func (t *Tracker) Seen(label string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.elems[label]; ok {
		t.order.MoveToFront(e)
		return true
	}

	for t.order.Len() >= t.capacity {
		oldest := t.order.Back()
		t.order.Remove(oldest)
		delete(t.elems, oldest.Value.(string))
	}

	t.elems[label] = t.order.PushFront(label)
	return false
}

// Len returns the number of tracked labels.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order.Len()
}

// Reset forgets every label.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.order.Init()
	clear(t.elems)
}
