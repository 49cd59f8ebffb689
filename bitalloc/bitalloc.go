// Package bitalloc provides a fixed-size bit allocator for small index
// spaces such as binding slots.
//
// The allocator packs one bit per index into uint64 words and finds free
// indices with hardware bit scans, so allocation is O(words) in the worst
// case and O(1) when the space is sparse.
package bitalloc

import (
	"math/bits"
	"sync"
)

const wordBits = 64

// Allocator hands out indices in [0, Size). The zero value is unusable;
// create with New. Safe for concurrent use.
type Allocator struct {
	mu    sync.Mutex
	words []uint64
	size  int
	used  int
}

// New creates an allocator for n indices. Returns nil if n <= 0.
func New(n int) *Allocator {
	if n <= 0 {
		return nil
	}
	return &Allocator{
		words: make([]uint64, (n+wordBits-1)/wordBits),
		size:  n,
	}
}

// Size returns the index space size.
func (a *Allocator) Size() int { return a.size }

// Used returns the number of allocated indices.
func (a *Allocator) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Allocate claims the lowest free index. Returns (-1, false) when full.
func (a *Allocator) Allocate() (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for w, word := range a.words {
		if word == ^uint64(0) {
			continue
		}
		bit := bits.TrailingZeros64(^word)
		idx := w*wordBits + bit
		if idx >= a.size {
			break
		}
		a.words[w] |= 1 << bit
		a.used++
		return idx, true
	}
	return -1, false
}

// AllocateAt claims a specific index. Returns false if the index is out of
// range or already allocated.
func (a *Allocator) AllocateAt(idx int) bool {
	if idx < 0 || idx >= a.size {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	w, bit := idx/wordBits, uint(idx%wordBits)
	if a.words[w]&(1<<bit) != 0 {
		return false
	}
	a.words[w] |= 1 << bit
	a.used++
	return true
}

// Free releases an index. Freeing an unallocated or out-of-range index is
// a no-op.
func (a *Allocator) Free(idx int) {
	if idx < 0 || idx >= a.size {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	w, bit := idx/wordBits, uint(idx%wordBits)
	if a.words[w]&(1<<bit) == 0 {
		return
	}
	a.words[w] &^= 1 << bit
	a.used--
}

// Test reports whether an index is allocated.
func (a *Allocator) Test(idx int) bool {
	if idx < 0 || idx >= a.size {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.words[idx/wordBits]&(1<<uint(idx%wordBits)) != 0
}

// Reset frees every index.
func (a *Allocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.words)
	a.used = 0
}
