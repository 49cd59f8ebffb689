package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

type viewKey struct {
	resourceID uint64
	mip        uint32
}

func viewKeyHasher(k viewKey) uint64 {
	return k.resourceID*31 + uint64(k.mip)
}

func TestGetOrCreate(t *testing.T) {
	c := NewSharded[viewKey, string](8, viewKeyHasher)

	created := 0
	make1 := func() (string, error) {
		created++
		return "view-1", nil
	}

	v, err := c.GetOrCreate(viewKey{resourceID: 1}, make1)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if v != "view-1" {
		t.Errorf("got %q, want view-1", v)
	}

	// Second lookup with an equal key must not create again.
	v, err = c.GetOrCreate(viewKey{resourceID: 1}, make1)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if v != "view-1" || created != 1 {
		t.Errorf("got %q with %d creations, want view-1 with 1", v, created)
	}
}

func TestGetOrCreateError(t *testing.T) {
	c := NewSharded[viewKey, string](8, viewKeyHasher)
	wantErr := errors.New("device lost")

	_, err := c.GetOrCreate(viewKey{resourceID: 7}, func() (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got err %v, want %v", err, wantErr)
	}
	if c.Len() != 0 {
		t.Errorf("failed creation was cached: len %d", c.Len())
	}

	// A later successful creation must go through.
	v, err := c.GetOrCreate(viewKey{resourceID: 7}, func() (string, error) {
		return "view-7", nil
	})
	if err != nil || v != "view-7" {
		t.Errorf("got (%q, %v), want (view-7, nil)", v, err)
	}
}

func TestDeleteFunc(t *testing.T) {
	c := NewSharded[viewKey, string](8, viewKeyHasher)
	for res := uint64(1); res <= 3; res++ {
		for mip := uint32(0); mip < 4; mip++ {
			c.Set(viewKey{resourceID: res, mip: mip}, fmt.Sprintf("view-%d-%d", res, mip))
		}
	}

	removed := c.DeleteFunc(func(k viewKey, _ string) bool {
		return k.resourceID == 2
	})
	if len(removed) != 4 {
		t.Errorf("removed %d entries, want 4", len(removed))
	}
	if c.Len() != 8 {
		t.Errorf("len %d after purge, want 8", c.Len())
	}
	if _, ok := c.Get(viewKey{resourceID: 2, mip: 0}); ok {
		t.Error("purged entry still present")
	}
	if _, ok := c.Get(viewKey{resourceID: 1, mip: 0}); !ok {
		t.Error("unrelated entry was purged")
	}
}

func TestEvictionHandler(t *testing.T) {
	c := NewSharded[uint64, int](2, Uint64Hasher)

	var mu sync.Mutex
	evicted := make(map[uint64]int)
	c.SetEvictionHandler(func(k uint64, v int) {
		mu.Lock()
		evicted[k] = v
		mu.Unlock()
	})

	// Same shard: identity hash, keys differing only above the shard mask.
	for i := range 4 {
		c.Set(uint64(i)*DefaultShardCount, i)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(evicted) != 2 {
		t.Fatalf("evicted %d entries, want 2", len(evicted))
	}
	// Oldest first.
	for _, k := range []uint64{0, DefaultShardCount} {
		if _, ok := evicted[k]; !ok {
			t.Errorf("key %d not evicted", k)
		}
	}
}

func TestDeleteReturnsValue(t *testing.T) {
	c := NewSharded[uint64, string](8, Uint64Hasher)
	c.Set(5, "view-5")

	v, ok := c.Delete(5)
	if !ok || v != "view-5" {
		t.Errorf("Delete = (%q, %v), want (view-5, true)", v, ok)
	}
	if _, ok := c.Delete(5); ok {
		t.Error("second Delete reported an entry")
	}
}

func TestStats(t *testing.T) {
	c := NewSharded[uint64, int](8, Uint64Hasher)
	c.Set(1, 10)

	c.Get(1)
	c.Get(2)

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", s.Hits, s.Misses)
	}
	if s.HitRate != 0.5 {
		t.Errorf("hit rate %v, want 0.5", s.HitRate)
	}
	if s.TotalCapacity != 8*DefaultShardCount {
		t.Errorf("total capacity %d, want %d", s.TotalCapacity, 8*DefaultShardCount)
	}

	c.ResetStats()
	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 {
		t.Errorf("stats not reset: %+v", s)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewSharded[uint64, uint64](64, Uint64Hasher)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				key := uint64(g*200 + i)
				v, err := c.GetOrCreate(key, func() (uint64, error) {
					return key * 2, nil
				})
				if err != nil {
					t.Errorf("GetOrCreate(%d): %v", key, err)
					return
				}
				if v != key*2 {
					t.Errorf("GetOrCreate(%d) = %d, want %d", key, v, key*2)
					return
				}
			}
		}()
	}
	wg.Wait()
}
