// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestLRU(capacity int, ttl time.Duration) (*LRU[string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[string](capacity, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUGetAndEviction(t *testing.T) {
	c, _ := newTestLRU(3, time.Minute)
	c.Add("a", "1")
	c.Add("b", "2")
	c.Add("c", "3")

	// a becomes the most recently used, leaving b as the oldest.
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	c.Add("d", "4")

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s missing", key)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestLRUUpdateRestartsTTL(t *testing.T) {
	c, clock := newTestLRU(10, time.Minute)
	c.Add("a", "old")
	clock.Advance(50 * time.Second)
	c.Add("a", "new")
	clock.Advance(50 * time.Second)

	v, ok := c.Get("a")
	if !ok || v != "new" {
		t.Fatalf("Get(a) = %q, %v, want new", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestLRUExpiry(t *testing.T) {
	c, clock := newTestLRU(10, time.Minute)
	c.Add("a", "1")
	c.Add("b", "2")
	if !c.Contains("a") {
		t.Fatal("a should be present")
	}

	clock.Advance(time.Minute)
	if c.Contains("a") {
		t.Error("a should have expired")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get returned an expired entry")
	}
	c.Add("c", "3")
	if n := c.CleanupExpired(); n != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	hits, misses := c.Stats()
	if hits != 0 || misses != 1 {
		t.Errorf("Stats() = %d, %d, want 0, 1", hits, misses)
	}
}

func TestLRURemove(t *testing.T) {
	c, _ := newTestLRU(10, time.Minute)
	c.Add("a", "1")
	if !c.Remove("a") {
		t.Error("Remove(a) = false")
	}
	if c.Remove("a") {
		t.Error("second Remove(a) = true")
	}
}

func TestLRUDefaults(t *testing.T) {
	c := NewLRU[int](0, 0)
	if c.capacity != DefaultCapacity || c.ttl != DefaultTTL {
		t.Errorf("capacity, ttl = %d, %v", c.capacity, c.ttl)
	}
}

func TestLRUConcurrentAccess(t *testing.T) {
	c := NewLRU[int](50, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := strconv.Itoa((g*200 + i) % 120)
				c.Add(key, i)
				c.Get(key)
				c.Contains(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 50 {
		t.Errorf("Len() = %d, exceeds capacity", c.Len())
	}
}
