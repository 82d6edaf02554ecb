package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fixedClock lets tests control the cache's notion of now.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fixedClock) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fixedClock) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestCache() (*Cache, *fixedClock) {
	clock := &fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := New()
	c.now = clock.now
	return c, clock
}

func TestGetAfterSet(t *testing.T) {
	c, _ := newTestCache()
	c.Set("k", "v", time.Hour)

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("Get returned miss for freshly set key")
	}
	if got != "v" {
		t.Errorf("Get = %v, want %q", got, "v")
	}
}

func TestGetNeverSetKey(t *testing.T) {
	c, _ := newTestCache()
	if _, ok := c.Get("missing"); ok {
		t.Error("Get returned hit for never-set key")
	}
}

func TestExpiry(t *testing.T) {
	c, clock := newTestCache()
	c.Set("k", 42, time.Hour)

	clock.advance(59 * time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Error("entry expired before its TTL elapsed")
	}

	clock.advance(time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("entry still readable at exactly its expiry time")
	}
}

func TestExpiredEntryLazilyEvicted(t *testing.T) {
	c, clock := newTestCache()
	c.Set("k", "v", time.Minute)
	clock.advance(2 * time.Minute)

	if c.Len() != 1 {
		t.Fatalf("Len = %d before lookup, want 1 (no background sweep)", c.Len())
	}

	c.Get("k")

	if c.Len() != 0 {
		t.Errorf("Len = %d after expired lookup, want 0", c.Len())
	}
}

func TestNoTTLNeverExpires(t *testing.T) {
	c, clock := newTestCache()
	c.Set("k", "v", 0)

	clock.advance(1000 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Error("entry with no TTL expired")
	}
}

func TestDeleteAndClear(t *testing.T) {
	c, _ := newTestCache()
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted key still readable")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len = %d after Clear, want 0", c.Len())
	}
}

func TestSetReplacesWholeEntry(t *testing.T) {
	c, clock := newTestCache()
	c.Set("k", "old", time.Minute)
	c.Set("k", "new", 0) // replacement drops the expiry

	clock.advance(time.Hour)
	got, ok := c.Get("k")
	if !ok || got != "new" {
		t.Errorf("Get = %v, %v; want %q, true", got, ok, "new")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				key := fmt.Sprintf("k%d", j%10)
				c.Set(key, i, time.Second)
				c.Get(key)
				if j%25 == 0 {
					c.Delete(key)
				}
			}
		}()
	}
	wg.Wait()
}
