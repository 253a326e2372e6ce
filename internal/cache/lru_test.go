package cache

import (
	"errors"
	"testing"
	"time"
)

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Set("k", "v")
	clock = clock.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to miss")
	}

	c.Set("x", "1")
	c.Set("y", "2")
	clock = clock.Add(2 * time.Minute)
	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("CleanExpired removed %d, want 2", n)
	}
}

func TestLRUDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("u1:", 1)
	c.Set("u1:INCOME", 2)
	c.Set("u2:", 3)

	if n := c.DeletePrefix("u1:"); n != 2 {
		t.Fatalf("DeletePrefix removed %d, want 2", n)
	}
	if _, ok := c.Get("u2:"); !ok {
		t.Fatal("u2 entry should survive")
	}
}

func TestLRUGetOrLoad(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad("answer", load)
		if err != nil || v != 42 {
			t.Fatalf("GetOrLoad = %v, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loader called %d times, want 1", calls)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrLoad("bad", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Fatal("errors must not be cached")
	}

	st := c.Stats()
	if st.Hits != 2 || st.Size != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestLRUGetOrLoadInvalidatedDuringLoad(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(c *LRUCache[int])
		wantCached bool
	}{
		{"prefix of key deleted", func(c *LRUCache[int]) { c.DeletePrefix("u1:") }, false},
		{"key deleted", func(c *LRUCache[int]) { c.Delete("u1:") }, false},
		{"other user deleted", func(c *LRUCache[int]) { c.DeletePrefix("u2:") }, false},
		{"no invalidation", func(c *LRUCache[int]) {}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewLRUCache[int](10, time.Minute)
			v, err := c.GetOrLoad("u1:", func() (int, error) {
				// A write lands after the loader read its data.
				tt.invalidate(c)
				return 7, nil
			})
			if err != nil || v != 7 {
				t.Fatalf("GetOrLoad = %v, %v", v, err)
			}
			if _, ok := c.Get("u1:"); ok != tt.wantCached {
				t.Fatalf("cached = %v, want %v", ok, tt.wantCached)
			}
		})
	}
}

func TestManagerSweep(t *testing.T) {
	c := NewLRUCache[int](10, time.Nanosecond)
	c.Set("a", 1)
	time.Sleep(time.Millisecond)

	m := NewManager(nil)
	m.Register("test", c)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	m.Stop()
	m.Stop()
}
