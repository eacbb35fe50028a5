package transfercore

import "testing"

func TestLegCacheHitMiss(t *testing.T) {
	c := newLegCache(2)
	k1 := cacheKey{fromLoc: "a", toLoc: "b", depBucket: 1}
	if _, ok := c.get(k1); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.put(k1, LegSolution{DvTotalMS: 100})
	sol, ok := c.get(k1)
	if !ok || sol.DvTotalMS != 100 {
		t.Fatalf("get after put = (%v, %v), want (100, true)", sol, ok)
	}
	stats := c.stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 || stats.Capacity != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestLegCacheEviction(t *testing.T) {
	c := newLegCache(2)
	k1 := cacheKey{fromLoc: "a", toLoc: "b", depBucket: 1}
	k2 := cacheKey{fromLoc: "a", toLoc: "b", depBucket: 2}
	k3 := cacheKey{fromLoc: "a", toLoc: "b", depBucket: 3}
	c.put(k1, LegSolution{DvTotalMS: 1})
	c.put(k2, LegSolution{DvTotalMS: 2})
	// Touch k1 so it becomes more recently used than k2.
	c.get(k1)
	c.put(k3, LegSolution{DvTotalMS: 3})

	if _, ok := c.get(k2); ok {
		t.Fatal("k2 should have been evicted as least recently used")
	}
	if _, ok := c.get(k1); !ok {
		t.Fatal("k1 should still be present")
	}
	if _, ok := c.get(k3); !ok {
		t.Fatal("k3 should still be present")
	}
}

func TestLegCacheClear(t *testing.T) {
	c := newLegCache(4)
	k := cacheKey{fromLoc: "a", toLoc: "b"}
	c.put(k, LegSolution{DvTotalMS: 5})
	c.get(k)
	c.clear()
	stats := c.stats()
	if stats.Hits != 0 || stats.Misses != 0 || stats.Entries != 0 {
		t.Fatalf("stats after clear = %+v, want zeroed", stats)
	}
	if _, ok := c.get(k); ok {
		t.Fatal("expected miss after clear")
	}
}
