package transfercore

import (
	"container/list"
	"sync"
)

// cacheKey buckets a leg request deterministically: depBucket is
// floor(departure_epoch_s/3600) (one-hour game-time buckets), dvBucket
// is round(extra_dv_m_s/10). Integer bucketing is exact equality, never
// floating-point ranges. maxRevs is part of the key because a multi-rev
// solve may legitimately return a different (better-quality) branch than
// a zero-rev one for the same pair.
type cacheKey struct {
	fromLoc, toLoc      string
	depBucket, dvBucket int64
	maxRevs             int
}

// CacheStats reports the LRU's observability counters.
type CacheStats struct {
	Hits, Misses, Entries, Capacity int
}

type cacheEntry struct {
	key cacheKey
	sol LegSolution
}

// legCache is a doubly-linked-list + map LRU. A single mutex covers
// lookup+insert, so the planner may be called from any number of
// goroutines.
type legCache struct {
	mu           sync.Mutex
	capacity     int
	order        *list.List // front = most recently used
	index        map[cacheKey]*list.Element
	hits, misses int
}

func newLegCache(capacity int) *legCache {
	return &legCache{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[cacheKey]*list.Element, capacity),
	}
}

func (c *legCache) get(key cacheKey) (LegSolution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[key]
	if !ok {
		c.misses++
		return LegSolution{}, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).sol, true
}

func (c *legCache) put(key cacheKey, sol LegSolution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		el.Value.(*cacheEntry).sol = sol
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{key: key, sol: sol})
	c.index[key] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.index, oldest.Value.(*cacheEntry).key)
		}
	}
}

// clear resets hit/miss counters and drops all entries under the cache
// lock, per the reload contract: the clear happens-before any lookup that
// acquires the lock afterwards.
func (c *legCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.index = make(map[cacheKey]*list.Element, c.capacity)
	c.hits = 0
	c.misses = 0
}

func (c *legCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Hits:     c.hits,
		Misses:   c.misses,
		Entries:  c.order.Len(),
		Capacity: c.capacity,
	}
}
