package vs30

import (
	"context"
	"fmt"
	"sync"

	"github.com/justinschembri/isprs/internal/observability"
	"github.com/justinschembri/isprs/internal/pipeline"
)

// CachedProvider wraps a Vs30Provider with an in-memory LRU cache. Stations
// report from fixed sites, so a modest cache absorbs nearly all lookups.
type CachedProvider struct {
	inner   pipeline.Vs30Provider
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a provider.
func NewCachedProvider(inner pipeline.Vs30Provider, maxEntries int, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedProvider) Vs30(ctx context.Context, lat, lon float64) (float64, error) {
	// Four decimal places is about 11m, well inside one grid cell.
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if v, ok := c.cache.get(key); ok {
		c.metrics.Vs30Cache.WithLabelValues("hit").Inc()
		return v, nil
	}
	c.metrics.Vs30Cache.WithLabelValues("miss").Inc()

	v, err := c.inner.Vs30(ctx, lat, lon)
	if err != nil {
		return 0, err
	}
	c.cache.put(key, v)
	return v, nil
}

// lruCache is a simple thread-safe LRU cache for vs30 values.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value float64
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
