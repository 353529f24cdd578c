package geocode

import (
	"context"
	"fmt"
	"sync"

	"github.com/geoimpact/impact-profiler/internal/domain"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. Only
// successful resolutions are cached so transient failures can be retried.
type CachedGeocoder struct {
	inner domain.Geocoder
	cache *lruCache
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int) *CachedGeocoder {
	return &CachedGeocoder{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

func (c *CachedGeocoder) Resolve(ctx context.Context, query domain.LocationQuery) (domain.Coordinate, error) {
	key := fmt.Sprintf("fwd:%s|%s|%s", query.Name, query.Admin, query.Country)
	if cached, ok := c.cache.get(key); ok {
		return cached.coord, nil
	}
	coord, err := c.inner.Resolve(ctx, query)
	if err != nil {
		return coord, err
	}
	c.cache.put(key, cacheValue{coord: coord})
	return coord, nil
}

func (c *CachedGeocoder) ReverseResolve(ctx context.Context, coord domain.Coordinate) (string, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", coord.Lat, coord.Lon)
	if cached, ok := c.cache.get(key); ok {
		return cached.country, nil
	}
	country, err := c.inner.ReverseResolve(ctx, coord)
	if err != nil {
		return country, err
	}
	c.cache.put(key, cacheValue{country: country})
	return country, nil
}

type cacheValue struct {
	coord   domain.Coordinate
	country string
}

// lruCache is a simple thread-safe LRU cache for geocoding results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value cacheValue
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (cacheValue, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return cacheValue{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value cacheValue) {
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
