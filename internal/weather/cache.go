package weather

import (
	"sync"

	"github.com/geoimpact/impact-profiler/internal/domain"
)

// InMemoryCache implements SummaryCache with a mutex-guarded map. Summaries
// are immutable once computed, so entries are never invalidated within a
// process lifetime.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]domain.WeatherSummary
}

// NewInMemoryCache creates an empty summary cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		entries: make(map[string]domain.WeatherSummary),
	}
}

func (c *InMemoryCache) Get(key string) (domain.WeatherSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	summary, ok := c.entries[key]
	return summary, ok
}

func (c *InMemoryCache) Put(key string, summary domain.WeatherSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = summary
}

// CacheKey builds the canonical cache key for a location and date range.
func CacheKey(location string, start, end string) string {
	return location + "|" + start + ".." + end
}
