package router

import (
	"strings"
	"sync"
	"time"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
)

var _ contractx.Classifier = (*Cache)(nil)

// Cache memoizes decisions for repeated utterances. Control commands and
// probing messages repeat constantly on a robot; answering them from the
// cache keeps the hot path flat. Identical input yields an identical
// decision, so memoization preserves the classifier contract.
type Cache struct {
	inner contractx.Classifier
	ttl   time.Duration
	max   int
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	hits    uint64
	misses  uint64
}

type cacheEntry struct {
	decision contractx.RoutingDecision
	storedAt time.Time
}

type CacheOption func(*Cache)

// WithClock overrides the cache clock.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

func NewCache(inner contractx.Classifier, cfg Config, opts ...CacheOption) *Cache {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	max := cfg.CacheSize
	if max <= 0 {
		max = 256
	}

	c := &Cache{
		inner:   inner,
		ttl:     ttl,
		max:     max,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Classify(msg contractx.Message) contractx.RoutingDecision {
	key := normalizeKey(msg.Text)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.storedAt) < c.ttl {
		c.hits++
		c.mu.Unlock()
		return e.decision
	}
	c.misses++
	c.mu.Unlock()

	decision := c.inner.Classify(msg)

	c.mu.Lock()
	if len(c.entries) >= c.max {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry{decision: decision, storedAt: c.now()}
	c.mu.Unlock()

	return decision
}

// evictLocked drops expired entries first, then the oldest while still full.
func (c *Cache) evictLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
	for len(c.entries) >= c.max {
		var oldestKey string
		var oldestAt time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.storedAt.Before(oldestAt) {
				oldestKey, oldestAt = k, e.storedAt
			}
		}
		delete(c.entries, oldestKey)
	}
}

type CacheStats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Size: len(c.entries)}
}

func normalizeKey(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
