package linkedin

import "sync"

const lookupCacheLimit = 256

// lookupCache holds derived lookups that are expensive to recompute:
// direct thread URLs keyed by conversation identity, the signed-in
// account name. Entries evict in insertion order once the limit is hit
// and the whole cache is dropped on sign-out.
type lookupCache struct {
	mu    sync.Mutex
	limit int
	order []string
	vals  map[string]string
}

func newLookupCache(limit int) *lookupCache {
	return &lookupCache{
		limit: limit,
		vals:  make(map[string]string),
	}
}

func (c *lookupCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vals[key]
	return v, ok
}

func (c *lookupCache) put(key, val string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.vals[key]; !exists {
		if len(c.order) >= c.limit {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.vals, oldest)
		}
		c.order = append(c.order, key)
	}
	c.vals[key] = val
}

func (c *lookupCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.vals = make(map[string]string)
}
