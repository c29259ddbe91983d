package scorer

import (
	"sync"
)

// LoadFunc loads the backbone stored at path.
type LoadFunc func(path string) (Backbone, error)

// Cache holds loaded backbones for the life of the process, keyed by model path. Each path
// is loaded at most once, even under concurrent Get calls; a failed load is remembered.
type Cache struct {
	load LoadFunc

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once     sync.Once
	backbone Backbone
	err      error
}

func NewCache(load LoadFunc) *Cache {
	return &Cache{load: load, entries: make(map[string]*cacheEntry)}
}

func (c *Cache) Get(path string) (Backbone, error) {
	c.mu.Lock()
	e, ok := c.entries[path]
	if !ok {
		e = &cacheEntry{}
		c.entries[path] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.backbone, e.err = c.load(path)
	})
	return e.backbone, e.err
}

// Close releases every loaded backbone. The cache must not be used afterwards.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for path, e := range c.entries {
		if e.backbone != nil {
			if err := e.backbone.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		delete(c.entries, path)
	}
	return firstErr
}
