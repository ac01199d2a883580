package texture

import (
	"image"
	"sync"
)

// Resolver resolves a texture or material name to a decoded image, or nil.
type Resolver interface {
	Resolve(name string) *image.NRGBA
}

// Cache is a concurrency-safe texture cache. Failed loads are remembered as nil.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*image.NRGBA
	index *Index
}

// NewCache creates a new texture cache backed by the given index.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*image.NRGBA),
		index: index,
	}
}

// Resolve loads and caches a texture by name.
func (c *Cache) Resolve(name string) *image.NRGBA {
	path, ok := c.index.ResolvePath(name)
	if !ok {
		return nil
	}

	c.mu.RLock()
	img, exists := c.items[path]
	c.mu.RUnlock()
	if exists {
		return img
	}

	img, _ = LoadTexture(path)

	// Another worker may have loaded it meanwhile; keep the first.
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, exists := c.items[path]; exists {
		return prev
	}
	c.items[path] = img
	return img
}
