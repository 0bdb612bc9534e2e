package translate

import (
	lru "github.com/hashicorp/golang-lru"
)

const DefaultCacheSize = 4096

type cacheKey struct {
	locale string
	text   string
}

// Cache memoizes translations per (locale, source text) with LRU eviction.
type Cache struct {
	entries *lru.Cache
}

func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

func (c *Cache) Get(locale, text string) (string, bool) {
	v, ok := c.entries.Get(cacheKey{locale: locale, text: text})
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *Cache) Add(locale, text, translated string) {
	c.entries.Add(cacheKey{locale: locale, text: text}, translated)
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) Purge() {
	c.entries.Purge()
}
