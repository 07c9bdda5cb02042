package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Purge drops every entry
	Purge()

	// Size returns the current number of items in the cache
	Size() int
}

// LRU is a size-bounded cache whose entries expire after a fixed TTL.
// Expired entries are evicted in the background.
type LRU[T any] struct {
	lru *expirable.LRU[string, T]
}

var _ Cache[int] = (*LRU[int])(nil)

// NewLRU creates a cache holding at most size entries for ttl each.
// A zero ttl keeps entries until they are evicted by size.
func NewLRU[T any](size int, ttl time.Duration) *LRU[T] {
	if size < 1 {
		size = 1
	}
	return &LRU[T]{lru: expirable.NewLRU[string, T](size, nil, ttl)}
}

func (c *LRU[T]) Get(key string) (T, bool) {
	return c.lru.Get(key)
}

func (c *LRU[T]) Set(key string, data T) {
	c.lru.Add(key, data)
}

func (c *LRU[T]) Delete(key string) {
	c.lru.Remove(key)
}

func (c *LRU[T]) Purge() {
	c.lru.Purge()
}

func (c *LRU[T]) Size() int {
	return c.lru.Len()
}
