package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TTLCache is an in-process result cache. Entries expire after the TTL given at
// construction and can be dropped early with Delete or Purge. It is only ever a
// latency aid: callers must be able to recompute every value it holds.
type TTLCache[K comparable, V any] struct {
	lru *expirable.LRU[K, V]
}

// NewTTLCache builds a cache holding at most size entries (0 means unbounded).
func NewTTLCache[K comparable, V any](size int, ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{lru: expirable.NewLRU[K, V](size, nil, ttl)}
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

func (c *TTLCache[K, V]) Set(key K, value V) {
	c.lru.Add(key, value)
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.lru.Remove(key)
}

// DeleteFunc drops every key for which match returns true.
func (c *TTLCache[K, V]) DeleteFunc(match func(K) bool) {
	for _, k := range c.lru.Keys() {
		if match(k) {
			c.lru.Remove(k)
		}
	}
}

func (c *TTLCache[K, V]) Purge() {
	c.lru.Purge()
}

func (c *TTLCache[K, V]) Len() int {
	return c.lru.Len()
}
