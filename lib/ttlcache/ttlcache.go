// Package ttlcache wraps an expirable LRU into a small cache value that
// gets passed in explicitly wherever memoization is wanted. There is no
// package-level cache on purpose: owners construct their own instance and
// tests supply isolated ones.
package ttlcache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Cache[K comparable, V any] struct {
	lru *expirable.LRU[K, V]
}

// New creates a cache bounded to `size` entries whose entries expire
// `ttl` after being written.
func New[K comparable, V any](size int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		lru: expirable.NewLRU[K, V](size, nil, ttl),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.lru.Add(key, value)
}

func (c *Cache[K, V]) Remove(key K) {
	c.lru.Remove(key)
}

func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}

func (c *Cache[K, V]) Purge() {
	c.lru.Purge()
}
