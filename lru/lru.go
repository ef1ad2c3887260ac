// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lru provides a fixed-capacity, thread-safe LRU cache.
package lru

import (
	"container/list"
	"sync"

	"github.com/luxfi/kvcache"
)

var _ kvcache.Cacher[struct{}, struct{}] = (*Cache[struct{}, struct{}])(nil)

// entry is a cache entry.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// Cache is a thread-safe LRU cache. Every exported method holds the lock for
// its whole duration, so operations are atomic with respect to each other.
type Cache[K comparable, V any] struct {
	lock     sync.Mutex
	size     int
	elements map[K]*list.Element
	order    *list.List // front is most recently used
	onEvict  func(K, V)
}

// NewCache creates a new LRU cache with the specified size.
func NewCache[K comparable, V any](size int) *Cache[K, V] {
	return NewCacheWithOnEvict[K, V](size, nil)
}

// NewCacheWithOnEvict creates a cache that calls onEvict for every entry
// dropped to make room for a new key. Explicit Evict and Flush do not
// trigger the callback.
//
// onEvict runs with the cache lock held and must not call back into the cache.
func NewCacheWithOnEvict[K comparable, V any](size int, onEvict func(K, V)) *Cache[K, V] {
	if size <= 0 {
		size = 1
	}
	return &Cache[K, V]{
		size:     size,
		elements: make(map[K]*list.Element, size),
		order:    list.New(),
		onEvict:  onEvict,
	}
}

// Put inserts an element into the cache.
func (c *Cache[K, V]) Put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if elem, ok := c.elements[key]; ok {
		// Updating counts as use.
		elem.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.size {
		if oldest := c.order.Back(); oldest != nil {
			e := c.removeElement(oldest)
			if c.onEvict != nil {
				c.onEvict(e.key, e.value)
			}
		}
	}

	c.elements[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
}

// Get returns the entry with the key, if it exists.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if elem, ok := c.elements[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Evict removes the specified entry from the cache.
func (c *Cache[K, V]) Evict(key K) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if elem, ok := c.elements[key]; ok {
		c.removeElement(elem)
	}
}

// Flush removes all entries from the cache.
func (c *Cache[K, V]) Flush() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.elements = make(map[K]*list.Element, c.size)
	c.order.Init()
}

// Len returns the number of elements in the cache.
func (c *Cache[K, V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.order.Len()
}

// Cap returns the fixed capacity of the cache.
func (c *Cache[K, V]) Cap() int {
	return c.size
}

// PortionFilled returns fraction of cache currently filled.
func (c *Cache[K, V]) PortionFilled() float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return float64(c.order.Len()) / float64(c.size)
}

// Keys returns the cached keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.lock.Lock()
	defer c.lock.Unlock()

	keys := make([]K, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*entry[K, V]).key)
	}
	return keys
}

func (c *Cache[K, V]) removeElement(elem *list.Element) *entry[K, V] {
	e := elem.Value.(*entry[K, V])
	delete(c.elements, e.key)
	c.order.Remove(elem)
	return e
}
