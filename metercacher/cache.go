// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metercacher provides metered cache implementations.
package metercacher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/kvcache"
	"github.com/luxfi/kvcache/lru"
)

var _ kvcache.Cacher[struct{}, struct{}] = (*Cache[struct{}, struct{}])(nil)

// Cache wraps a Cacher with metrics.
type Cache[K comparable, V any] struct {
	kvcache.Cacher[K, V]
	metrics *cacheMetrics
}

// New creates a new metered cache wrapper.
func New[K comparable, V any](
	namespace string,
	registerer prometheus.Registerer,
	c kvcache.Cacher[K, V],
) (*Cache[K, V], error) {
	metrics, err := newMetrics(namespace, registerer)
	return &Cache[K, V]{
		Cacher:  c,
		metrics: metrics,
	}, err
}

// NewLRU creates a metered LRU cache holding at most size entries. Entries
// dropped to make room are counted as evictions.
func NewLRU[K comparable, V any](
	namespace string,
	registerer prometheus.Registerer,
	size int,
) (*Cache[K, V], error) {
	metrics, err := newMetrics(namespace, registerer)
	c := &Cache[K, V]{metrics: metrics}
	c.Cacher = lru.NewCacheWithOnEvict[K, V](size, c.evicted)
	return c, err
}

func (c *Cache[K, V]) evicted(K, V) {
	c.metrics.evictions.Inc()
}

func (c *Cache[K, V]) Put(key K, value V) {
	start := time.Now()
	c.Cacher.Put(key, value)
	putDuration := time.Since(start)

	c.metrics.putCount.Inc()
	c.metrics.putTime.Add(float64(putDuration))
	c.observeSize()
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	start := time.Now()
	value, has := c.Cacher.Get(key)
	getDuration := time.Since(start)

	result := missResult
	if has {
		result = hitResult
	}
	c.metrics.getCount.WithLabelValues(result).Inc()
	c.metrics.getTime.WithLabelValues(result).Add(float64(getDuration))

	return value, has
}

func (c *Cache[K, _]) Evict(key K) {
	c.Cacher.Evict(key)
	c.observeSize()
}

func (c *Cache[_, _]) Flush() {
	c.Cacher.Flush()
	c.observeSize()
}

func (c *Cache[_, _]) observeSize() {
	c.metrics.len.Set(float64(c.Cacher.Len()))
	c.metrics.portionFilled.Set(c.Cacher.PortionFilled())
}
