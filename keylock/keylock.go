// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package keylock serializes work on the same key using a fixed set of
// striped mutexes. Distinct keys that hash to the same stripe also
// serialize; the stripe count bounds memory regardless of key cardinality.
package keylock

import (
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultStripes is used when New is given a non-positive count.
const DefaultStripes = 256

// Locker maps keys onto a fixed array of mutexes.
type Locker struct {
	stripes []sync.Mutex
}

// New creates a Locker with n stripes.
func New(n int) *Locker {
	if n <= 0 {
		n = DefaultStripes
	}
	return &Locker{stripes: make([]sync.Mutex, n)}
}

// Lock acquires the stripe for key and returns its unlock function.
func (l *Locker) Lock(key string) (unlock func()) {
	mu := l.stripe(key)
	mu.Lock()
	return mu.Unlock
}

// Stripes returns the number of stripes.
func (l *Locker) Stripes() int {
	return len(l.stripes)
}

// Index returns the stripe index key maps to.
func (l *Locker) Index(key string) int {
	return int(murmur3.Sum32([]byte(key)) % uint32(len(l.stripes)))
}

func (l *Locker) stripe(key string) *sync.Mutex {
	return &l.stripes[l.Index(key)]
}
