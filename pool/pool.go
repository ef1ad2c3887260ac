// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pool provides a fixed-size pool of reusable handles.
//
// Every handle is either idle in the pool or checked out by exactly one
// caller. Handles are created up front by New; the pool never grows on
// demand. A caller that acquires a handle must hand it back with Release,
// or with Discard when the handle is known to be broken.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Factory creates one handle.
type Factory[T any] func(ctx context.Context) (T, error)

// Closer releases the resources behind one handle.
type Closer[T any] func(T) error

// Stats is a point-in-time view of the pool.
type Stats struct {
	Size  int
	Idle  int
	InUse int
}

// Pool is a bounded set of reusable handles, safe for concurrent use.
type Pool[T comparable] struct {
	factory Factory[T]
	closer  Closer[T]
	cfg     *config
	metrics *poolMetrics

	// idle has capacity for the full pool, so a release never blocks.
	idle chan T

	mu     sync.Mutex
	out    map[T]struct{}
	size   int
	closed bool
}

// New creates size handles with factory. Creation failures are retried with
// exponential backoff; if any handle still cannot be created, the handles
// built so far are closed and New fails.
func New[T comparable](ctx context.Context, size int, factory Factory[T], closer Closer[T], opts ...Option) (*Pool[T], error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidConfig, size)
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: factory is required", ErrInvalidConfig)
	}
	if closer == nil {
		closer = func(T) error { return nil }
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	p := &Pool[T]{
		factory: factory,
		closer:  closer,
		cfg:     cfg,
		idle:    make(chan T, size),
		out:     make(map[T]struct{}, size),
	}
	for i := 0; i < size; i++ {
		h, err := p.create(ctx)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("create handle %d of %d: %w", i+1, size, err)
		}
		p.idle <- h
		p.size++
	}

	metrics, err := newMetrics(p, cfg.namespace, cfg.registerer)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}
	p.metrics = metrics
	return p, nil
}

func (p *Pool[T]) create(ctx context.Context) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.retryInterval
	return backoff.Retry(ctx, func() (T, error) {
		return p.factory(ctx)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(p.cfg.createRetries)+1))
}

// Acquire checks out one idle handle. When none is idle it fails with
// ErrExhausted immediately, or after waiting up to the configured acquire
// timeout. A cancelled ctx ends the wait with the context error.
func (p *Pool[T]) Acquire(ctx context.Context) (T, error) {
	var zero T
	select {
	case h, ok := <-p.idle:
		return p.checkout(h, ok)
	default:
	}

	if p.cfg.acquireTimeout <= 0 {
		p.metrics.exhausted.Inc()
		return zero, ErrExhausted
	}

	timer := time.NewTimer(p.cfg.acquireTimeout)
	defer timer.Stop()
	select {
	case h, ok := <-p.idle:
		return p.checkout(h, ok)
	case <-timer.C:
		p.metrics.exhausted.Inc()
		return zero, ErrExhausted
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (p *Pool[T]) checkout(h T, ok bool) (T, error) {
	if !ok {
		var zero T
		return zero, ErrClosed
	}
	p.mu.Lock()
	p.out[h] = struct{}{}
	p.mu.Unlock()
	return h, nil
}

// Release returns a checked-out handle to the pool. Releasing a handle that
// is not checked out fails with ErrUnknownHandle. After Close, released
// handles are closed instead of pooled.
func (p *Pool[T]) Release(h T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.out[h]; !ok {
		return ErrUnknownHandle
	}
	delete(p.out, h)
	if p.closed {
		return p.closer(h)
	}
	p.idle <- h
	return nil
}

// Discard closes a broken checked-out handle and puts a freshly created one
// in its place. If the replacement cannot be created the pool shrinks by
// one and the creation error is returned.
func (p *Pool[T]) Discard(ctx context.Context, h T) error {
	p.mu.Lock()
	if _, ok := p.out[h]; !ok {
		p.mu.Unlock()
		return ErrUnknownHandle
	}
	delete(p.out, h)
	p.size--
	closed := p.closed
	p.mu.Unlock()

	p.metrics.discarded.Inc()
	closeErr := p.closer(h)
	if closed {
		return closeErr
	}

	replacement, err := p.factory(ctx)
	if err != nil {
		return fmt.Errorf("recreate handle: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return p.closer(replacement)
	}
	p.idle <- replacement
	p.size++
	return nil
}

// Stats returns the current pool counters.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Size:  p.size,
		Idle:  len(p.idle),
		InUse: len(p.out),
	}
}

// Close closes every idle handle. Handles still checked out are closed as
// they are released. Close is safe to call more than once.
func (p *Pool[T]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.idle)

	var firstErr error
	for h := range p.idle {
		if err := p.closer(h); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
