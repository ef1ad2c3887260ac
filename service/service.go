// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package service implements create, read and remove over a cache and a
// pool of store handles.
//
// The store is the source of truth. Successful writes are mirrored into the
// cache, reads that miss the cache populate it from the store, and
// successful deletes invalidate the cached entry. Failed lookups are never
// cached, so every miss goes back to the store.
//
// Create, Remove and the miss path of Read hold a per-key lock across the
// store statement and the cache update. Two operations on the same key
// therefore apply to the store and the cache in the same order, and a
// read-populate cannot resurrect a value a concurrent remove has deleted.
// Cache hits do not take the key lock.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/luxfi/kvcache"
	"github.com/luxfi/kvcache/keylock"
	"github.com/luxfi/kvcache/store"
)

const tracerName = "github.com/luxfi/kvcache/service"

// Pool hands out store handles for exclusive use.
type Pool interface {
	Acquire(ctx context.Context) (store.Handle, error)
	Release(h store.Handle) error
	Discard(ctx context.Context, h store.Handle) error
}

// Service is safe for concurrent use.
type Service struct {
	cache   kvcache.Cacher[string, string]
	pool    Pool
	locks   *keylock.Locker
	tracer  trace.Tracer
	metrics *serviceMetrics
}

type options struct {
	locks      *keylock.Locker
	namespace  string
	registerer prometheus.Registerer
}

// Option configures a Service.
type Option func(*options)

// WithKeyLocker sets the per-key locker. By default a locker with
// keylock.DefaultStripes stripes is used.
func WithKeyLocker(l *keylock.Locker) Option {
	return func(o *options) {
		o.locks = l
	}
}

// WithRegisterer exports operation counters under namespace.
func WithRegisterer(namespace string, reg prometheus.Registerer) Option {
	return func(o *options) {
		o.namespace = namespace
		o.registerer = reg
	}
}

// New creates a Service over cache and pool. Both are owned by the caller.
func New(cache kvcache.Cacher[string, string], pool Pool, opts ...Option) (*Service, error) {
	if cache == nil {
		return nil, errors.New("cache is required")
	}
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.locks == nil {
		o.locks = keylock.New(keylock.DefaultStripes)
	}
	metrics, err := newMetrics(o.namespace, o.registerer)
	if err != nil {
		return nil, fmt.Errorf("register service metrics: %w", err)
	}
	return &Service{
		cache:   cache,
		pool:    pool,
		locks:   o.locks,
		tracer:  otel.Tracer(tracerName),
		metrics: metrics,
	}, nil
}

// Create stores value under key, replacing any previous value, and writes
// it through to the cache. On failure the cache is left untouched.
func (s *Service) Create(ctx context.Context, key, value string) (err error) {
	ctx, span := s.start(ctx, "kv.create", key)
	defer func() { s.finish(span, opCreate, false, err) }()

	unlock := s.locks.Lock(key)
	defer unlock()

	err = s.withHandle(ctx, func(h store.Handle) error {
		if err := h.Upsert(ctx, key, value); err != nil {
			return &PersistenceError{Op: "upsert", Err: err}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Put(key, value)
	return nil
}

// Read returns the value for key, from the cache when present and from the
// store otherwise. A value read from the store is added to the cache.
func (s *Service) Read(ctx context.Context, key string) (value string, err error) {
	ctx, span := s.start(ctx, "kv.read", key)
	hit := false
	defer func() { s.finish(span, opRead, hit, err) }()

	if v, ok := s.cache.Get(key); ok {
		hit = true
		span.SetAttributes(attribute.Bool("kv.cache_hit", true))
		return v, nil
	}
	span.SetAttributes(attribute.Bool("kv.cache_hit", false))

	unlock := s.locks.Lock(key)
	defer unlock()

	var found bool
	err = s.withHandle(ctx, func(h store.Handle) error {
		var lookupErr error
		value, found, lookupErr = h.Lookup(ctx, key)
		if lookupErr != nil {
			return &PersistenceError{Op: "lookup", Err: lookupErr}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}
	s.cache.Put(key, value)
	return value, nil
}

// Remove deletes key from the store and then from the cache. Removing a
// missing key succeeds. On failure the cache is left untouched.
func (s *Service) Remove(ctx context.Context, key string) (err error) {
	ctx, span := s.start(ctx, "kv.remove", key)
	defer func() { s.finish(span, opRemove, false, err) }()

	unlock := s.locks.Lock(key)
	defer unlock()

	err = s.withHandle(ctx, func(h store.Handle) error {
		if err := h.Delete(ctx, key); err != nil {
			return &PersistenceError{Op: "delete", Err: err}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Evict(key)
	return nil
}

// withHandle runs fn on an acquired handle and always gives the handle
// back, discarding it instead when fn reports a broken connection.
func (s *Service) withHandle(ctx context.Context, fn func(store.Handle) error) error {
	h, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	err = fn(h)
	if store.IsBroken(err) {
		if derr := s.pool.Discard(context.WithoutCancel(ctx), h); derr != nil {
			log.Printf("discard broken store handle: %v", derr)
		}
		return err
	}
	if rerr := s.pool.Release(h); rerr != nil {
		log.Printf("release store handle: %v", rerr)
	}
	return err
}

func (s *Service) start(ctx context.Context, name, key string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("kv.key", key)))
}

func (s *Service) finish(span trace.Span, op string, hit bool, err error) {
	defer span.End()
	s.metrics.observe(op, hit, err)
	if err == nil || errors.Is(err, ErrNotFound) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
