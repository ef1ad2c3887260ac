// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type config struct {
	acquireTimeout time.Duration
	createRetries  int
	retryInterval  time.Duration

	namespace  string
	registerer prometheus.Registerer
}

func defaultConfig() *config {
	return &config{
		createRetries: 3,
		retryInterval: 100 * time.Millisecond,
	}
}

// Option configures a Pool.
type Option func(*config) error

// WithAcquireTimeout sets how long Acquire waits for a handle when none is
// idle. Zero keeps the default fail-fast behavior.
func WithAcquireTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d < 0 {
			return fmt.Errorf("%w: negative acquire timeout %s", ErrInvalidConfig, d)
		}
		c.acquireTimeout = d
		return nil
	}
}

// WithCreateRetries sets how many times a failed handle creation is retried
// at startup before New gives up.
func WithCreateRetries(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return fmt.Errorf("%w: negative create retries %d", ErrInvalidConfig, n)
		}
		c.createRetries = n
		return nil
	}
}

// WithRetryInterval sets the initial backoff between creation attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return fmt.Errorf("%w: retry interval must be positive", ErrInvalidConfig)
		}
		c.retryInterval = d
		return nil
	}
}

// WithRegisterer exports pool gauges and counters under namespace.
func WithRegisterer(namespace string, reg prometheus.Registerer) Option {
	return func(c *config) error {
		c.namespace = namespace
		c.registerer = reg
		return nil
	}
}
