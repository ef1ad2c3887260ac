// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import "errors"

var (
	// ErrExhausted indicates no handle became available within the acquire policy.
	ErrExhausted = errors.New("pool exhausted")

	// ErrClosed indicates the pool has been closed.
	ErrClosed = errors.New("pool is closed")

	// ErrUnknownHandle indicates a release or discard of a handle that is not
	// currently checked out from the pool.
	ErrUnknownHandle = errors.New("handle is not checked out from this pool")

	// ErrInvalidConfig indicates invalid pool options.
	ErrInvalidConfig = errors.New("invalid pool configuration")
)
