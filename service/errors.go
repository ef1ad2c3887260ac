// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import "errors"

var (
	// ErrConnectionFailed indicates no store handle could be acquired.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotFound indicates the key exists in neither the cache nor the store.
	ErrNotFound = errors.New("key not found")
)

// PersistenceError is a statement failure reported by the store. Its
// message is the store's own text, unmodified.
type PersistenceError struct {
	Op  string // "upsert", "lookup", "delete"
	Err error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error
func (e *PersistenceError) Unwrap() error {
	return e.Err
}
