// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store persists key-value records in a relational database.
//
// A DB hands out dedicated connections (Conn); each Conn is meant to be
// owned by one caller at a time, which is what pool.Pool enforces.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	// Register the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Register the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// ErrPrivateMemoryDSN rejects SQLite in-memory databases that are not shared
// between connections. Pooled handles would each see a different database.
var ErrPrivateMemoryDSN = errors.New("sqlite in-memory database is not shared")

// Handle is one reusable connection to the store.
type Handle interface {
	// Upsert inserts key or replaces its value.
	Upsert(ctx context.Context, key, value string) error
	// Lookup returns the value stored for key and whether a row exists.
	Lookup(ctx context.Context, key string) (string, bool, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the connection.
	Close() error
}

var _ Handle = (*Conn)(nil)

// DB is an opened database that hands out dedicated connections.
type DB struct {
	sqlDB   *sql.DB
	driver  string
	dialect dialect
}

// Open opens the database for driver and verifies it is reachable.
func Open(ctx context.Context, driverName, dsn string) (*DB, error) {
	d, err := lookupDialect(driverName)
	if err != nil {
		return nil, err
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	if driverName == DriverSQLite {
		if privateMemoryDSN(dsn) {
			return nil, fmt.Errorf("%w: %q gives every connection its own database; use a file or file::memory:?cache=shared", ErrPrivateMemoryDSN, dsn)
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?" + sqlitePragmas
		}
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driverName, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s db: %w", driverName, err)
	}
	return &DB{sqlDB: sqlDB, driver: driverName, dialect: d}, nil
}

// Driver returns the driver name the DB was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// Conn checks out a dedicated connection from the database.
func (db *DB) Conn(ctx context.Context) (*Conn, error) {
	if db == nil || db.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	c, err := db.sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &Conn{conn: c, dialect: db.dialect}, nil
}

// Handle is the pool factory. It checks out a connection and makes sure the
// record table exists on it, so handles recreated after a failure are
// usable too.
func (db *DB) Handle(ctx context.Context) (Handle, error) {
	c, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.EnsureTable(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the database. Connections still held by callers are closed
// as they are returned.
func (db *DB) Close() error {
	if db == nil || db.sqlDB == nil {
		return nil
	}
	return db.sqlDB.Close()
}

// Conn is a single dedicated database connection.
type Conn struct {
	conn    *sql.Conn
	dialect dialect
}

// EnsureTable creates the record table if it does not exist.
func (c *Conn) EnsureTable(ctx context.Context) error {
	if _, err := c.conn.ExecContext(ctx, c.dialect.createTable); err != nil {
		return fmt.Errorf("ensure table %s: %w", TableName, err)
	}
	return nil
}

// Upsert inserts key or replaces its value.
func (c *Conn) Upsert(ctx context.Context, key, value string) error {
	_, err := c.conn.ExecContext(ctx, c.dialect.upsert, key, value)
	return err
}

// Lookup returns the value stored for key and whether a row exists.
func (c *Conn) Lookup(ctx context.Context, key string) (string, bool, error) {
	var value sql.NullString
	err := c.conn.QueryRowContext(ctx, c.dialect.lookup, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value.String, true, nil
}

// Delete removes key.
func (c *Conn) Delete(ctx context.Context, key string) error {
	_, err := c.conn.ExecContext(ctx, c.dialect.delete, key)
	return err
}

// Close returns the connection to the database.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// IsBroken reports whether err means the connection itself is unusable,
// as opposed to the statement failing.
func IsBroken(err error) bool {
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone)
}

func privateMemoryDSN(dsn string) bool {
	name, query, _ := strings.Cut(dsn, "?")
	name = strings.TrimPrefix(name, "file:")
	memory := name == ":memory:" || strings.Contains(query, "mode=memory")
	return memory && !strings.Contains(query, "cache=shared")
}
