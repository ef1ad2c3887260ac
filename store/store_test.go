package store

import (
	"context"
	"database/sql/driver"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTempDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func openConn(t *testing.T, db *DB) *Conn {
	t.Helper()
	c, err := db.Conn(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestOpenValidatesArguments(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	_, err := Open(ctx, "mysql", "whatever")
	require.ErrorContains(err, "unsupported driver")

	_, err = Open(ctx, DriverSQLite, "  ")
	require.ErrorContains(err, "dsn is required")
}

func TestConnRoundTrip(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	c := openConn(t, openTempDB(t))
	require.NoError(c.EnsureTable(ctx))
	require.NoError(c.EnsureTable(ctx))

	_, found, err := c.Lookup(ctx, "x")
	require.NoError(err)
	require.False(found)

	require.NoError(c.Upsert(ctx, "x", "1"))
	value, found, err := c.Lookup(ctx, "x")
	require.NoError(err)
	require.True(found)
	require.Equal("1", value)

	require.NoError(c.Upsert(ctx, "x", "2"))
	value, _, err = c.Lookup(ctx, "x")
	require.NoError(err)
	require.Equal("2", value)

	require.NoError(c.Delete(ctx, "x"))
	require.NoError(c.Delete(ctx, "x"))
	_, found, err = c.Lookup(ctx, "x")
	require.NoError(err)
	require.False(found)
}

func TestConnsShareTable(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	db := openTempDB(t)
	first := openConn(t, db)
	second := openConn(t, db)
	require.NoError(first.EnsureTable(ctx))

	require.NoError(first.Upsert(ctx, "shared", "value"))
	value, found, err := second.Lookup(ctx, "shared")
	require.NoError(err)
	require.True(found)
	require.Equal("value", value)
}

func TestEmptyKeyAndValue(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	c := openConn(t, openTempDB(t))
	require.NoError(c.EnsureTable(ctx))

	require.NoError(c.Upsert(ctx, "", ""))
	value, found, err := c.Lookup(ctx, "")
	require.NoError(err)
	require.True(found)
	require.Empty(value)
}

func TestStatementErrorWithoutTable(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	c := openConn(t, openTempDB(t))
	err := c.Upsert(ctx, "k", "v")
	require.Error(err)
	require.Contains(err.Error(), TableName)
	require.False(IsBroken(err))
}

func TestHandleFactory(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	db := openTempDB(t)
	h, err := db.Handle(ctx)
	require.NoError(err)
	require.IsType(&Conn{}, h)
	require.Equal(DriverSQLite, db.Driver())

	// Handles come with the table in place.
	_, found, err := h.Lookup(ctx, "k")
	require.NoError(err)
	require.False(found)
	require.NoError(h.Upsert(ctx, "k", "v"))
	require.NoError(h.Close())

	other, err := db.Handle(ctx)
	require.NoError(err)
	defer other.Close()
	value, found, err := other.Lookup(ctx, "k")
	require.NoError(err)
	require.True(found)
	require.Equal("v", value)
}

func TestHandleFactoryAfterClose(t *testing.T) {
	require := require.New(t)

	db := openTempDB(t)
	require.NoError(db.Close())

	_, err := db.Handle(context.Background())
	require.Error(err)
}

func TestOpenRejectsPrivateMemoryDSN(t *testing.T) {
	ctx := context.Background()

	for _, dsn := range []string{
		":memory:",
		"file::memory:",
		"file:kv?mode=memory",
		":memory:?_pragma=busy_timeout(5000)",
	} {
		t.Run(dsn, func(t *testing.T) {
			_, err := Open(ctx, DriverSQLite, dsn)
			require.ErrorIs(t, err, ErrPrivateMemoryDSN)
		})
	}

	require.False(t, privateMemoryDSN("file::memory:?cache=shared"))
	require.False(t, privateMemoryDSN("file:kv?mode=memory&cache=shared"))
	require.False(t, privateMemoryDSN("kv.db"))
}

func TestIsBroken(t *testing.T) {
	require := require.New(t)

	require.True(IsBroken(driver.ErrBadConn))
	require.True(IsBroken(fmt.Errorf("exec: %w", driver.ErrBadConn)))
	require.False(IsBroken(fmt.Errorf("constraint failed")))
	require.False(IsBroken(nil))
}
