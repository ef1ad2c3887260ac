// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import "fmt"

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// TableName is the single table holding records.
const TableName = "kv_store"

// dialect holds the statements for one SQL driver.
type dialect struct {
	createTable string
	upsert      string
	lookup      string
	delete      string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		createTable: `CREATE TABLE IF NOT EXISTS kv_store ("key" VARCHAR(255) PRIMARY KEY, value TEXT)`,
		upsert:      `INSERT INTO kv_store ("key", value) VALUES (?, ?) ON CONFLICT ("key") DO UPDATE SET value = excluded.value`,
		lookup:      `SELECT value FROM kv_store WHERE "key" = ?`,
		delete:      `DELETE FROM kv_store WHERE "key" = ?`,
	},
	DriverPostgres: {
		createTable: `CREATE TABLE IF NOT EXISTS kv_store ("key" VARCHAR(255) PRIMARY KEY, value TEXT)`,
		upsert:      `INSERT INTO kv_store ("key", value) VALUES ($1, $2) ON CONFLICT ("key") DO UPDATE SET value = EXCLUDED.value`,
		lookup:      `SELECT value FROM kv_store WHERE "key" = $1`,
		delete:      `DELETE FROM kv_store WHERE "key" = $1`,
	},
}

func lookupDialect(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
	return d, nil
}
