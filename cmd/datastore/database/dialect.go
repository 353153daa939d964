// Copyright 2023 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/united-manufacturing-hub/datastore/pkg/querybuilder"
)

// Supported database/sql driver names
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

// Dialect carries the engine specific statements of the row store.
// Table names passed in are already rendered by the identifier policy.
type Dialect interface {
	querybuilder.Dialect

	Name() string
	// CreateTable returns the idempotent DDL for a namespace table
	CreateTable(table string) string
	DropTable(table string) string
	// ListTables returns a query with a single text column, ordered by name,
	// excluding engine internal tables
	ListTables() string
	// IsCreateRace reports whether err was raised because a concurrent session created the
	// same table between our existence check and our insert into the catalog
	IsCreateRace(err error) bool
	// ReportsLastInsertID is false for engines whose driver cannot return sql.Result.LastInsertId
	ReportsLastInsertID() bool
	// FoldsQuotedIdentifiers is true for engines that match even quoted table names
	// without regard to ASCII case
	FoldsQuotedIdentifiers() bool
}

// DialectFor returns the dialect matching a driver name
func DialectFor(driverName string) (Dialect, error) {
	switch driverName {
	case DriverSQLite:
		return SQLiteDialect{}, nil
	case DriverPostgres, DriverPgx:
		return PostgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q (expected %s, %s or %s)", driverName, DriverSQLite, DriverPostgres, DriverPgx)
	}
}

// SQLiteDialect targets mattn/go-sqlite3
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string { return DriverSQLite }

func (SQLiteDialect) Placeholder(int) string { return "?" }

// QuoteIdentifier uses backticks: SQLite never reinterprets them as string literals,
// unlike unresolvable double quoted names.
func (SQLiteDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (SQLiteDialect) CreateTable(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
      id INTEGER PRIMARY KEY AUTOINCREMENT,
      key TEXT UNIQUE,
      value LONGTEXT
    )`
}

func (SQLiteDialect) DropTable(table string) string {
	return "DROP TABLE IF EXISTS " + table
}

func (SQLiteDialect) ListTables() string {
	return `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
}

func (SQLiteDialect) IsCreateRace(error) bool { return false }

func (SQLiteDialect) ReportsLastInsertID() bool { return true }

func (SQLiteDialect) FoldsQuotedIdentifiers() bool { return true }

// PostgresDialect targets lib/pq and pgx/v5/stdlib
type PostgresDialect struct{}

func (PostgresDialect) Name() string { return DriverPostgres }

func (PostgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (PostgresDialect) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func (PostgresDialect) CreateTable(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
      id BIGSERIAL PRIMARY KEY,
      key TEXT UNIQUE,
      value TEXT
    )`
}

func (PostgresDialect) DropTable(table string) string {
	return "DROP TABLE IF EXISTS " + table
}

func (PostgresDialect) ListTables() string {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name`
}

// IsCreateRace: two sessions running CREATE TABLE IF NOT EXISTS for the same name can both
// pass the existence check; the loser fails on the pg_type unique index or with
// duplicate_table.
func (PostgresDialect) IsCreateRace(err error) bool {
	return IsUniqueViolation(err) || IsDuplicateTable(err)
}

func (PostgresDialect) ReportsLastInsertID() bool { return false }

// FoldsQuotedIdentifiers: quoted names are exact, only unquoted names fold to lower case
func (PostgresDialect) FoldsQuotedIdentifiers() bool { return false }
