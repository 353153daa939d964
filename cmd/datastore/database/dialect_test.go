package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	dialect, err := DialectFor(DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, "?", dialect.Placeholder(3))
	assert.True(t, dialect.ReportsLastInsertID())

	for _, name := range []string{DriverPostgres, DriverPgx} {
		dialect, err = DialectFor(name)
		require.NoError(t, err)
		assert.Equal(t, "$3", dialect.Placeholder(3))
		assert.False(t, dialect.ReportsLastInsertID())
	}

	_, err = DialectFor("mysql")
	assert.Error(t, err)
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, "`my-table`", SQLiteDialect{}.QuoteIdentifier("my-table"))
	assert.Equal(t, "`a``b`", SQLiteDialect{}.QuoteIdentifier("a`b"))
	assert.Equal(t, `"my-table"`, PostgresDialect{}.QuoteIdentifier("my-table"))
	assert.Equal(t, `"a""b"`, PostgresDialect{}.QuoteIdentifier(`a"b`))
}

func TestIsCreateRace(t *testing.T) {
	pg := PostgresDialect{}
	assert.True(t, pg.IsCreateRace(&pq.Error{Code: "23505"}))
	assert.True(t, pg.IsCreateRace(fmt.Errorf("wrapped: %w", &pq.Error{Code: "42P07"})))
	assert.True(t, pg.IsCreateRace(&pgconn.PgError{Code: "23505"}))
	assert.True(t, pg.IsCreateRace(&pgconn.PgError{Code: "42P07"}))
	assert.False(t, pg.IsCreateRace(&pgconn.PgError{Code: "42601"}))
	assert.False(t, pg.IsCreateRace(errors.New("boom")))
	assert.False(t, pg.IsCreateRace(nil))

	assert.False(t, SQLiteDialect{}.IsCreateRace(&pq.Error{Code: "23505"}))
}

func TestIsConnectionException(t *testing.T) {
	assert.False(t, IsConnectionException(nil))
	assert.False(t, IsConnectionException(errors.New("no such table: x")))
	assert.False(t, IsConnectionException(context.Canceled))
	assert.True(t, IsConnectionException(&pq.Error{Code: "08000"}))
	assert.True(t, IsConnectionException(&pq.Error{Code: "08006"}))
	assert.True(t, IsConnectionException(&pgconn.PgError{Code: "08001"}))
	assert.False(t, IsConnectionException(&pgconn.PgError{Code: "42P01"}))
	assert.True(t, IsConnectionException(fmt.Errorf("exec: %w", driver.ErrBadConn)))
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/x.db?_busy_timeout=5000&_journal_mode=WAL", SQLiteDSN("/tmp/x.db"))
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=d sslmode=disable",
		PostgresDSN("db", 5432, "u", "p", "d", "disable"))
}
