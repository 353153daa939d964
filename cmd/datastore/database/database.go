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

// Package database is the row store of the datastore: a shared database/sql handle plus the
// dialect specific statements for namespace tables.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/heptiolabs/healthcheck"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/lib/pq"               // registers the "postgres" driver
	_ "github.com/mattn/go-sqlite3"     // registers the "sqlite3" driver
	"github.com/united-manufacturing-hub/datastore/internal"
	"go.uber.org/zap"
)

// Store wraps the single *sql.DB shared by all requests
type Store struct {
	db        *sql.DB
	dialect   Dialect
	available atomic.Bool
}

// Open creates the handle for driverName. It does not contact the database, see Connect.
func Open(driverName string, dsn string, maxOpenConns int) (*Store, error) {
	dialect, err := DialectFor(driverName)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driverName, err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(10 * time.Minute)
	return NewStore(db, dialect), nil
}

// SQLiteDSN returns the connection string for a SQLite file. Writers wait for the lock
// instead of failing with SQLITE_BUSY.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
}

// PostgresDSN returns a lib/pq style key/value connection string, understood by both
// postgres drivers
func PostgresDSN(host string, port int, user string, password string, dbName string, sslMode string) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbName, sslMode)
}

// NewStore wraps an existing handle
func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Connect pings the database until it answers, backing off exponentially between attempts
func (s *Store) Connect(ctx context.Context) error {
	err := internal.Retry(ctx, internal.ConnectAttempts, 100*time.Millisecond, internal.TenSeconds, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, internal.FiveSeconds)
		defer cancel()
		err := s.db.PingContext(pingCtx)
		if err != nil {
			zap.S().Warnf("Failed to ping %s database: %s", s.dialect.Name(), err)
		}
		return err
	})
	s.setAvailable(err == nil)
	if err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}
	zap.S().Infof("Connected to %s database", s.dialect.Name())
	return nil
}

// Exec runs a statement that returns no rows
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	s.record("exec", query, err)
	return result, err
}

// Query runs a statement that returns rows. The caller closes the rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	s.record("query", query, err)
	return rows, err
}

// QueryRowScan runs a statement expected to return at most one row and scans it into dest.
// An empty result is returned as sql.ErrNoRows but not recorded as a failure.
func (s *Store) QueryRowScan(ctx context.Context, query string, args []any, dest ...any) error {
	err := s.db.QueryRowContext(ctx, query, args...).Scan(dest...)
	failure := err
	if errors.Is(err, sql.ErrNoRows) {
		failure = nil
	}
	s.record("query_row", query, failure)
	return err
}

func (s *Store) record(kind string, query string, err error) {
	statementsTotal.WithLabelValues(kind, outcome(err)).Inc()
	if err == nil {
		return
	}
	ErrorHandling(query, err)
	if IsConnectionException(err) {
		s.setAvailable(false)
	}
}

func (s *Store) setAvailable(available bool) {
	s.available.Store(available)
	if available {
		storeUp.Set(1)
	} else {
		storeUp.Set(0)
	}
}

// IsAvailable pings the database and remembers the result
func (s *Store) IsAvailable() bool {
	if s.db == nil {
		return false
	}
	ctx, cncl := context.WithTimeout(context.Background(), internal.FiveSeconds)
	defer cncl()
	err := s.db.PingContext(ctx)
	if err != nil {
		zap.S().Debugf("Failed to ping database: %s", err)
	}
	s.setAvailable(err == nil)
	return err == nil
}

// GetHealthCheck reports the store as unhealthy while it does not answer pings
func (s *Store) GetHealthCheck() healthcheck.Check {
	return func() error {
		if s.IsAvailable() {
			return nil
		}
		return errors.New("healthcheck failed to reach database")
	}
}

// Close closes all database connections
func (s *Store) Close() error {
	s.setAvailable(false)
	return s.db.Close()
}
