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
	"context"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/omeid/pgerror"
	"go.uber.org/zap"
)

// asPQ unwraps a lib/pq error. pgerror only type-asserts, so wrapped errors must be unwrapped
// before they are classified.
func asPQ(err error) *pq.Error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr
	}
	return nil
}

func asPgconn(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

func IsUniqueViolation(err error) bool {
	if pqErr := asPQ(err); pqErr != nil {
		return pgerror.UniqueViolation(pqErr) != nil
	}
	if pgErr := asPgconn(err); pgErr != nil {
		return pgErr.Code == "23505"
	}
	return false
}

func IsDuplicateTable(err error) bool {
	if pqErr := asPQ(err); pqErr != nil {
		return pgerror.DuplicateTable(pqErr) != nil
	}
	if pgErr := asPgconn(err); pgErr != nil {
		return pgErr.Code == "42P07"
	}
	return false
}

// IsConnectionException reports whether err means the store itself is unreachable,
// as opposed to a problem with the statement
func IsConnectionException(err error) bool {
	if err == nil {
		return false
	}
	if pqErr := asPQ(err); pqErr != nil {
		return pgerror.ConnectionException(pqErr) != nil || strings.HasPrefix(string(pqErr.Code), "08")
	}
	if pgErr := asPgconn(err); pgErr != nil {
		return strings.HasPrefix(pgErr.Code, "08")
	}
	return pgconn.SafeToRetry(err) || errors.Is(err, driver.ErrBadConn)
}

// ErrorHandling logs a failed statement. Cancelled requests are logged at debug level only.
func ErrorHandling(sqlStatement string, err error) {
	if errors.Is(err, context.Canceled) {
		zap.S().Debugw(
			"Statement cancelled by caller",
			"sqlStatement", sqlStatement,
		)
		return
	}
	if IsConnectionException(err) {
		zap.S().Errorw(
			"Database failed: ConnectionException",
			"error", err,
			"sqlStatement", sqlStatement,
		)
		return
	}
	zap.S().Warnw(
		"Database failed.",
		"error", err,
		"sqlStatement", sqlStatement,
	)
}
