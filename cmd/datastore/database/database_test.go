package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/helpers"
)

func TestQueryRowScanRecordsOutcome(t *testing.T) {
	helpers.InitTestLogging()
	store, mock := newMockStore(t)
	ctx := context.Background()
	okBefore := testutil.ToFloat64(statementsTotal.WithLabelValues("query_row", "ok"))
	errorBefore := testutil.ToFloat64(statementsTotal.WithLabelValues("query_row", "error"))

	mock.ExpectQuery("SELECT value FROM t WHERE key = $1").
		WithArgs("a").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("1"))
	var value string
	require.NoError(t, store.QueryRowScan(ctx, "SELECT value FROM t WHERE key = $1", []any{"a"}, &value))
	assert.Equal(t, "1", value)

	mock.ExpectQuery("SELECT value FROM t WHERE key = $1").
		WithArgs("b").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	err := store.QueryRowScan(ctx, "SELECT value FROM t WHERE key = $1", []any{"b"}, &value)
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	mock.ExpectQuery("SELECT COUNT(*) FROM t").
		WillReturnError(errors.New("relation \"t\" does not exist"))
	var count int64
	err = store.QueryRowScan(ctx, "SELECT COUNT(*) FROM t", nil, &count)
	assert.Error(t, err)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(statementsTotal.WithLabelValues("query_row", "ok")))
	assert.Equal(t, errorBefore+1, testutil.ToFloat64(statementsTotal.WithLabelValues("query_row", "error")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
