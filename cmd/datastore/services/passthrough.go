package services

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/united-manufacturing-hub/datastore/cmd/datastore/database"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/models"
	"github.com/united-manufacturing-hub/datastore/internal"
	"go.uber.org/zap"
)

// rowStatements are the leading keywords of statements answered with a result set
var rowStatements = map[string]bool{
	"SELECT":  true,
	"WITH":    true,
	"PRAGMA":  true,
	"EXPLAIN": true,
	"VALUES":  true,
	"SHOW":    true,
}

// ReturnsRows reports whether statement is answered with a result set, judged by its first keyword
func ReturnsRows(statement string) bool {
	trimmed := strings.TrimLeftFunc(statement, func(r rune) bool {
		return unicode.IsSpace(r) || r == '('
	})
	end := strings.IndexFunc(trimmed, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end >= 0 {
		trimmed = trimmed[:end]
	}
	return rowStatements[strings.ToUpper(trimmed)]
}

// ExecuteSQL runs an arbitrary statement. Statements with a result set return a slice of
// column to value maps, all others a models.ExecResponse. The known namespace cache is flushed
// afterwards, the statement may have changed the catalog.
func (s *Service) ExecuteSQL(ctx context.Context, statement string) (result any, err error) {
	defer observe(OperationExecuteSQL, time.Now(), &err)
	defer s.namespaces.ForgetAll()

	zap.S().Infof("Executing passthrough statement: %s", internal.SanitizeString(statement))

	if ReturnsRows(statement) {
		return s.querySQL(ctx, statement)
	}
	return s.execSQL(ctx, statement)
}

func (s *Service) querySQL(ctx context.Context, statement string) ([]map[string]any, error) {
	rows, err := s.store.Query(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		err = rows.Scan(targets...)
		if err != nil {
			database.ErrorHandling(statement, err)
			return nil, err
		}

		entry := make(map[string]any, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				entry[column] = string(b)
			} else {
				entry[column] = values[i]
			}
		}
		result = append(result, entry)
	}
	err = rows.Err()
	if err != nil {
		database.ErrorHandling(statement, err)
		return nil, err
	}
	return result, nil
}

func (s *Service) execSQL(ctx context.Context, statement string) (models.ExecResponse, error) {
	result, err := s.store.Exec(ctx, statement)
	if err != nil {
		return models.ExecResponse{}, err
	}

	var response models.ExecResponse
	response.Changes, err = result.RowsAffected()
	if err != nil {
		return models.ExecResponse{}, err
	}
	if s.store.Dialect().ReportsLastInsertID() {
		lastID, err := result.LastInsertId()
		if err == nil {
			response.LastID = &lastID
		}
	}
	return response, nil
}
