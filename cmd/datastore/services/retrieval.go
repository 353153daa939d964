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

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/united-manufacturing-hub/datastore/cmd/datastore/database"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/models"
	"github.com/united-manufacturing-hub/datastore/pkg/querybuilder"
)

// ListTables returns all namespaces ordered by name
func (s *Service) ListTables(ctx context.Context) (namespaces []string, err error) {
	return s.namespaces.List(ctx)
}

// ListAll returns the rows matching the request's filters, sorted and bounded by its directives
func (s *Service) ListAll(ctx context.Context, namespace string, request querybuilder.ListRequest) (rows []models.Row, err error) {
	defer observe(OperationListAll, time.Now(), &err)

	err = s.namespaces.Ensure(ctx, namespace)
	if err != nil {
		return nil, err
	}

	query, _, err := s.builder.Select(namespace, request)
	if err != nil {
		return nil, err
	}
	return s.queryRows(ctx, query)
}

// ListKeys returns every key of the namespace in table order
func (s *Service) ListKeys(ctx context.Context, namespace string) (keys []string, err error) {
	defer observe(OperationListKeys, time.Now(), &err)

	err = s.namespaces.Ensure(ctx, namespace)
	if err != nil {
		return nil, err
	}
	table, err := s.table(namespace)
	if err != nil {
		return nil, err
	}

	sqlStatement := "SELECT key FROM " + table
	rows, err := s.store.Query(ctx, sqlStatement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys = make([]string, 0)
	for rows.Next() {
		var key sql.NullString
		err = rows.Scan(&key)
		if err != nil {
			database.ErrorHandling(sqlStatement, err)
			return nil, err
		}
		keys = append(keys, key.String)
	}
	err = rows.Err()
	if err != nil {
		database.ErrorHandling(sqlStatement, err)
		return nil, err
	}
	return keys, nil
}

// GetByKey looks up a single value. A missing key is reported with found == false and a nil error.
func (s *Service) GetByKey(ctx context.Context, namespace string, key string) (value string, found bool, err error) {
	defer observe(OperationGetByKey, time.Now(), &err)

	err = s.namespaces.Ensure(ctx, namespace)
	if err != nil {
		return "", false, err
	}
	table, err := s.table(namespace)
	if err != nil {
		return "", false, err
	}

	sqlStatement := "SELECT value FROM " + table + " WHERE key = " + s.builder.Placeholder(1)
	var nullValue sql.NullString
	err = s.store.QueryRowScan(ctx, sqlStatement, []any{key}, &nullValue)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return nullValue.String, true, nil
}

// Count returns the number of rows matching the request's filters. It does not create the
// namespace: counting a namespace that was never referenced is a storage fault.
func (s *Service) Count(ctx context.Context, namespace string, request querybuilder.ListRequest) (count int64, err error) {
	defer observe(OperationCount, time.Now(), &err)

	query, err := s.builder.Count(namespace, request)
	if err != nil {
		return 0, err
	}
	return s.count(ctx, query)
}

// ListPaginated returns one page of the filtered listing. totalRecords counts the whole
// namespace, not the filtered subset, and totalPages always divides by the default page size.
func (s *Service) ListPaginated(ctx context.Context, namespace string, request querybuilder.ListRequest, page int, pageSize int) (response models.PageResponse, err error) {
	defer observe(OperationListPaginated, time.Now(), &err)

	err = s.namespaces.Ensure(ctx, namespace)
	if err != nil {
		return models.PageResponse{}, err
	}

	query, _, err := s.builder.SelectPage(namespace, request, page, pageSize)
	if err != nil {
		return models.PageResponse{}, err
	}
	data, err := s.queryRows(ctx, query)
	if err != nil {
		return models.PageResponse{}, err
	}

	totalQuery, err := s.builder.Count(namespace, querybuilder.ListRequest{})
	if err != nil {
		return models.PageResponse{}, err
	}
	total, err := s.count(ctx, totalQuery)
	if err != nil {
		return models.PageResponse{}, err
	}

	return models.PageResponse{
		Data:         data,
		TotalRecords: total,
		TotalPages:   TotalPages(total),
	}, nil
}

// TotalPages is ceil(total / DefaultPageSize)
func TotalPages(total int64) int64 {
	return (total + querybuilder.DefaultPageSize - 1) / querybuilder.DefaultPageSize
}

func (s *Service) queryRows(ctx context.Context, query querybuilder.Query) ([]models.Row, error) {
	rows, err := s.store.Query(ctx, query.SQL, query.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		database.ErrorHandling(query.SQL, err)
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return result, nil
}

func (s *Service) count(ctx context.Context, query querybuilder.Query) (int64, error) {
	var count int64
	err := s.store.QueryRowScan(ctx, query.SQL, query.Args, &count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
