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
	"fmt"
	"time"

	"github.com/united-manufacturing-hub/datastore/cmd/datastore/models"
	"github.com/united-manufacturing-hub/datastore/internal"
	"go.uber.org/zap"
)

// Upsert inserts the row or replaces the value of the row with the same key. The id of an
// existing row is kept.
func (s *Service) Upsert(ctx context.Context, namespace string, key string, value string) (row models.Row, err error) {
	defer observe(OperationUpsert, time.Now(), &err)

	err = s.namespaces.Ensure(ctx, namespace)
	if err != nil {
		return models.Row{}, err
	}
	table, err := s.table(namespace)
	if err != nil {
		return models.Row{}, err
	}

	sqlStatement := fmt.Sprintf(
		"INSERT INTO %s (key, value) VALUES (%s, %s) ON CONFLICT (key) DO UPDATE SET value = excluded.value RETURNING id",
		table, s.builder.Placeholder(1), s.builder.Placeholder(2))

	var id int64
	err = s.store.QueryRowScan(ctx, sqlStatement, []any{key, value}, &id)
	if err != nil {
		return models.Row{}, err
	}
	return models.Row{ID: id, Key: key, Value: value}, nil
}

// Update replaces the value of an existing key and returns the number of rows changed.
// An absent key changes nothing and is not an error.
func (s *Service) Update(ctx context.Context, namespace string, key string, value string) (updated int64, err error) {
	defer observe(OperationUpdate, time.Now(), &err)

	err = s.namespaces.Ensure(ctx, namespace)
	if err != nil {
		return 0, err
	}
	table, err := s.table(namespace)
	if err != nil {
		return 0, err
	}

	sqlStatement := fmt.Sprintf(
		"UPDATE %s SET value = %s WHERE key = %s",
		table, s.builder.Placeholder(1), s.builder.Placeholder(2))
	result, err := s.store.Exec(ctx, sqlStatement, value, key)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteByKey removes the row with key and returns the number of rows removed
func (s *Service) DeleteByKey(ctx context.Context, namespace string, key string) (deleted int64, err error) {
	defer observe(OperationDeleteByKey, time.Now(), &err)

	err = s.namespaces.Ensure(ctx, namespace)
	if err != nil {
		return 0, err
	}
	table, err := s.table(namespace)
	if err != nil {
		return 0, err
	}

	sqlStatement := "DELETE FROM " + table + " WHERE key = " + s.builder.Placeholder(1)
	result, err := s.store.Exec(ctx, sqlStatement, key)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DropNamespace drops the namespace with all its rows. Dropping an absent namespace succeeds.
func (s *Service) DropNamespace(ctx context.Context, namespace string) (err error) {
	defer observe(OperationDrop, time.Now(), &err)

	err = s.namespaces.Drop(ctx, namespace)
	if err != nil {
		return err
	}
	zap.S().Infof("Dropped namespace %s", internal.SanitizeString(namespace))
	return nil
}
