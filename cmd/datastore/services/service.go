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

// Package services implements the retrieval and mutation operations on namespaces.
// Every operation except Count ensures its namespace before touching it.
package services

import (
	"database/sql"
	"strings"

	"github.com/united-manufacturing-hub/datastore/cmd/datastore/database"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/models"
	"github.com/united-manufacturing-hub/datastore/pkg/querybuilder"
)

type Service struct {
	store      *database.Store
	namespaces *database.NamespaceManager
	builder    *querybuilder.Builder
}

func NewService(store *database.Store, namespaces *database.NamespaceManager, builder *querybuilder.Builder) *Service {
	return &Service{
		store:      store,
		namespaces: namespaces,
		builder:    builder,
	}
}

// table renders the namespace name for direct interpolation
func (s *Service) table(namespace string) (string, error) {
	return s.builder.Identifiers().Render(namespace)
}

// scanRows reads rows of a SELECT * by column name. Columns other than id, key and value
// are skipped, NULL key or value read as empty strings.
func scanRows(rows *sql.Rows) ([]models.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]models.Row, 0)
	for rows.Next() {
		var row models.Row
		var key, value sql.NullString

		targets := make([]any, len(columns))
		for i, column := range columns {
			switch strings.ToLower(column) {
			case "id":
				targets[i] = &row.ID
			case "key":
				targets[i] = &key
			case "value":
				targets[i] = &value
			default:
				targets[i] = new(any)
			}
		}

		err = rows.Scan(targets...)
		if err != nil {
			return nil, err
		}
		row.Key = key.String
		row.Value = value.String
		result = append(result, row)
	}
	return result, rows.Err()
}
