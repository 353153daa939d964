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

// Package querybuilder turns a listing request (equality filters plus sort, orderBy and limit
// directives) into parameterized SELECT and COUNT statements against a namespace table.
package querybuilder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rung/go-safecast"
)

const (
	// DefaultOrderBy is the column used when no orderBy directive is given
	DefaultOrderBy = "id"
	// DefaultLimit bounds unpaginated listings
	DefaultLimit = 1000
	// DefaultPageSize is the page size of paginated listings
	DefaultPageSize = 10
)

// ErrInvalidPage is returned when a page number or page size does not fit a 32-bit integer
var ErrInvalidPage = errors.New("invalid page")

// SortOrder is the direction of the ORDER BY clause
type SortOrder string

const (
	Ascending  SortOrder = "ASC"
	Descending SortOrder = "DESC"
)

// Filter constrains Column to be exactly Value
type Filter struct {
	Column string
	Value  string
}

// ListRequest is the typed form of a listing request.
// Filters keep the order in which the caller supplied them.
type ListRequest struct {
	Filters []Filter
	OrderBy string
	Sort    SortOrder
	// Limit is 0 when the caller did not supply a usable limit
	Limit int
}

// Query is a statement together with its bound arguments, in placeholder order
type Query struct {
	SQL  string
	Args []any
}

// Dialect renders the engine specific parts of a statement
type Dialect interface {
	// Placeholder returns the bind marker for the n-th argument (1-based)
	Placeholder(n int) string
	// QuoteIdentifier quotes a table or column name
	QuoteIdentifier(name string) string
}

// Builder assembles queries for a single dialect and identifier policy. It holds no mutable
// state and is safe for concurrent use.
type Builder struct {
	dialect     Dialect
	identifiers IdentifierPolicy
}

// New returns a Builder for the given dialect.
// With strictIdentifiers the names must match IdentifierPattern and are emitted bare,
// otherwise every name is quoted by the dialect.
func New(dialect Dialect, strictIdentifiers bool) *Builder {
	return &Builder{
		dialect:     dialect,
		identifiers: NewIdentifierPolicy(dialect, strictIdentifiers),
	}
}

// Identifiers returns the identifier policy used by the builder
func (b *Builder) Identifiers() IdentifierPolicy {
	return b.identifiers
}

// Placeholder exposes the dialect bind marker for statements built outside the builder
func (b *Builder) Placeholder(n int) string {
	return b.dialect.Placeholder(n)
}

// Select builds the unpaginated listing and its matching count query.
// The limit falls back to DefaultLimit.
func (b *Builder) Select(namespace string, request ListRequest) (list Query, count Query, err error) {
	limit := request.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return b.build(namespace, request, fmt.Sprintf(" LIMIT %d", limit))
}

// SelectPage builds the listing of the given 1-indexed page and its matching count query.
// A positive request limit overrides pageSize; a non-positive pageSize falls back to
// DefaultPageSize. page <= 0 yields a zero or negative offset.
// page and pageSize are bounded to 32 bits, so the offset is computed without overflow.
func (b *Builder) SelectPage(namespace string, request ListRequest, page int, pageSize int) (list Query, count Query, err error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if request.Limit > 0 {
		pageSize = request.Limit
	}
	page32, err := safecast.Int32(page)
	if err != nil {
		return Query{}, Query{}, fmt.Errorf("%w: page %d out of range", ErrInvalidPage, page)
	}
	size32, err := safecast.Int32(pageSize)
	if err != nil {
		return Query{}, Query{}, fmt.Errorf("%w: page size %d out of range", ErrInvalidPage, pageSize)
	}
	offset := (int64(page32) - 1) * int64(size32)
	return b.build(namespace, request, fmt.Sprintf(" LIMIT %d OFFSET %d", size32, offset))
}

// Count builds the count query over the request's equality filters.
// Directives never take part in it.
func (b *Builder) Count(namespace string, request ListRequest) (Query, error) {
	table, err := b.identifiers.Render(namespace)
	if err != nil {
		return Query{}, err
	}
	where, args, err := b.where(request.Filters)
	if err != nil {
		return Query{}, err
	}
	return Query{SQL: "SELECT COUNT(*) FROM " + table + where, Args: args}, nil
}

func (b *Builder) build(namespace string, request ListRequest, tail string) (list Query, count Query, err error) {
	table, err := b.identifiers.Render(namespace)
	if err != nil {
		return Query{}, Query{}, err
	}
	where, args, err := b.where(request.Filters)
	if err != nil {
		return Query{}, Query{}, err
	}

	orderBy := request.OrderBy
	if orderBy == "" {
		orderBy = DefaultOrderBy
	}
	orderColumn, err := b.identifiers.Render(orderBy)
	if err != nil {
		return Query{}, Query{}, err
	}
	sortOrder := request.Sort
	if sortOrder != Descending {
		sortOrder = Ascending
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(table)
	sb.WriteString(where)
	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderColumn)
	sb.WriteRune(' ')
	sb.WriteString(string(sortOrder))
	sb.WriteString(tail)

	// The count shares the argument slice contents but not the backing array
	countArgs := make([]any, len(args))
	copy(countArgs, args)

	list = Query{SQL: sb.String(), Args: args}
	count = Query{SQL: "SELECT COUNT(*) FROM " + table + where, Args: countArgs}
	return list, count, nil
}

// where renders the conjunction of equality filters. Terms and arguments are emitted in
// the same order.
func (b *Builder) where(filters []Filter) (string, []any, error) {
	args := make([]any, 0, len(filters))
	if len(filters) == 0 {
		return "", args, nil
	}

	terms := make([]string, 0, len(filters))
	for i, filter := range filters {
		column, err := b.identifiers.Render(filter.Column)
		if err != nil {
			return "", nil, err
		}
		terms = append(terms, column+" = "+b.dialect.Placeholder(i+1))
		args = append(args, filter.Value)
	}
	return " WHERE " + strings.Join(terms, " AND "), args, nil
}
