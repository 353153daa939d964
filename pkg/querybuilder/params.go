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

package querybuilder

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rung/go-safecast"
)

// Reserved parameter names. They shape the result and are never filters.
const (
	ParamSort    = "sort"
	ParamOrderBy = "orderBy"
	ParamLimit   = "limit"
)

// Param is one name/value pair of the request's parameter bag
type Param struct {
	Name  string
	Value string
}

// ParseRawQuery splits a raw query string into parameters, preserving the order in which the
// names first appear. A repeated name keeps its first position and takes its last value.
func ParseRawQuery(rawQuery string) ([]Param, error) {
	params := make([]Param, 0)
	position := make(map[string]int)

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawName, rawValue, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(rawName)
		if err != nil {
			return nil, fmt.Errorf("invalid query parameter name %q: %w", rawName, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("invalid value for query parameter %q: %w", name, err)
		}
		if name == "" {
			continue
		}

		if i, ok := position[name]; ok {
			params[i].Value = value
			continue
		}
		position[name] = len(params)
		params = append(params, Param{Name: name, Value: value})
	}
	return params, nil
}

// ParseParams partitions the parameter bag into equality filters and directives
func ParseParams(params []Param) ListRequest {
	request := ListRequest{
		Filters: make([]Filter, 0, len(params)),
		Sort:    Ascending,
	}

	for _, param := range params {
		switch param.Name {
		case ParamSort:
			switch strings.ToLower(param.Value) {
			case "asc":
				request.Sort = Ascending
			case "desc":
				request.Sort = Descending
			}
		case ParamOrderBy:
			request.OrderBy = param.Value
		case ParamLimit:
			request.Limit = ParsePositiveInt(param.Value)
		default:
			request.Filters = append(request.Filters, Filter{Column: param.Name, Value: param.Value})
		}
	}
	return request
}

// ParsePositiveInt reads the leading decimal integer of s, ignoring surrounding whitespace
// and any trailing characters ("25rows" is 25). It returns 0 when s does not start with a
// number, when the number is not positive or when it does not fit into 32 bits.
func ParsePositiveInt(s string) int {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}

	n, err := safecast.Atoi32(s[:end])
	if err != nil || n <= 0 {
		return 0
	}
	return int(n)
}
