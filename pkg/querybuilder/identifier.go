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
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidIdentifier is returned when a table or column name is rejected by the strict policy
var ErrInvalidIdentifier = errors.New("invalid identifier")

// IdentifierPattern is what the strict policy accepts
var IdentifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IdentifierPolicy decides how table and column names end up in SQL text
type IdentifierPolicy struct {
	dialect Dialect
	strict  bool
}

func NewIdentifierPolicy(dialect Dialect, strict bool) IdentifierPolicy {
	return IdentifierPolicy{dialect: dialect, strict: strict}
}

// Strict reports whether names are validated instead of quoted
func (p IdentifierPolicy) Strict() bool {
	return p.strict
}

// Render returns the SQL form of name.
// Strict: name must match IdentifierPattern and is returned unchanged.
// Lenient: any non-empty name is quoted by the dialect.
func (p IdentifierPolicy) Render(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}
	if p.strict {
		if !IdentifierPattern.MatchString(name) {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
		return name, nil
	}
	return p.dialect.QuoteIdentifier(name), nil
}
