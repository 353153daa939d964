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
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/EagleChen/mapmutex"
	"github.com/united-manufacturing-hub/datastore/internal"
	"github.com/united-manufacturing-hub/datastore/pkg/querybuilder"
	"go.uber.org/zap"
)

// NamespaceManager creates namespace tables on first use and lists them
type NamespaceManager struct {
	store       *Store
	identifiers querybuilder.IdentifierPolicy
	known       *internal.MemCache
	mutex       *mapmutex.Mutex

	// catalog guards generation. generation is bumped whenever cached namespaces may have
	// been dropped; Ensure only caches a namespace if no bump happened while its DDL ran.
	catalog    sync.RWMutex
	generation uint64

	// afterCreate runs between the DDL of Ensure and the cache update, if set
	afterCreate func()
}

// NewNamespaceManager returns a manager that remembers ensured namespaces for cacheTTL.
// A zero cacheTTL sends the DDL on every Ensure.
func NewNamespaceManager(store *Store, identifiers querybuilder.IdentifierPolicy, cacheTTL time.Duration) *NamespaceManager {
	return &NamespaceManager{
		store:       store,
		identifiers: identifiers,
		known:       internal.NewMemCache(cacheTTL),
		// default configs: maxDelay: 100000000 (0.1 second), baseDelay: 10 (10 nanosecond)
		mutex: mapmutex.NewCustomizedMapMutex(800, 100000000, 10, 1.1, 0.2),
	}
}

// cacheKey maps every spelling of a namespace that resolves to the same table onto one key.
// Unquoted names are case-insensitive on both engines, quoted ones only on SQLite.
func (m *NamespaceManager) cacheKey(namespace string) string {
	if !m.identifiers.Strict() && !m.store.Dialect().FoldsQuotedIdentifiers() {
		return namespace
	}
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, namespace)
}

// Ensure creates the namespace table if it does not exist yet. It is idempotent and safe to
// call concurrently for the same namespace.
func (m *NamespaceManager) Ensure(ctx context.Context, namespace string) error {
	table, err := m.identifiers.Render(namespace)
	if err != nil {
		return err
	}
	key := m.cacheKey(namespace)
	if m.known.GetMemcached(key) {
		namespaceCacheHits.Inc()
		return nil
	}

	// Serialize first-time creation within this process. If the lock cannot be acquired the
	// DDL is still safe to run, it only costs a redundant round-trip.
	if m.mutex.TryLock(key) {
		defer m.mutex.Unlock(key)
		if m.known.GetMemcached(key) {
			namespaceCacheHits.Inc()
			return nil
		}
	} else {
		zap.S().Debugf("Could not lock namespace %s, creating without lock", key)
	}

	generation := m.currentGeneration()
	sqlStatement := m.store.Dialect().CreateTable(table)
	_, err = m.store.Exec(ctx, sqlStatement)
	namespacesEnsured.Inc()
	if err != nil {
		if !m.store.Dialect().IsCreateRace(err) {
			return fmt.Errorf("failed to create namespace %s: %w", namespace, err)
		}
		zap.S().Debugf("Namespace %s was created concurrently", key)
	}
	if m.afterCreate != nil {
		m.afterCreate()
	}

	m.remember(key, generation)
	return nil
}

func (m *NamespaceManager) currentGeneration() uint64 {
	m.catalog.RLock()
	defer m.catalog.RUnlock()
	return m.generation
}

func (m *NamespaceManager) remember(key string, generation uint64) {
	m.catalog.RLock()
	defer m.catalog.RUnlock()
	if m.generation != generation {
		zap.S().Debugf("Catalog changed while ensuring %s, not caching it", key)
		return
	}
	m.known.SetMemcached(key)
}

// invalidate bumps the generation and runs forget, excluding concurrent cache updates
func (m *NamespaceManager) invalidate(forget func()) {
	m.catalog.Lock()
	defer m.catalog.Unlock()
	m.generation++
	forget()
}

// Drop drops the namespace table and forgets it. Dropping an absent namespace succeeds.
func (m *NamespaceManager) Drop(ctx context.Context, namespace string) error {
	table, err := m.identifiers.Render(namespace)
	if err != nil {
		return err
	}
	_, err = m.store.Exec(ctx, m.store.Dialect().DropTable(table))
	// forget even on failure, the next Ensure re-checks against the database
	m.Forget(namespace)
	if err != nil {
		return fmt.Errorf("failed to drop namespace %s: %w", namespace, err)
	}
	return nil
}

// List returns the namespace names ordered by name
func (m *NamespaceManager) List(ctx context.Context) (namespaces []string, err error) {
	sqlStatement := m.store.Dialect().ListTables()

	rows, err := m.store.Query(ctx, sqlStatement)
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	defer rows.Close()

	namespaces = make([]string, 0)
	for rows.Next() {
		var name string
		err = rows.Scan(&name)
		if err != nil {
			ErrorHandling(sqlStatement, err)
			return nil, fmt.Errorf("failed to list namespaces: %w", err)
		}
		namespaces = append(namespaces, name)
	}
	err = rows.Err()
	if err != nil {
		ErrorHandling(sqlStatement, err)
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	return namespaces, nil
}

// Forget drops namespace from the known cache, so the next Ensure reaches the database.
// Ensure calls already in flight do not cache their result.
func (m *NamespaceManager) Forget(namespace string) {
	key := m.cacheKey(namespace)
	m.invalidate(func() {
		m.known.DeleteMemcached(key)
	})
}

// ForgetAll empties the known cache. Used after statements that may have changed the catalog
// in ways the manager cannot see.
func (m *NamespaceManager) ForgetAll() {
	m.invalidate(m.known.FlushMemcached)
}
