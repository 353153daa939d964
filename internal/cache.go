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

package internal

import (
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// MemCache is an in-process expiring key set.
// A zero expiration disables caching: every lookup misses.
type MemCache struct {
	memCache   *cache.Cache
	expiration time.Duration
}

// NewMemCache creates a cache whose entries live for expiration.
// Expired entries are purged every 2*expiration.
func NewMemCache(expiration time.Duration) *MemCache {
	if expiration <= 0 {
		zap.S().Infof("Memcache disabled (expiration %s)", expiration)
		return &MemCache{}
	}
	return &MemCache{
		memCache:   cache.New(expiration, 2*expiration),
		expiration: expiration,
	}
}

// SetMemcached marks key as present for the default expiration
func (m *MemCache) SetMemcached(key string) {
	if m.memCache == nil {
		return
	}
	m.memCache.SetDefault(key, struct{}{})
}

// GetMemcached reports whether key is present and not expired
func (m *MemCache) GetMemcached(key string) (found bool) {
	if m.memCache == nil {
		return false
	}
	_, found = m.memCache.Get(key)
	return
}

func (m *MemCache) DeleteMemcached(key string) {
	if m.memCache == nil {
		return
	}
	m.memCache.Delete(key)
}

// FlushMemcached drops every entry
func (m *MemCache) FlushMemcached() {
	if m.memCache == nil {
		return
	}
	m.memCache.Flush()
}
