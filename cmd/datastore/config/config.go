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

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/united-manufacturing-hub/datastore/cmd/datastore/database"
	"github.com/united-manufacturing-hub/umh-utils/env"
)

type Config struct {
	Driver               string
	SQLitePath           string
	PostgresHost         string
	PostgresPort         int
	PostgresUser         string
	PostgresPassword     string
	PostgresDatabase     string
	PostgresSSLMode      string
	PostgresMaxOpenConns int

	ServerPort  int
	MetricsPort int
	HealthPort  int

	StrictIdentifiers    bool
	EnableSQLPassthrough bool
	NamespaceCacheTTL    time.Duration
	CORSAllowOrigins     []string
}

// Load reads the configuration from the environment. Every variable has a default, except the
// PostgreSQL credentials, which are required when a postgres driver is selected.
func Load() (Config, error) {
	var cfg Config
	var err error
	var errs []error

	collect := func(e error) {
		if e != nil {
			errs = append(errs, e)
		}
	}

	cfg.Driver, err = env.GetAsString("DATASTORE_DRIVER", false, database.DriverSQLite)
	collect(err)
	cfg.SQLitePath, err = env.GetAsString("SQLITE_PATH", false, "./datastore.db")
	collect(err)

	usesPostgres := cfg.Driver == database.DriverPostgres || cfg.Driver == database.DriverPgx
	cfg.PostgresHost, err = env.GetAsString("POSTGRES_HOST", false, "db")
	collect(err)
	cfg.PostgresPort, err = env.GetAsInt("POSTGRES_PORT", false, 5432)
	collect(err)
	cfg.PostgresUser, err = env.GetAsString("POSTGRES_USER", usesPostgres, "")
	collect(err)
	cfg.PostgresPassword, err = env.GetAsString("POSTGRES_PASSWORD", usesPostgres, "")
	collect(err)
	cfg.PostgresDatabase, err = env.GetAsString("POSTGRES_DATABASE", usesPostgres, "")
	collect(err)
	cfg.PostgresSSLMode, err = env.GetAsString("POSTGRES_SSL_MODE", false, "require")
	collect(err)
	cfg.PostgresMaxOpenConns, err = env.GetAsInt("POSTGRES_MAX_OPEN_CONNS", false, 10)
	collect(err)

	cfg.ServerPort, err = env.GetAsInt("SERVER_PORT", false, 3001)
	collect(err)
	cfg.MetricsPort, err = env.GetAsInt("METRICS_PORT", false, 2112)
	collect(err)
	cfg.HealthPort, err = env.GetAsInt("HEALTH_PORT", false, 8086)
	collect(err)

	cfg.StrictIdentifiers, err = env.GetAsBool("STRICT_IDENTIFIERS", false, true)
	collect(err)
	cfg.EnableSQLPassthrough, err = env.GetAsBool("ENABLE_SQL_PASSTHROUGH", false, true)
	collect(err)

	ttlSeconds, err := env.GetAsInt("NAMESPACE_CACHE_TTL_SECONDS", false, 300)
	collect(err)
	cfg.NamespaceCacheTTL = time.Duration(ttlSeconds) * time.Second

	origins, err := env.GetAsString("CORS_ALLOW_ORIGINS", false, "*")
	collect(err)
	cfg.CORSAllowOrigins = splitList(origins)

	if _, dialectErr := database.DialectFor(cfg.Driver); dialectErr != nil {
		errs = append(errs, dialectErr)
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// DSN returns the connection string for the configured driver
func (c Config) DSN() string {
	if c.Driver == database.DriverSQLite {
		return database.SQLiteDSN(c.SQLitePath)
	}
	return database.PostgresDSN(c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDatabase, c.PostgresSSLMode)
}

// MaxOpenConns is 0 (unlimited) for SQLite, whose writers are serialized by busy_timeout instead
func (c Config) MaxOpenConns() int {
	if c.Driver == database.DriverSQLite {
		return 0
	}
	return c.PostgresMaxOpenConns
}

func splitList(value string) []string {
	list := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			list = append(list, item)
		}
	}
	return list
}
