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

package main

/*
Incoming REST call --> http.go --> controllers
The controller parses the parameters into a typed request and calls one service operation.
The service ensures the namespace, builds the statement (pkg/querybuilder) and runs it on the store (database).
*/

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/config"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/controllers"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/database"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/services"
	"github.com/united-manufacturing-hub/datastore/internal"
	"github.com/united-manufacturing-hub/datastore/pkg/querybuilder"
	"github.com/united-manufacturing-hub/umh-utils/env"
	"github.com/united-manufacturing-hub/umh-utils/logger"
	"go.uber.org/zap"
)

var buildtime string

func main() {
	logLevel, _ := env.GetAsString("LOGGING_LEVEL", false, "PRODUCTION") //nolint:errcheck
	log := logger.New(logLevel)
	defer func(logger *zap.SugaredLogger) {
		_ = logger.Sync()
	}(log)

	zap.S().Infof("This is datastore build date: %s", buildtime)

	cfg, err := config.Load()
	if err != nil {
		zap.S().Fatal(err)
	}

	InitPrometheus(cfg.MetricsPort)

	store, err := database.Open(cfg.Driver, cfg.DSN(), cfg.MaxOpenConns())
	if err != nil {
		zap.S().Fatal(err)
	}
	err = store.Connect(context.Background())
	if err != nil {
		zap.S().Fatal(err)
	}

	builder := querybuilder.New(store.Dialect(), cfg.StrictIdentifiers)
	namespaces := database.NewNamespaceManager(store, builder.Identifiers(), cfg.NamespaceCacheTTL)
	service := services.NewService(store, namespaces, builder)
	controller := controllers.NewController(service)

	router := SetupRestAPI(controller, apiOptions{
		corsAllowOrigins:     cfg.CORSAllowOrigins,
		enableSQLPassthrough: cfg.EnableSQLPassthrough,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: internal.TenSeconds,
	}

	gs := internal.NewGracefulShutdown(func(ctx context.Context) error {
		zap.S().Info("Shutting down http server")
		err := server.Shutdown(ctx)
		if err != nil {
			return err
		}
		zap.S().Info("Closing database")
		return store.Close()
	}, internal.ThirtySeconds)

	InitHealthCheck(cfg.HealthPort, store, gs)

	zap.S().Infof("Datastore listening on %s (driver %s, strict identifiers %t)", server.Addr, cfg.Driver, cfg.StrictIdentifiers)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.S().Fatalf("Error starting http server: %s", err)
	}

	gs.Wait()
}

func InitPrometheus(port int) {
	metricsPath := "/metrics"
	metricsPort := fmt.Sprintf(":%d", port)
	zap.S().Debugf("Setting up metrics %s %v", metricsPath, metricsPort)

	http.Handle(metricsPath, promhttp.Handler())
	go func() {
		/* #nosec G114 */
		err := http.ListenAndServe(metricsPort, nil)
		if err != nil {
			zap.S().Errorf("Error starting metrics: %s", err)
		}
	}()
}

func InitHealthCheck(port int, store *database.Store, gs internal.GracefulShutdownHandler) {
	zap.S().Debugf("Setting up healthcheck")

	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000000))
	health.AddReadinessCheck("database", store.GetHealthCheck())
	health.AddReadinessCheck("shutdownEnabled", isShutdownEnabled(gs))
	go func() {
		/* #nosec G114 */
		err := http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), health)
		if err != nil {
			zap.S().Errorf("Error starting healthcheck: %s", err)
		}
	}()
}

func isShutdownEnabled(gs internal.GracefulShutdownHandler) healthcheck.Check {
	return func() error {
		if gs.ShuttingDown() {
			return errors.New("shutdown")
		}
		return nil
	}
}
