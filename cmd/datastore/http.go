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

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/controllers"
	"github.com/united-manufacturing-hub/datastore/cmd/datastore/models"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

const welcomePage = "<h1>Welcome to DataStore</h1>"

var httpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "datastore_http_requests_total",
		Help: "The total number of HTTP requests by route and status",
	},
	[]string{"method", "route", "status"},
)

type apiOptions struct {
	corsAllowOrigins     []string
	enableSQLPassthrough bool
}

// SetupRestAPI builds the router. The caller serves it.
func SetupRestAPI(controller *controllers.Controller, options apiOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - Logs to stdout.
	//   - RFC3339 with UTC time format.
	router.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	router.Use(ginzap.RecoveryWithZap(zap.L(), true))

	router.Use(requestID())
	router.Use(countRequests())
	router.Use(cors.New(corsConfig(options.corsAllowOrigins)))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(welcomePage))
	})
	router.GET("/tables", controller.GetTablesHandler)
	if options.enableSQLPassthrough {
		router.POST("/sql", controller.ExecuteSQLHandler)
	} else {
		// registered anyway, otherwise POST /:table would treat "sql" as a namespace
		zap.S().Infof("SQL passthrough disabled")
		router.POST("/sql", func(c *gin.Context) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "SQL passthrough is disabled"})
		})
	}

	router.GET("/:table", controller.GetAllHandler)
	router.GET("/:table/keys", controller.GetKeysHandler)
	router.GET("/:table/count", controller.GetCountHandler)
	router.GET("/:table/page/:page", controller.GetPageHandler)
	router.GET("/:table/:key", controller.GetByKeyHandler)
	router.POST("/:table", controller.UpsertHandler)
	router.PUT("/:table/:key", controller.UpdateHandler)
	router.DELETE("/:table/:key", controller.DeleteByKeyHandler)
	router.DELETE("/:table", controller.DropTableHandler)

	return router
}

// requestID keeps a caller supplied X-Request-ID or assigns a new one
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	config.AddAllowHeaders(requestIDHeader)
	config.ExposeHeaders = []string{requestIDHeader}

	for _, origin := range origins {
		if origin == "*" {
			config.AllowAllOrigins = true
			return config
		}
	}
	config.AllowOrigins = origins
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	}
	return config
}
