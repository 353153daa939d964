package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation names used as metric labels
const (
	OperationListAll       = "list_all"
	OperationListKeys      = "list_keys"
	OperationGetByKey      = "get_by_key"
	OperationCount         = "count"
	OperationListPaginated = "list_paginated"
	OperationUpsert        = "upsert"
	OperationUpdate        = "update"
	OperationDeleteByKey   = "delete_by_key"
	OperationDrop          = "drop_namespace"
	OperationExecuteSQL    = "execute_sql"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_operations_total",
			Help: "The total number of service operations",
		},
		[]string{"operation", "outcome"},
	)
	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datastore_operation_duration_seconds",
			Help:    "Duration of service operations, including the namespace check",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// observe is deferred at the top of every operation with a pointer to its named error result
func observe(operation string, start time.Time, err *error) {
	outcome := "ok"
	if err != nil && *err != nil {
		outcome = "error"
	}
	operationsTotal.WithLabelValues(operation, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
