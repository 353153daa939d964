package database

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics
var (
	statementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_statements_total",
			Help: "The total number of statements sent to the store",
		},
		[]string{"kind", "outcome"},
	)
	namespacesEnsured = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datastore_namespaces_ensured_total",
			Help: "The total number of CREATE TABLE IF NOT EXISTS round-trips",
		},
	)
	namespaceCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datastore_namespace_cache_hits_total",
			Help: "Ensure calls answered from the known namespace cache",
		},
	)
	storeUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "datastore_store_up",
			Help: "Connection with the backing store",
		},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
