/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slotwise_api_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slotwise_api_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "endpoint", "status"})

	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slotwise_api_active_connections",
		Help: "In-flight HTTP requests.",
	})

	// Slot resolution
	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slotwise_resolve_duration_seconds",
		Help:    "Time to resolve valid meeting start times, including the busy interval fetch.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	ResolveCandidatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slotwise_resolve_candidates_total",
		Help: "Candidate start times evaluated.",
	})

	ResolveSlotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slotwise_resolve_slots_total",
		Help: "Valid start times returned.",
	})

	BusySourceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slotwise_busy_source_errors_total",
		Help: "Busy interval fetch failures by source.",
	}, []string{"source"})

	// Cache
	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slotwise_cache_requests_total",
		Help: "Cache lookups by kind and result (hit, miss).",
	}, []string{"kind", "result"})

	// Database
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slotwise_db_query_duration_seconds",
		Help:    "Database operation latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slotwise_db_errors_total",
		Help: "Database operation errors.",
	}, []string{"operation", "table"})

	DatabaseConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slotwise_db_connections_open",
		Help: "Open database connections.",
	})

	DatabaseConnectionsInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slotwise_db_connections_in_use",
		Help: "Database connections currently in use.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
